package filevault

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrUnauthorized indicates a missing, invalid or expired token
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidID indicates a malformed identifier
	ErrInvalidID = errors.New("invalid id")

	// ErrEntryNotFound indicates a file entry was not found, or exists but
	// is not visible to the requester (the two are indistinguishable)
	ErrEntryNotFound = errors.New("entry not found")

	// ErrUserNotFound indicates a user was not found
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists indicates the email is already registered
	ErrUserExists = errors.New("user already exists")

	// ErrParentNotFound indicates a non-root parent reference does not resolve
	ErrParentNotFound = errors.New("parent not found")

	// ErrParentNotFolder indicates the parent exists but is not a folder
	ErrParentNotFolder = errors.New("parent is not a folder")

	// ErrFolderNoContent indicates a download was attempted on a folder
	ErrFolderNoContent = errors.New("a folder doesn't have content")

	// ErrVariantNotFound indicates no variant has been produced for the
	// requested width
	ErrVariantNotFound = errors.New("variant not found")
)

// ValidationError reports a missing or invalid field in a client request.
// Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a client-input failure: either a
// ValidationError or one of the parent/kind sentinels rejected at the
// boundary of Create.
func IsValidation(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrParentNotFound) ||
		errors.Is(err, ErrParentNotFolder) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrFolderNoContent)
}

// EntryError represents an error from an operation on a file entry
type EntryError struct {
	EntryID ID
	Op      string
	Err     error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry operation %s failed for entry %s: %v", e.Op, e.EntryID, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// StorageError represents a failed blob store operation. Reads may be
// retried by the caller; writes that partially completed must not be.
type StorageError struct {
	Path string
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for path %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// JobError marks a job as permanently failed: the job is malformed or the
// referenced file will never appear. The queue must not redeliver it.
type JobError struct {
	Job    Job
	Reason string
	Err    error
}

func (e *JobError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("job for file %s failed permanently: %s: %v", e.Job.FileID, e.Reason, e.Err)
	}
	return fmt.Sprintf("job for file %s failed permanently: %s", e.Job.FileID, e.Reason)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// IsPermanentJobFailure reports whether err disqualifies a job from retry.
func IsPermanentJobFailure(err error) bool {
	var je *JobError
	return errors.As(err, &je)
}
