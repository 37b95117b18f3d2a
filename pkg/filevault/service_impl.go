package filevault

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// service implements the Service interface
type service struct {
	repository Repository
	blobStore  BlobStore
	sessions   *SessionStore
	queue      Queue
	eventSink  EventSink
	logger     *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the metadata repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob storage backend
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithSessions sets the session store
func WithSessions(sessions *SessionStore) Option {
	return func(s *service) {
		s.sessions = sessions
	}
}

// WithQueue sets the thumbnail job queue
func WithQueue(q Queue) Option {
	return func(s *service) {
		s.queue = q
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options. A
// repository, a blob store and a session store are required.
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Account and session operations

func (s *service) RegisterUser(ctx context.Context, req RegisterUserRequest) (*User, error) {
	if req.Email == "" {
		return nil, NewValidationError("email", "missing")
	}
	if req.Password == "" {
		return nil, NewValidationError("password", "missing")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:           NewID(),
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repository.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if s.eventSink != nil {
		if err := s.eventSink.UserRegistered(ctx, user); err != nil {
			s.logger.Error("user registered event failed", "user_id", user.ID, "error", err)
		}
	}

	return user, nil
}

func (s *service) Connect(ctx context.Context, email, password string) (string, error) {
	user, err := s.repository.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrUnauthorized
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrUnauthorized
	}

	return s.sessions.Issue(ctx, user.ID)
}

func (s *service) Disconnect(ctx context.Context, token string) error {
	_, ok, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return s.sessions.Revoke(ctx, token)
}

func (s *service) UserForToken(ctx context.Context, token string) (*User, error) {
	userID, ok, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}

	user, err := s.repository.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// Upload pipeline

// CreateEntry validates the request (first violation wins), persists the
// metadata record and, for file/image kinds, writes the decoded content
// first. The two writes are not transactional: a blob whose metadata
// write fails is accepted garbage.
func (s *service) CreateEntry(ctx context.Context, req CreateEntryRequest) (*FileEntry, error) {
	if req.Name == "" {
		return nil, NewValidationError("name", "missing")
	}
	if !req.Kind.Valid() {
		return nil, NewValidationError("type", "missing or unrecognized")
	}
	if req.Kind.HasContent() && req.Data == "" {
		return nil, NewValidationError("data", "missing")
	}

	if !req.ParentID.IsRoot() {
		parent, err := s.repository.GetEntry(ctx, req.ParentID)
		if err != nil {
			if errors.Is(err, ErrEntryNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
		if parent.Kind != KindFolder {
			return nil, ErrParentNotFolder
		}
	}

	entry := &FileEntry{
		ID:        NewID(),
		OwnerID:   req.OwnerID,
		Name:      req.Name,
		Kind:      req.Kind,
		ParentID:  req.ParentID,
		Public:    req.Public,
		CreatedAt: time.Now().UTC(),
	}

	if req.Kind.HasContent() {
		data, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			return nil, NewValidationError("data", "malformed base64")
		}

		path, err := s.blobStore.Write(ctx, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		entry.Path = path
	}

	if err := s.repository.CreateEntry(ctx, entry); err != nil {
		return nil, &EntryError{EntryID: entry.ID, Op: "create", Err: err}
	}

	if req.Kind == KindImage && s.queue != nil {
		if err := s.queue.Enqueue(ctx, Job{OwnerID: entry.OwnerID, FileID: entry.ID}); err != nil {
			return nil, &EntryError{EntryID: entry.ID, Op: "enqueue", Err: err}
		}
	}

	if s.eventSink != nil {
		if err := s.eventSink.EntryCreated(ctx, entry); err != nil {
			s.logger.Error("entry created event failed", "entry_id", entry.ID, "error", err)
		}
	}

	return entry, nil
}

// Metadata read/write paths

func (s *service) GetEntry(ctx context.Context, ownerID, id ID) (*FileEntry, error) {
	return s.repository.GetOwnedEntry(ctx, id, ownerID)
}

func (s *service) ListEntries(ctx context.Context, req ListEntriesRequest) ([]*FileEntry, error) {
	page := req.Page
	if page < 0 {
		page = 0
	}
	return s.repository.ListChildren(ctx, req.OwnerID, req.ParentID, page)
}

func (s *service) SetVisibility(ctx context.Context, ownerID, id ID, public bool) (*FileEntry, error) {
	return s.repository.SetVisibility(ctx, id, ownerID, public)
}

// Download

func (s *service) Download(ctx context.Context, req DownloadRequest) (io.ReadCloser, *FileEntry, error) {
	entry, err := s.repository.GetEntry(ctx, req.ID)
	if err != nil {
		return nil, nil, err
	}

	if !CanRead(entry, req.RequesterID) {
		return nil, nil, ErrEntryNotFound
	}

	if entry.Kind == KindFolder {
		return nil, nil, ErrFolderNoContent
	}

	path := entry.Path
	if req.Width != 0 {
		path = entry.VariantPath(req.Width)
		if path == "" {
			return nil, nil, ErrVariantNotFound
		}
	}

	rc, err := s.blobStore.Read(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return rc, entry, nil
}

// Operational

func (s *service) Health(ctx context.Context) Health {
	h := Health{}
	if err := s.sessions.kv.Ping(ctx); err == nil {
		h.KV = true
	}
	if err := s.repository.Ping(ctx); err == nil {
		h.Repo = true
	}
	return h
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	users, err := s.repository.CountUsers(ctx)
	if err != nil {
		return Stats{}, err
	}
	entries, err := s.repository.CountEntries(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Users: users, Entries: entries}, nil
}
