package filevault

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// sessionKeyPrefix is the KV namespace for auth tokens.
const sessionKeyPrefix = "auth_"

// DefaultSessionTTL is the session lifetime when none is configured.
const DefaultSessionTTL = 24 * time.Hour

// SessionStore maps opaque tokens to user identifiers with a fixed
// time-to-live, backed by an expiring KeyValue store. Expiry is lazy:
// absence on lookup means expired or never issued.
type SessionStore struct {
	kv  KeyValue
	ttl time.Duration
}

// NewSessionStore creates a SessionStore over kv. A non-positive ttl
// falls back to DefaultSessionTTL.
func NewSessionStore(kv KeyValue, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{kv: kv, ttl: ttl}
}

// Issue generates a random token bound to userID for the store's TTL.
func (s *SessionStore) Issue(ctx context.Context, userID ID) (string, error) {
	token := uuid.NewString()
	if err := s.kv.Set(ctx, sessionKeyPrefix+token, userID.String(), s.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the user bound to token, or false when the token is
// absent or expired. Absence is a business outcome, never an error.
func (s *SessionStore) Resolve(ctx context.Context, token string) (ID, bool, error) {
	raw, ok, err := s.kv.Get(ctx, sessionKeyPrefix+token)
	if err != nil || !ok {
		return Root, false, err
	}
	userID, err := ParseID(raw)
	if err != nil || userID.IsRoot() {
		return Root, false, nil
	}
	return userID, true, nil
}

// Revoke deletes the token binding. Revoking twice is not an error.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	return s.kv.Del(ctx, sessionKeyPrefix+token)
}
