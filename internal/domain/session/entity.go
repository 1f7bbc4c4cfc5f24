// Package session models opaque bearer tokens issued after a successful
// login or account creation.
package session

import (
	"context"
	"strings"
	"time"
)

// MaxAge is how long a token stays valid after creation. A token checked
// exactly MaxAge after creation is still accepted.
const MaxAge = 62 * 24 * time.Hour

// Session binds a token to a user. Several sessions per user may coexist.
type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
}

// New creates a session for userID at now.
func New(token string, userID int64, now time.Time) *Session {
	return &Session{Token: token, UserID: userID, CreatedAt: now}
}

// IsExpired reports whether now is strictly past CreatedAt+MaxAge.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt())
}

// ExpiresAt is the last instant at which the token is accepted.
func (s *Session) ExpiresAt() time.Time {
	return s.CreatedAt.Add(MaxAge)
}

// NormalizeToken trims whitespace; an empty result means "no session".
func NormalizeToken(token string) string {
	return strings.TrimSpace(token)
}

// Repository is the session side of the data store.
type Repository interface {
	// Create inserts s.
	Create(ctx context.Context, s *Session) error

	// Get returns shared.ErrInvalidToken when the token is unknown.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes the token. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}
