// Package command contains the write side of the game server (CQRS
// commands): accounts and sessions, login bookkeeping, finished rounds and
// feedback votes.
package command

import "time"

// PasswordHasher is the one-way password hash capability.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenDeriver derives a fresh opaque session token for a user.
type TokenDeriver interface {
	DeriveToken(userID int64, now time.Time) (string, error)
}

// Clock returns the current instant. Tests pin it.
type Clock func() time.Time

func (c Clock) orSystem() Clock {
	if c == nil {
		return time.Now
	}
	return c
}
