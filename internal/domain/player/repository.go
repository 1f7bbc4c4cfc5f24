package player

import (
	"context"
	"time"

	"github.com/wikichallenge/wikichallenge-server/pkg/timeutil"
)

// Repository is the user side of the data store.
type Repository interface {
	// Create inserts u and sets u.ID.
	// Returns shared.ErrNameTaken when the name is in use.
	Create(ctx context.Context, u *User) error

	// GetByID returns shared.ErrUserNotFound when no such user exists.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByName matches the name exactly (case-sensitive).
	// Returns shared.ErrUserNotFound when no such user exists.
	GetByName(ctx context.Context, name string) (*User, error)

	// ExistsByName reports whether the exact name is taken.
	ExistsByName(ctx context.Context, name string) (bool, error)

	// Touch runs the login bookkeeping of User.ApplyLogin plus the optional
	// profile update as one atomic write and returns the stored result.
	// yesterday is the window whose last logins extend the streak.
	// Returns shared.ErrUserNotFound or shared.ErrNameTaken.
	Touch(ctx context.Context, id int64, now time.Time, yesterday timeutil.Window, update *ProfileUpdate) (*User, error)

	// DailyStats aggregates the user's play records with date >= since.
	DailyStats(ctx context.Context, id int64, since time.Time) (DailyStats, error)
}
