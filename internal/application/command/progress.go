package command

import (
	"context"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/player"
	"github.com/wikichallenge/wikichallenge-server/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS TRACKER
// Runs after every successful authentication: today's aggregates, the
// streak step and the last-login stamp. The streak step and any profile
// update are persisted by one atomic repository call, so concurrent logins
// and saves of the same user cannot overwrite each other.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressTracker refreshes a user's daily view.
type ProgressTracker struct {
	users          player.Repository
	utcOffsetHours int
	now            Clock
}

// NewProgressTracker creates a tracker bucketing days at utcOffsetHours.
func NewProgressTracker(users player.Repository, utcOffsetHours int, clock Clock) *ProgressTracker {
	return &ProgressTracker{
		users:          users,
		utcOffsetHours: utcOffsetHours,
		now:            clock.orSystem(),
	}
}

// Refresh returns the user's view after applying the login bookkeeping and
// the optional profile update.
func (t *ProgressTracker) Refresh(ctx context.Context, userID int64, update *player.ProfileUpdate) (*player.View, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	now := t.now()

	stats, err := t.users.DailyStats(ctx, userID, timeutil.TodayKey(now, t.utcOffsetHours))
	if err != nil {
		return nil, err
	}

	u, err := t.users.Touch(ctx, userID, now, timeutil.Yesterday(now, t.utcOffsetHours), update)
	if err != nil {
		return nil, err
	}

	return &player.View{User: *u, Today: stats}, nil
}
