package query

import (
	"context"
	"time"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/game"
	"github.com/wikichallenge/wikichallenge-server/pkg/timeutil"
)

// GetDailyChallengeHandler returns today's challenge.
type GetDailyChallengeHandler struct {
	challenges     game.DailyChallengeRepository
	utcOffsetHours int
	now            func() time.Time
}

// NewGetDailyChallengeHandler creates a handler. A nil clock means time.Now.
func NewGetDailyChallengeHandler(challenges game.DailyChallengeRepository, utcOffsetHours int, clock func() time.Time) *GetDailyChallengeHandler {
	if clock == nil {
		clock = time.Now
	}
	return &GetDailyChallengeHandler{challenges: challenges, utcOffsetHours: utcOffsetHours, now: clock}
}

// Handle returns shared.ErrNoDailyChallenge when none is set for today.
func (h *GetDailyChallengeHandler) Handle(ctx context.Context) (*game.DailyChallenge, error) {
	return h.challenges.GetByDay(ctx, timeutil.TodayKey(h.now(), h.utcOffsetHours))
}
