package query

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/leaderboard"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/player"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/session"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
	"github.com/wikichallenge/wikichallenge-server/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Both boards are read straight from the store on every request; every
// metric is fetched concurrently. The house account never appears.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardHandler serves the daily and general leaderboards.
type GetLeaderboardHandler struct {
	boards         leaderboard.Repository
	sessions       session.Repository
	users          player.Repository
	houseName      string
	utcOffsetHours int
	now            func() time.Time
}

// NewGetLeaderboardHandler creates a handler. A nil clock means time.Now.
func NewGetLeaderboardHandler(
	boards leaderboard.Repository,
	sessions session.Repository,
	users player.Repository,
	houseName string,
	utcOffsetHours int,
	clock func() time.Time,
) *GetLeaderboardHandler {
	if clock == nil {
		clock = time.Now
	}
	return &GetLeaderboardHandler{
		boards:         boards,
		sessions:       sessions,
		users:          users,
		houseName:      houseName,
		utcOffsetHours: utcOffsetHours,
		now:            clock,
	}
}

// Daily returns today's daily challenge boards. Caller standings are
// included only when token resolves to a live session.
func (h *GetLeaderboardHandler) Daily(ctx context.Context, token string) (*leaderboard.Leaderboard, error) {
	now := h.now()
	since := timeutil.TodayKey(now, h.utcOffsetHours)

	callerID, ok, err := h.resolve(ctx, token, now)
	if err != nil && !isTokenError(err) {
		return nil, err
	}
	ok = ok && err == nil

	return h.collect(ctx, leaderboard.ScopeDaily, func(ctx context.Context, b *leaderboard.Board) error {
		top, err := h.boards.DailyTop(ctx, b.Metric, since, h.houseName, leaderboard.DailyTopSize)
		if err != nil {
			return err
		}
		b.Top = top

		if !ok {
			return nil
		}
		st, err := h.boards.DailyStanding(ctx, b.Metric, callerID, since, h.houseName)
		if err != nil {
			return err
		}
		b.Caller = &st
		return nil
	})
}

// General returns the all-time boards. An empty token ranks the house
// account; an unknown or expired token is rejected.
func (h *GetLeaderboardHandler) General(ctx context.Context, token string) (*leaderboard.Leaderboard, error) {
	callerID, ok, err := h.resolve(ctx, token, h.now())
	if err != nil {
		if errors.Is(err, shared.ErrSessionExpired) {
			return nil, shared.ErrInvalidToken
		}
		return nil, err
	}
	if !ok {
		house, err := h.users.GetByName(ctx, h.houseName)
		switch {
		case err == nil:
			callerID, ok = house.ID, true
		case !shared.IsNotFound(err):
			return nil, err
		}
	}

	return h.collect(ctx, leaderboard.ScopeGeneral, func(ctx context.Context, b *leaderboard.Board) error {
		top, err := h.boards.GeneralTop(ctx, b.Metric, h.houseName, leaderboard.GeneralTopSize)
		if err != nil {
			return err
		}
		b.Top = top

		st := leaderboard.Unranked
		if ok {
			if st, err = h.boards.GeneralStanding(ctx, b.Metric, callerID, h.houseName); err != nil {
				return err
			}
		}
		b.Caller = &st
		return nil
	})
}

func (h *GetLeaderboardHandler) collect(ctx context.Context, scope leaderboard.Scope, fill func(context.Context, *leaderboard.Board) error) (*leaderboard.Leaderboard, error) {
	metrics := scope.Metrics()
	lb := &leaderboard.Leaderboard{Scope: scope, Boards: make([]leaderboard.Board, len(metrics))}

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range metrics {
		lb.Boards[i].Metric = m
		b := &lb.Boards[i]
		g.Go(func() error { return fill(gctx, b) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lb, nil
}

// resolve maps token to its user without touching the session. ok is
// false for an empty token.
func (h *GetLeaderboardHandler) resolve(ctx context.Context, token string, now time.Time) (int64, bool, error) {
	token = session.NormalizeToken(token)
	if token == "" {
		return 0, false, nil
	}

	sess, err := h.sessions.Get(ctx, token)
	if err != nil {
		return 0, false, err
	}
	if sess.IsExpired(now) {
		return 0, false, shared.ErrSessionExpired
	}
	return sess.UserID, true, nil
}

func isTokenError(err error) bool {
	return errors.Is(err, shared.ErrInvalidToken) || errors.Is(err, shared.ErrSessionExpired)
}
