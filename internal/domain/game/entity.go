// Package game holds finished rounds (play records) and the daily challenge.
package game

import (
	"context"
	"strings"
	"time"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/player"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
)

// PlayRecord is an append-only fact describing one finished round.
type PlayRecord struct {
	ID         int64
	UserID     int64
	From       string
	To         string
	Mode       player.Mode
	Score      int64
	TotalTime  int64 // milliseconds
	PlayedAt   time.Time
	PathLength int
}

// Validate rejects records that would corrupt the counters.
func (r PlayRecord) Validate() error {
	if !r.Mode.IsValid() {
		return shared.ErrInvalidMode
	}
	if r.PathLength < 0 || r.TotalTime < 0 {
		return shared.ErrInvalidPlay
	}
	return nil
}

// Result is the part of the record that feeds the user's totals.
func (r PlayRecord) Result() player.GameResult {
	return player.GameResult{Mode: r.Mode, Score: r.Score, PathLength: r.PathLength}
}

// DailyChallenge is the single puzzle of one calendar day, keyed by that
// day's local midnight.
type DailyChallenge struct {
	Day        time.Time
	StartPage  string
	EndPage    string
	Difficulty int
	Fun        int
}

// Validate checks the pair is usable.
func (d DailyChallenge) Validate() error {
	if strings.TrimSpace(d.StartPage) == "" || strings.TrimSpace(d.EndPage) == "" || d.StartPage == d.EndPage {
		return shared.ErrInvalidPlay
	}
	return nil
}

// Repository records finished rounds.
type Repository interface {
	// Register appends rec for the owner of token and applies it to that
	// user's counters in one transaction. rec.UserID is ignored and the
	// resolved user id is returned.
	// Returns shared.ErrInvalidToken when the token is unknown.
	Register(ctx context.Context, token string, rec PlayRecord) (int64, error)
}

// DailyChallengeRepository stores one challenge per day.
type DailyChallengeRepository interface {
	// GetByDay returns shared.ErrNoDailyChallenge when the day has none.
	GetByDay(ctx context.Context, day time.Time) (*DailyChallenge, error)

	// Create returns shared.ErrDailyChallengeExists when the day is taken.
	Create(ctx context.Context, dc *DailyChallenge) error

	// AdjustFun adds delta to the day's fun score. A day without a
	// challenge is left alone.
	AdjustFun(ctx context.Context, day time.Time, delta int) error
}
