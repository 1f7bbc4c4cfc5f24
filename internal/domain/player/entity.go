// Package player contains the user aggregate of the game: identity,
// cumulative counters and the login streak.
package player

import (
	"strings"
	"time"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GAME MODES
// ══════════════════════════════════════════════════════════════════════════════

// Mode identifies how a round was played. Values are part of the protocol.
type Mode int

const (
	ModeEasy           Mode = 1
	ModeMedium         Mode = 2
	ModeHard           Mode = 3
	ModeRandomPage     Mode = 4
	ModeDailyChallenge Mode = 5
)

// IsValid reports whether m is one of the known modes.
func (m Mode) IsValid() bool {
	return m >= ModeEasy && m <= ModeDailyChallenge
}

func (m Mode) String() string {
	switch m {
	case ModeEasy:
		return "easy"
	case ModeMedium:
		return "medium"
	case ModeHard:
		return "hard"
	case ModeRandomPage:
		return "random_page"
	case ModeDailyChallenge:
		return "daily_challenge"
	default:
		return "unknown"
	}
}

// ModeCounters counts finished rounds per mode.
type ModeCounters struct {
	Easy           int
	Medium         int
	Hard           int
	RandomPage     int
	DailyChallenge int
}

// Increment bumps the counter of m. Unknown modes are ignored.
func (c *ModeCounters) Increment(m Mode) {
	switch m {
	case ModeEasy:
		c.Easy++
	case ModeMedium:
		c.Medium++
	case ModeHard:
		c.Hard++
	case ModeRandomPage:
		c.RandomPage++
	case ModeDailyChallenge:
		c.DailyChallenge++
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// USER
// ══════════════════════════════════════════════════════════════════════════════

// User is a registered player.
type User struct {
	ID           int64
	Name         string
	PasswordHash string
	AvatarID     int

	JoinedAt    time.Time
	LastLoginAt time.Time
	StreakDays  int

	Score       int64
	GamesPlayed int
	PagesSeen   int64
	Modes       ModeCounters

	DailyChallengePodium int
}

// NewUser builds a fresh account with every counter at zero and both
// join and last-login set to now.
func NewUser(name, passwordHash string, avatarID int, now time.Time) (*User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.ErrInvalidName
	}
	return &User{
		Name:         name,
		PasswordHash: passwordHash,
		AvatarID:     avatarID,
		JoinedAt:     now,
		LastLoginAt:  now,
	}, nil
}

// GameResult is what a finished round adds to the user's totals.
type GameResult struct {
	Mode       Mode
	Score      int64
	PathLength int
}

// RecordGame applies a finished round to the cumulative counters.
// Pages seen counts the start page too, hence PathLength+1.
func (u *User) RecordGame(g GameResult) {
	u.Score += g.Score
	u.GamesPlayed++
	u.PagesSeen += int64(g.PathLength) + 1
	u.Modes.Increment(g.Mode)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE UPDATES AND VIEWS
// ══════════════════════════════════════════════════════════════════════════════

// ProfileUpdate carries client-driven profile mutations. Nil fields are left
// untouched. Counters are not client-writable; they only move through
// registered games.
type ProfileUpdate struct {
	Name                 *string
	AvatarID             *int
	DailyChallengePodium *int
}

// IsEmpty reports whether the update changes nothing.
func (p *ProfileUpdate) IsEmpty() bool {
	return p == nil || (p.Name == nil && p.AvatarID == nil && p.DailyChallengePodium == nil)
}

// Validate rejects an empty name.
func (p *ProfileUpdate) Validate() error {
	if p != nil && p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return shared.ErrInvalidName
	}
	return nil
}

// Apply copies the non-nil fields onto u.
func (p *ProfileUpdate) Apply(u *User) {
	if p == nil {
		return
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.AvatarID != nil {
		u.AvatarID = *p.AvatarID
	}
	if p.DailyChallengePodium != nil {
		u.DailyChallengePodium = *p.DailyChallengePodium
	}
}

// DailyStats aggregates today's play records of one user.
type DailyStats struct {
	GameCount           int
	ScoreSum            int64
	DailyChallengeDone  bool
	DailyChallengeScore int64
}

// View is the user as returned to the client after authentication.
type View struct {
	User
	Today DailyStats
}
