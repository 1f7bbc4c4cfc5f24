package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
	"github.com/wikichallenge/wikichallenge-server/pkg/timeutil"
)

func TestApplyLogin(t *testing.T) {
	now := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		lastLogin  time.Time
		wantStreak int
	}{
		{"yesterday morning", time.Date(2024, 5, 19, 1, 0, 0, 0, time.UTC), 4},
		{"yesterday just before midnight", time.Date(2024, 5, 19, 23, 59, 59, 0, time.UTC), 4},
		{"earlier today", time.Date(2024, 5, 20, 0, 0, 1, 0, time.UTC), 3},
		{"two days ago keeps streak", time.Date(2024, 5, 18, 23, 0, 0, 0, time.UTC), 3},
		{"long gap keeps streak", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{StreakDays: 3, LastLoginAt: tt.lastLogin}
			grew := u.ApplyLogin(now, timeutil.Yesterday(now, 0))

			assert.Equal(t, tt.wantStreak, u.StreakDays)
			assert.Equal(t, tt.wantStreak == 4, grew)
			assert.True(t, u.LastLoginAt.Equal(now))
		})
	}
}

func TestApplyLogin_UsesOffsetCalendar(t *testing.T) {
	// 21:30 UTC is 23:30 on the 19th at UTC+2, 22:30 UTC is already the 20th.
	last := time.Date(2024, 5, 19, 21, 30, 0, 0, time.UTC)
	now := time.Date(2024, 5, 19, 22, 30, 0, 0, time.UTC)

	u := &User{LastLoginAt: last}
	assert.True(t, u.ApplyLogin(now, timeutil.Yesterday(now, 2)))

	u = &User{LastLoginAt: last}
	assert.False(t, u.ApplyLogin(now, timeutil.Yesterday(now, 0))) // same day in UTC
}

func TestRecordGame(t *testing.T) {
	u := &User{}
	u.RecordGame(GameResult{Mode: ModeHard, Score: 120, PathLength: 4})
	u.RecordGame(GameResult{Mode: ModeDailyChallenge, Score: 80, PathLength: 2})

	assert.Equal(t, int64(200), u.Score)
	assert.Equal(t, 2, u.GamesPlayed)
	assert.Equal(t, int64(8), u.PagesSeen)
	assert.Equal(t, ModeCounters{Hard: 1, DailyChallenge: 1}, u.Modes)
}

func TestNewUser(t *testing.T) {
	now := time.Now()

	u, err := NewUser("alice", "hash", 7, now)
	require.NoError(t, err)
	assert.Equal(t, now, u.JoinedAt)
	assert.Equal(t, now, u.LastLoginAt)
	assert.Zero(t, u.Score)
	assert.Zero(t, u.StreakDays)

	_, err = NewUser("  ", "hash", 0, now)
	assert.ErrorIs(t, err, shared.ErrInvalidName)
}

func TestProfileUpdate(t *testing.T) {
	name := "bob"
	avatar := 3
	p := &ProfileUpdate{Name: &name, AvatarID: &avatar}
	require.NoError(t, p.Validate())
	assert.False(t, p.IsEmpty())

	u := &User{Name: "alice", AvatarID: 1, DailyChallengePodium: 2}
	p.Apply(u)
	assert.Equal(t, "bob", u.Name)
	assert.Equal(t, 3, u.AvatarID)
	assert.Equal(t, 2, u.DailyChallengePodium)

	var nilUpdate *ProfileUpdate
	assert.True(t, nilUpdate.IsEmpty())
	nilUpdate.Apply(u)

	empty := ""
	assert.ErrorIs(t, (&ProfileUpdate{Name: &empty}).Validate(), shared.ErrInvalidName)
}
