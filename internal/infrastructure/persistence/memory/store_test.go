package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/game"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/leaderboard"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/player"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/session"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/topic"
	"github.com/wikichallenge/wikichallenge-server/pkg/timeutil"
)

var now = time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

func createUser(t *testing.T, s *Store, name string) *player.User {
	t.Helper()
	u, err := player.NewUser(name, "hash", 1, now.Add(-48*time.Hour))
	require.NoError(t, err)
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func openSession(t *testing.T, s *Store, token string, userID int64) {
	t.Helper()
	require.NoError(t, s.Sessions().Create(context.Background(), session.New(token, userID, now)))
}

func TestUserRepository_NameUniqueness(t *testing.T) {
	s := New()
	createUser(t, s, "alice")

	u, _ := player.NewUser("alice", "x", 0, now)
	assert.ErrorIs(t, s.Users().Create(context.Background(), u), shared.ErrNameTaken)

	// Case-sensitive.
	u, _ = player.NewUser("Alice", "x", 0, now)
	assert.NoError(t, s.Users().Create(context.Background(), u))
}

func TestUserRepository_Touch(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := createUser(t, s, "alice")
	createUser(t, s, "bob")

	yesterday := timeutil.Yesterday(now, 0)

	// Last login two days ago: streak unchanged.
	u, err := s.Users().Touch(ctx, alice.ID, now, yesterday, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, u.StreakDays)
	assert.True(t, u.LastLoginAt.Equal(now))

	// Next day: streak grows.
	tomorrow := now.Add(24 * time.Hour)
	u, err = s.Users().Touch(ctx, alice.ID, tomorrow, timeutil.Yesterday(tomorrow, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, u.StreakDays)

	// Same day again: unchanged, with a profile update in the same write.
	avatar := 9
	u, err = s.Users().Touch(ctx, alice.ID, tomorrow.Add(time.Hour), timeutil.Yesterday(tomorrow, 0), &player.ProfileUpdate{AvatarID: &avatar})
	require.NoError(t, err)
	assert.Equal(t, 1, u.StreakDays)
	assert.Equal(t, 9, u.AvatarID)

	taken := "bob"
	_, err = s.Users().Touch(ctx, alice.ID, now, yesterday, &player.ProfileUpdate{Name: &taken})
	assert.ErrorIs(t, err, shared.ErrNameTaken)

	_, err = s.Users().Touch(ctx, 999, now, yesterday, nil)
	assert.ErrorIs(t, err, shared.ErrUserNotFound)
}

func TestGameRepository_Register(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := createUser(t, s, "alice")
	openSession(t, s, "tok", alice.ID)

	id, err := s.Games().Register(ctx, "tok", game.PlayRecord{
		From: "A", To: "B", Mode: player.ModeMedium, Score: 40, TotalTime: 9000, PlayedAt: now, PathLength: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, id)

	u, err := s.Users().GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), u.Score)
	assert.Equal(t, 1, u.GamesPlayed)
	assert.Equal(t, int64(4), u.PagesSeen)
	assert.Equal(t, 1, u.Modes.Medium)

	_, err = s.Games().Register(ctx, "nope", game.PlayRecord{Mode: player.ModeEasy})
	assert.ErrorIs(t, err, shared.ErrInvalidToken)
	assert.Len(t, s.Plays(), 1)
}

func TestUserRepository_DailyStats(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := createUser(t, s, "alice")
	openSession(t, s, "tok", alice.ID)

	today := timeutil.TodayKey(now, 0)
	plays := []game.PlayRecord{
		{Mode: player.ModeEasy, Score: 10, PlayedAt: today.Add(-time.Minute)},
		{Mode: player.ModeEasy, Score: 20, PlayedAt: today.Add(time.Hour)},
		{Mode: player.ModeDailyChallenge, Score: 75, PlayedAt: today.Add(2 * time.Hour)},
	}
	for _, p := range plays {
		_, err := s.Games().Register(ctx, "tok", p)
		require.NoError(t, err)
	}

	stats, err := s.Users().DailyStats(ctx, alice.ID, today)
	require.NoError(t, err)
	assert.Equal(t, player.DailyStats{GameCount: 2, ScoreSum: 95, DailyChallengeDone: true, DailyChallengeScore: 75}, stats)
}

func TestLeaderboardRepository_DailyTiesAndHouseExclusion(t *testing.T) {
	ctx := context.Background()
	s := New()
	today := timeutil.TodayKey(now, 0)

	players := map[string]int64{"a": 100, "b": 100, "c": 90, "dev": 500}
	ids := map[string]int64{}
	for name, score := range players {
		u := createUser(t, s, name)
		ids[name] = u.ID
		openSession(t, s, name, u.ID)
		_, err := s.Games().Register(ctx, name, game.PlayRecord{
			Mode: player.ModeDailyChallenge, Score: score, PathLength: int(score / 10), TotalTime: score * 100, PlayedAt: today.Add(time.Hour),
		})
		require.NoError(t, err)
	}
	// Yesterday's record and a non-daily record do not count.
	_, err := s.Games().Register(ctx, "c", game.PlayRecord{Mode: player.ModeDailyChallenge, Score: 999, PlayedAt: today.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = s.Games().Register(ctx, "c", game.PlayRecord{Mode: player.ModeHard, Score: 999, PlayedAt: today.Add(time.Hour)})
	require.NoError(t, err)

	lb := s.Leaderboards()

	top, err := lb.DailyTop(ctx, leaderboard.MetricScore, today, "dev", 20)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []int64{100, 100, 90}, []int64{top[0].Value, top[1].Value, top[2].Value})

	st, err := lb.DailyStanding(ctx, leaderboard.MetricScore, ids["a"], today, "dev")
	require.NoError(t, err)
	assert.Equal(t, leaderboard.Standing{Rank: 1, Value: 100}, st)

	st, err = lb.DailyStanding(ctx, leaderboard.MetricScore, ids["c"], today, "dev")
	require.NoError(t, err)
	assert.Equal(t, leaderboard.Standing{Rank: 3, Value: 90}, st)

	st, err = lb.DailyStanding(ctx, leaderboard.MetricPathLength, ids["c"], today, "dev")
	require.NoError(t, err)
	assert.Equal(t, leaderboard.Standing{Rank: 1, Value: 9}, st)

	outsider := createUser(t, s, "zed")
	st, err = lb.DailyStanding(ctx, leaderboard.MetricScore, outsider.ID, today, "dev")
	require.NoError(t, err)
	assert.Equal(t, leaderboard.Unranked, st)

	top, err = lb.DailyTop(ctx, leaderboard.MetricTotalTime, today, "dev", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "c", top[0].Name)

	_, err = lb.DailyTop(ctx, leaderboard.MetricStreakDays, today, "dev", 20)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestLeaderboardRepository_General(t *testing.T) {
	ctx := context.Background()
	s := New()

	for name, games := range map[string]int{"a": 3, "b": 3, "c": 1, "dev": 10} {
		u := createUser(t, s, name)
		openSession(t, s, name, u.ID)
		for i := 0; i < games; i++ {
			_, err := s.Games().Register(ctx, name, game.PlayRecord{Mode: player.ModeEasy, Score: 10, PlayedAt: now})
			require.NoError(t, err)
		}
	}

	lb := s.Leaderboards()
	top, err := lb.GeneralTop(ctx, leaderboard.MetricGamesPlayed, "dev", 100)
	require.NoError(t, err)
	require.Len(t, top, 3)
	for _, e := range top {
		assert.NotEqual(t, "dev", e.Name)
	}

	dev, err := s.Users().GetByName(ctx, "dev")
	require.NoError(t, err)
	st, err := lb.GeneralStanding(ctx, leaderboard.MetricGamesPlayed, dev.ID, "dev")
	require.NoError(t, err)
	assert.Equal(t, leaderboard.Standing{Rank: 1, Value: 10}, st)

	c, err := s.Users().GetByName(ctx, "c")
	require.NoError(t, err)
	st, err = lb.GeneralStanding(ctx, leaderboard.MetricScore, c.ID, "dev")
	require.NoError(t, err)
	assert.Equal(t, leaderboard.Standing{Rank: 3, Value: 10}, st)

	st, err = lb.GeneralStanding(ctx, leaderboard.MetricScore, 12345, "dev")
	require.NoError(t, err)
	assert.Equal(t, leaderboard.Unranked, st)
}

func TestTopicRepository(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.SeedTopics(
		topic.Topic{ID: 30, Title: "Moon", Interest: 50, Difficulty: 3},
		topic.Topic{ID: 10, Title: "Sun", Interest: 20, Difficulty: 1},
		topic.Topic{ID: 20, Title: "Mars", Interest: 70, Difficulty: 5},
	)

	f := topic.Filter{Interest: topic.Range{Low: 0, High: 100}, Difficulty: topic.Range{Low: 0, High: 10}, ExcludeTitle: "Mars"}

	got, err := s.Topics().FindInWindow(ctx, f, 15, 35)
	require.NoError(t, err)
	assert.Equal(t, "Moon", got.Title)

	_, err = s.Topics().FindInWindow(ctx, f, 11, 19)
	assert.ErrorIs(t, err, shared.ErrTopicNotFound)

	got, err = s.Topics().FindFrom(ctx, f, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(30), got.ID)

	require.NoError(t, s.Topics().AdjustInterest(ctx, "Moon", -5))
	require.NoError(t, s.Topics().AdjustDifficulty(ctx, "Moon", 1))
	moon, ok := s.Topic(30)
	require.True(t, ok)
	assert.Equal(t, 45, moon.Interest)
	assert.Equal(t, 4, moon.Difficulty)
}

func TestDailyChallengeRepository(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := timeutil.TodayKey(now, 0)

	_, err := s.DailyChallenges().GetByDay(ctx, day)
	assert.ErrorIs(t, err, shared.ErrNoDailyChallenge)

	require.NoError(t, s.DailyChallenges().Create(ctx, &game.DailyChallenge{Day: day, StartPage: "A", EndPage: "B", Difficulty: 2}))
	assert.ErrorIs(t, s.DailyChallenges().Create(ctx, &game.DailyChallenge{Day: day, StartPage: "C", EndPage: "D"}), shared.ErrDailyChallengeExists)

	require.NoError(t, s.DailyChallenges().AdjustFun(ctx, day, 1))
	require.NoError(t, s.DailyChallenges().AdjustFun(ctx, day.AddDate(0, 0, 1), 1))

	dc, err := s.DailyChallenges().GetByDay(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 1, dc.Fun)
	assert.Equal(t, "A", dc.StartPage)
}

func TestStore_FailNext(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.FailNext(boom)

	_, err := s.Users().ExistsByName(context.Background(), "x")
	assert.ErrorIs(t, err, boom)

	_, err = s.Users().ExistsByName(context.Background(), "x")
	assert.NoError(t, err)
}
