package postgres

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/leaderboard"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/player"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
)

// squash collapses whitespace so assertions ignore query layout.
func squash(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

func TestDailyTopQuery(t *testing.T) {
	q, err := dailyTopQuery(leaderboard.MetricScore)
	require.NoError(t, err)
	q = squash(q)
	assert.Contains(t, q, "SELECT u.id, u.name, u.avatar_id, p.score::BIGINT")
	assert.Contains(t, q, "WHERE p.mode = $1 AND p.played_at >= $2 AND u.name <> $3")
	assert.Contains(t, q, "ORDER BY p.score DESC, u.id LIMIT $4")

	q, err = dailyTopQuery(leaderboard.MetricTotalTime)
	require.NoError(t, err)
	assert.Contains(t, squash(q), "ORDER BY p.total_time ASC, u.id")

	_, err = dailyTopQuery(leaderboard.MetricStreakDays)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestDailyStandingQuery(t *testing.T) {
	tests := []struct {
		metric leaderboard.Metric
		best   string
		better string
	}{
		{leaderboard.MetricScore, "MAX(p.score)", "p.score > own.v"},
		{leaderboard.MetricPathLength, "MIN(p.path_length)", "p.path_length < own.v"},
		{leaderboard.MetricTotalTime, "MIN(p.total_time)", "p.total_time < own.v"},
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			q, err := dailyStandingQuery(tt.metric)
			require.NoError(t, err)
			q = squash(q)

			assert.Contains(t, q, tt.best+"::BIGINT AS v")
			assert.Contains(t, q, "WHERE p.user_id = $1 AND p.mode = $2 AND p.played_at >= $3")
			// Ties do not push the caller down: only strictly better records count.
			assert.Contains(t, q, "SELECT COUNT(*)")
			assert.Contains(t, q, "u.name <> $4 AND "+tt.better)
		})
	}
}

func TestGeneralQueries(t *testing.T) {
	for metric, col := range generalColumns {
		t.Run(string(metric), func(t *testing.T) {
			top, err := generalTopQuery(metric)
			require.NoError(t, err)
			assert.Contains(t, squash(top), fmt.Sprintf("WHERE name <> $1 ORDER BY %s DESC, id LIMIT $2", col))

			standing, err := generalStandingQuery(metric)
			require.NoError(t, err)
			assert.Contains(t, squash(standing), fmt.Sprintf("WHERE o.name <> $2 AND o.%[1]s > u.%[1]s", col))
			assert.Contains(t, squash(standing), "FROM users u WHERE u.id = $1")
		})
	}

	_, err := generalStandingQuery(leaderboard.MetricPathLength)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestTouchUserQuery(t *testing.T) {
	q := squash(touchUserQuery)

	// Yesterday is the half-open window [$3, $4); a missed day keeps the streak.
	assert.Contains(t, q, "streak_days = streak_days + CASE WHEN last_login_at >= $3 AND last_login_at < $4 THEN 1 ELSE 0 END")
	assert.Contains(t, q, "last_login_at = $2")
	assert.Contains(t, q, "name = COALESCE($5, name)")
	assert.Contains(t, q, "avatar_id = COALESCE($6, avatar_id)")
	assert.Contains(t, q, "daily_challenge_podium = COALESCE($7, daily_challenge_podium)")
	assert.Contains(t, q, "WHERE id = $1 RETURNING")
}

func TestRegisterQueries(t *testing.T) {
	assert.Contains(t, squash(lockSessionUserQuery), "WHERE s.token = $1 FOR UPDATE OF u")
	assert.Contains(t, squash(insertPlayQuery), "VALUES ($1, $2, $3, $4, $5, $6, $7, $8)")

	q := squash(addGameQuery)
	assert.Contains(t, q, "pages_seen = pages_seen + $3 + 1")
	for mode, col := range map[player.Mode]string{
		player.ModeEasy:           "easy_games",
		player.ModeMedium:         "medium_games",
		player.ModeHard:           "hard_games",
		player.ModeRandomPage:     "random_page_games",
		player.ModeDailyChallenge: "daily_challenge_games",
	} {
		assert.Contains(t, q, fmt.Sprintf("%[1]s = %[1]s + CASE WHEN $4 = %[2]d THEN 1 ELSE 0 END", col, int(mode)))
	}
}

func TestSessionsHaveNoForeignKey(t *testing.T) {
	q := squash(migration001Up)
	i := strings.Index(q, "CREATE TABLE IF NOT EXISTS sessions")
	require.GreaterOrEqual(t, i, 0)

	sessions := q[i:]
	sessions = sessions[:strings.Index(sessions, ");")]
	assert.NotContains(t, sessions, "REFERENCES")
	assert.Contains(t, sessions, "user_id BIGINT NOT NULL")
}
