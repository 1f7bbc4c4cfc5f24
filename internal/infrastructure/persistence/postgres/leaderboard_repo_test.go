package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/leaderboard"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/topic"
)

func TestColumnWhitelists(t *testing.T) {
	for _, m := range leaderboard.ScopeDaily.Metrics() {
		_, err := column(dailyColumns, m)
		assert.NoError(t, err, m)
	}
	for _, m := range leaderboard.ScopeGeneral.Metrics() {
		_, err := column(generalColumns, m)
		assert.NoError(t, err, m)
	}

	_, err := column(generalColumns, leaderboard.Metric("password_hash"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestOrdering(t *testing.T) {
	dir, best, better := ordering(leaderboard.MetricTotalTime)
	assert.Equal(t, []string{"ASC", "MIN", "<"}, []string{dir, best, better})

	dir, best, better = ordering(leaderboard.MetricScore)
	assert.Equal(t, []string{"DESC", "MAX", ">"}, []string{dir, best, better})
}

func TestFilterArgs(t *testing.T) {
	f := topic.Filter{
		Interest:     topic.Range{Low: 10, High: 90},
		Difficulty:   topic.Range{Low: 1, High: 4},
		ExcludeTitle: "Cat",
	}
	args := filterArgs(f, 100, 140)
	require.Len(t, args, 7)
	assert.Equal(t, []any{10, 90, 1, 4, "Cat", int64(100), int64(140)}, args)
}

func TestMigrationsAreOrdered(t *testing.T) {
	migs := Migrations()
	for i, m := range migs {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.UpSQL)
	}
}
