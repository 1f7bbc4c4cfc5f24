package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankAmong_TiesShareTheBetterRank(t *testing.T) {
	scores := []int64{100, 100, 90}

	assert.Equal(t, Rank(1), RankAmong(scores, 100, HigherIsBetter))
	assert.Equal(t, Rank(3), RankAmong(scores, 90, HigherIsBetter))
	assert.Equal(t, Rank(1), RankAmong(scores, 150, HigherIsBetter))
	assert.Equal(t, Rank(4), RankAmong(scores, 10, HigherIsBetter))
}

func TestRankAmong_LowerIsBetter(t *testing.T) {
	lengths := []int64{3, 3, 5, 8}

	assert.Equal(t, Rank(1), RankAmong(lengths, 3, LowerIsBetter))
	assert.Equal(t, Rank(3), RankAmong(lengths, 5, LowerIsBetter))
	assert.Equal(t, Rank(4), RankAmong(lengths, 8, LowerIsBetter))
}

func TestRankAmong_Empty(t *testing.T) {
	assert.Equal(t, Rank(1), RankAmong(nil, 0, HigherIsBetter))
}

func TestMetricOrder(t *testing.T) {
	assert.Equal(t, HigherIsBetter, MetricScore.Order())
	assert.Equal(t, LowerIsBetter, MetricPathLength.Order())
	assert.Equal(t, LowerIsBetter, MetricTotalTime.Order())
	assert.Equal(t, HigherIsBetter, MetricStreakDays.Order())
	assert.Equal(t, HigherIsBetter, MetricGamesPlayed.Order())
	assert.Equal(t, HigherIsBetter, MetricPagesSeen.Order())
}

func TestScopeMetrics(t *testing.T) {
	assert.Equal(t, []Metric{MetricScore, MetricPathLength, MetricTotalTime}, ScopeDaily.Metrics())
	assert.Len(t, ScopeGeneral.Metrics(), 4)
	assert.True(t, MetricStreakDays.IsValidFor(ScopeGeneral))
	assert.False(t, MetricStreakDays.IsValidFor(ScopeDaily))
	assert.Equal(t, 20, ScopeDaily.TopSize())
	assert.Equal(t, 100, ScopeGeneral.TopSize())
}

func TestBest(t *testing.T) {
	v, ok := Best([]int64{4, 9, 2}, HigherIsBetter)
	assert.True(t, ok)
	assert.Equal(t, int64(9), v)

	v, ok = Best([]int64{4, 9, 2}, LowerIsBetter)
	assert.True(t, ok)
	assert.Equal(t, int64(2), v)

	_, ok = Best(nil, LowerIsBetter)
	assert.False(t, ok)
}

func TestSortEntries(t *testing.T) {
	entries := []Entry{
		{UserID: 3, Value: 50},
		{UserID: 1, Value: 70},
		{UserID: 2, Value: 50},
	}
	SortEntries(entries, HigherIsBetter)
	assert.Equal(t, []int64{1, 2, 3}, []int64{entries[0].UserID, entries[1].UserID, entries[2].UserID})

	SortEntries(entries, LowerIsBetter)
	assert.Equal(t, []int64{2, 3, 1}, []int64{entries[0].UserID, entries[1].UserID, entries[2].UserID})
}

func TestLeaderboardBoard(t *testing.T) {
	lb := &Leaderboard{Scope: ScopeDaily, Boards: []Board{{Metric: MetricScore}, {Metric: MetricTotalTime}}}
	assert.NotNil(t, lb.Board(MetricTotalTime))
	assert.Nil(t, lb.Board(MetricPagesSeen))
	assert.False(t, Unranked.Rank.IsRanked())
}
