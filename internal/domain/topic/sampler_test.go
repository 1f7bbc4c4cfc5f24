package topic

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
)

// catalogFinder answers the sampler's lookups from a slice sorted by id.
type catalogFinder struct {
	topics []Topic

	windowCalls int
	fromCalls   int

	missWindows bool
	failAfter   int // fail the n-th call (1-based) when > 0
}

func (c *catalogFinder) call() error {
	if c.failAfter > 0 && c.windowCalls+c.fromCalls == c.failAfter {
		return errors.New("connection reset")
	}
	return nil
}

func (c *catalogFinder) FindInWindow(_ context.Context, f Filter, fromID, toID int64) (*Topic, error) {
	c.windowCalls++
	if err := c.call(); err != nil {
		return nil, err
	}
	if c.missWindows {
		return nil, shared.ErrTopicNotFound
	}
	for i := range c.topics {
		t := c.topics[i]
		if t.ID >= fromID && t.ID <= toID && f.Matches(t) {
			return &t, nil
		}
	}
	return nil, shared.ErrTopicNotFound
}

func (c *catalogFinder) FindFrom(_ context.Context, f Filter, fromID int64) (*Topic, error) {
	c.fromCalls++
	if err := c.call(); err != nil {
		return nil, err
	}
	for i := range c.topics {
		t := c.topics[i]
		if t.ID >= fromID && f.Matches(t) {
			return &t, nil
		}
	}
	return nil, shared.ErrTopicNotFound
}

func denseCatalog(n int) []Topic {
	topics := make([]Topic, 0, n)
	for i := 1; i <= n; i++ {
		title := "B"
		if i%2 == 0 {
			title = "A"
		}
		topics = append(topics, Topic{
			ID:         int64(i),
			Title:      fmt.Sprintf("%s-%d", title, i%3),
			Interest:   i % 100,
			Difficulty: i % 10,
		})
	}
	return topics
}

func seeded() rand.Source { return rand.NewPCG(7, 11) }

func TestSampler_ReturnsMatchingTopicFromWindow(t *testing.T) {
	finder := &catalogFinder{topics: denseCatalog(2000)}
	s := NewSampler(finder, SamplerConfig{MinID: 1, MaxID: 2000, Attempts: 200, Window: 40}, seeded())

	f := Filter{
		Interest:   Range{Low: 10, High: 60},
		Difficulty: Range{Low: 2, High: 5},
	}

	for i := 0; i < 100; i++ {
		pick, err := s.Sample(context.Background(), f)
		require.NoError(t, err)
		assert.False(t, pick.LessAccurate)
		assert.True(t, f.Matches(pick.Topic), "pick %+v violates filter", pick.Topic)
	}
	assert.Zero(t, finder.fromCalls, "dense catalog never needs the fallback")
}

func TestSampler_NeverReturnsExcludedTitle(t *testing.T) {
	catalog := []Topic{}
	for i := int64(1); i <= 500; i++ {
		title := "Paris"
		if i%50 == 0 {
			title = fmt.Sprintf("Other %d", i)
		}
		catalog = append(catalog, Topic{ID: i, Title: title, Interest: 50, Difficulty: 5})
	}
	finder := &catalogFinder{topics: catalog}
	s := NewSampler(finder, SamplerConfig{MinID: 1, MaxID: 500, Attempts: 300, Window: 40}, seeded())

	f := Filter{
		Interest:     Range{Low: 0, High: 100},
		Difficulty:   Range{Low: 0, High: 10},
		ExcludeTitle: "Paris",
	}

	for i := 0; i < 50; i++ {
		pick, err := s.Sample(context.Background(), f)
		require.NoError(t, err)
		assert.NotEqual(t, "Paris", pick.Title)
	}
}

func TestSampler_FallbackRunsExactlyOnce(t *testing.T) {
	finder := &catalogFinder{
		topics:      []Topic{{ID: 100, Title: "Rome", Interest: 5, Difficulty: 5}},
		missWindows: true,
	}
	s := NewSampler(finder, SamplerConfig{MinID: 1, MaxID: 100, Attempts: 25, Window: 15}, seeded())

	pick, err := s.Sample(context.Background(), Filter{
		Interest:   Range{Low: 0, High: 10},
		Difficulty: Range{Low: 0, High: 10},
	})
	require.NoError(t, err)

	assert.True(t, pick.LessAccurate)
	assert.Equal(t, "Rome", pick.Title)
	assert.Equal(t, 25, finder.windowCalls)
	assert.Equal(t, 1, finder.fromCalls)
}

func TestSampler_FallbackMiss(t *testing.T) {
	finder := &catalogFinder{
		topics: []Topic{{ID: 10, Title: "Rome", Interest: 99, Difficulty: 5}},
	}
	s := NewSampler(finder, SamplerConfig{MinID: 1, MaxID: 100, Attempts: 10, Window: 5}, seeded())

	_, err := s.Sample(context.Background(), Filter{
		Interest:   Range{Low: 0, High: 10},
		Difficulty: Range{Low: 0, High: 10},
	})
	assert.ErrorIs(t, err, shared.ErrTopicNotFound)
	assert.Equal(t, 10, finder.windowCalls)
	assert.Equal(t, 1, finder.fromCalls)
}

func TestSampler_StoreErrorAborts(t *testing.T) {
	finder := &catalogFinder{topics: denseCatalog(100), missWindows: true, failAfter: 3}
	s := NewSampler(finder, SamplerConfig{MinID: 1, MaxID: 100, Attempts: 50, Window: 5}, seeded())

	_, err := s.Sample(context.Background(), Filter{Interest: Range{0, 100}, Difficulty: Range{0, 10}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrTopicNotFound)
	assert.Equal(t, 3, finder.windowCalls)
	assert.Zero(t, finder.fromCalls)
}

func TestSampler_ZeroAttemptsGoesStraightToFallback(t *testing.T) {
	finder := &catalogFinder{topics: denseCatalog(100)}
	s := NewSampler(finder, SamplerConfig{MinID: 1, MaxID: 50, Attempts: 0, Window: 5}, seeded())

	pick, err := s.Sample(context.Background(), Filter{Interest: Range{0, 100}, Difficulty: Range{0, 10}})
	require.NoError(t, err)
	assert.True(t, pick.LessAccurate)
	assert.Zero(t, finder.windowCalls)
}

func TestSampler_InvalidRange(t *testing.T) {
	finder := &catalogFinder{topics: denseCatalog(10)}
	s := NewSampler(finder, DefaultSamplerConfig(), nil)

	_, err := s.Sample(context.Background(), Filter{Interest: Range{Low: 9, High: 1}})
	assert.ErrorIs(t, err, shared.ErrInvalidRange)
	assert.Zero(t, finder.windowCalls)
}

func TestSampler_CancelledContext(t *testing.T) {
	finder := &catalogFinder{topics: denseCatalog(10)}
	s := NewSampler(finder, DefaultSamplerConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Sample(ctx, Filter{Interest: Range{0, 100}, Difficulty: Range{0, 10}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVoteDelta(t *testing.T) {
	tests := []struct {
		vote Vote
		want int
	}{
		{VoteDown, -InterestStep},
		{VoteNeutral, 0},
		{VoteUp, InterestStep},
		{Vote(0), 0},
		{Vote(7), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.vote.Delta(InterestStep), "vote %d", tt.vote)
	}
}
