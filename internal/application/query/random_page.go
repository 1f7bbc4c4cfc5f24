// Package query contains the read side of the game server (CQRS queries):
// page sampling, the daily challenge and the leaderboards.
package query

import (
	"context"
	"errors"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/topic"
)

// PageSampler draws a random catalog page.
type PageSampler interface {
	Sample(ctx context.Context, f topic.Filter) (topic.Pick, error)
}

// GetRandomPageQuery selects a start or end page.
type GetRandomPageQuery struct {
	Interest   topic.Range
	Difficulty topic.Range
	// Exclude is the title of the pair's other page, if already chosen.
	Exclude string
}

// Filter converts the query to a sampler filter.
func (q GetRandomPageQuery) Filter() topic.Filter {
	return topic.Filter{Interest: q.Interest, Difficulty: q.Difficulty, ExcludeTitle: q.Exclude}
}

// GetRandomPageHandler serves getStartPage and getEndPage.
type GetRandomPageHandler struct {
	sampler PageSampler
}

// NewGetRandomPageHandler creates a handler.
func NewGetRandomPageHandler(sampler PageSampler) *GetRandomPageHandler {
	return &GetRandomPageHandler{sampler: sampler}
}

// Handle returns a page matching the query. Store failures surface as
// shared.ErrTopicNotFound with the cause attached, so clients see them the
// same way as an empty match.
func (h *GetRandomPageHandler) Handle(ctx context.Context, q GetRandomPageQuery) (topic.Pick, error) {
	f := q.Filter()
	if err := f.Validate(); err != nil {
		return topic.Pick{}, err
	}

	pick, err := h.sampler.Sample(ctx, f)
	if err != nil && !errors.Is(err, shared.ErrTopicNotFound) {
		return topic.Pick{}, shared.WrapError(shared.ErrTopicNotFound, err)
	}
	return pick, err
}
