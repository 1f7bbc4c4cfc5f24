// Package topic contains the page catalog the game draws its start and end
// pages from, the randomized sampler over it and the feedback votes that
// tune interest and difficulty.
package topic

import (
	"context"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
)

// Topic is one catalog entry. IDs are dense and only serve as a random
// partition key.
type Topic struct {
	ID         int64
	Title      string
	Interest   int
	Difficulty int
}

// Range is an inclusive integer range.
type Range struct {
	Low  int
	High int
}

// Contains reports whether v lies in [Low, High].
func (r Range) Contains(v int) bool {
	return v >= r.Low && v <= r.High
}

// Filter selects the topics a sample may return.
type Filter struct {
	Interest   Range
	Difficulty Range
	// ExcludeTitle is usually the other page of the pair. Empty excludes nothing.
	ExcludeTitle string
}

// Validate rejects inverted ranges.
func (f Filter) Validate() error {
	if f.Interest.Low > f.Interest.High || f.Difficulty.Low > f.Difficulty.High {
		return shared.ErrInvalidRange
	}
	return nil
}

// Matches reports whether t satisfies the filter.
func (f Filter) Matches(t Topic) bool {
	return f.Interest.Contains(t.Interest) &&
		f.Difficulty.Contains(t.Difficulty) &&
		(f.ExcludeTitle == "" || t.Title != f.ExcludeTitle)
}

// Pick is a sampled topic. LessAccurate marks a result of the wide fallback
// scan instead of a random window.
type Pick struct {
	Topic
	LessAccurate bool
}

// ══════════════════════════════════════════════════════════════════════════════
// FEEDBACK
// ══════════════════════════════════════════════════════════════════════════════

// Vote is a three-valued client vote.
type Vote int

const (
	VoteDown    Vote = 1
	VoteNeutral Vote = 2
	VoteUp      Vote = 3
)

// Adjustment steps per vote.
const (
	InterestStep   = 5
	DifficultyStep = 1
	FunStep        = 1
)

// Delta maps the vote onto -step, 0 or +step. Values outside 1..3 count as
// neutral.
func (v Vote) Delta(step int) int {
	switch v {
	case VoteDown:
		return -step
	case VoteUp:
		return step
	default:
		return 0
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// Finder runs the two lookups the sampler needs. Both return
// shared.ErrTopicNotFound when nothing matches.
type Finder interface {
	// FindInWindow returns one matching topic with fromID <= id <= toID.
	FindInWindow(ctx context.Context, f Filter, fromID, toID int64) (*Topic, error)

	// FindFrom returns the matching topic with the smallest id >= fromID.
	FindFrom(ctx context.Context, f Filter, fromID int64) (*Topic, error)
}

// Repository is the topic side of the data store.
type Repository interface {
	Finder

	// AdjustInterest adds delta to the interest of every topic titled title.
	AdjustInterest(ctx context.Context, title string, delta int) error

	// AdjustDifficulty adds delta to the difficulty of every topic titled title.
	AdjustDifficulty(ctx context.Context, title string, delta int) error
}

// Importer upserts catalog entries by id.
type Importer interface {
	Import(ctx context.Context, topics []Topic) error
}
