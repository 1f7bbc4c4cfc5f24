package command

import (
	"context"
	"strings"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/game"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/topic"
	"github.com/wikichallenge/wikichallenge-server/pkg/timeutil"
)

// VoteCommand is a feedback vote on one page.
type VoteCommand struct {
	Title string
	Vote  topic.Vote
}

// FeedbackHandler applies player votes to the catalog and to today's
// daily challenge. Neutral votes never reach the store.
type FeedbackHandler struct {
	topics         topic.Repository
	challenges     game.DailyChallengeRepository
	utcOffsetHours int
	now            Clock
}

// NewFeedbackHandler creates a handler.
func NewFeedbackHandler(
	topics topic.Repository,
	challenges game.DailyChallengeRepository,
	utcOffsetHours int,
	clock Clock,
) *FeedbackHandler {
	return &FeedbackHandler{
		topics:         topics,
		challenges:     challenges,
		utcOffsetHours: utcOffsetHours,
		now:            clock.orSystem(),
	}
}

// PathFun moves the page's interest by ±5.
func (h *FeedbackHandler) PathFun(ctx context.Context, cmd VoteCommand) error {
	delta := cmd.Vote.Delta(topic.InterestStep)
	if delta == 0 {
		return nil
	}
	if strings.TrimSpace(cmd.Title) == "" {
		return shared.ErrEmptyTitle
	}
	return h.topics.AdjustInterest(ctx, cmd.Title, delta)
}

// PathDifficulty moves the page's difficulty by ±1.
func (h *FeedbackHandler) PathDifficulty(ctx context.Context, cmd VoteCommand) error {
	delta := cmd.Vote.Delta(topic.DifficultyStep)
	if delta == 0 {
		return nil
	}
	if strings.TrimSpace(cmd.Title) == "" {
		return shared.ErrEmptyTitle
	}
	return h.topics.AdjustDifficulty(ctx, cmd.Title, delta)
}

// DailyChallengeFun moves today's challenge fun score by ±1.
func (h *FeedbackHandler) DailyChallengeFun(ctx context.Context, vote topic.Vote) error {
	delta := vote.Delta(topic.FunStep)
	if delta == 0 {
		return nil
	}
	return h.challenges.AdjustFun(ctx, timeutil.TodayKey(h.now(), h.utcOffsetHours), delta)
}
