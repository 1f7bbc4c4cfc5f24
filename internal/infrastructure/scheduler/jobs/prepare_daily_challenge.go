// Package jobs contains the scheduled jobs of the game server.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/game"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/topic"
	"github.com/wikichallenge/wikichallenge-server/pkg/logger"
	"github.com/wikichallenge/wikichallenge-server/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PREPARE DAILY CHALLENGE JOB
// Makes sure today and tomorrow each have a challenge. Days that already
// have one are never touched, so several processes may run the job.
// ══════════════════════════════════════════════════════════════════════════════

// PageSampler draws a random catalog page.
type PageSampler interface {
	Sample(ctx context.Context, f topic.Filter) (topic.Pick, error)
}

// PrepareDailyChallengeConfig selects the pages of generated challenges.
type PrepareDailyChallengeConfig struct {
	Interest       topic.Range
	Difficulty     topic.Range
	UTCOffsetHours int
}

// DefaultPrepareDailyChallengeConfig returns sensible defaults.
func DefaultPrepareDailyChallengeConfig() PrepareDailyChallengeConfig {
	return PrepareDailyChallengeConfig{
		Interest:   topic.Range{Low: 60, High: 100},
		Difficulty: topic.Range{Low: 1, High: 4},
	}
}

// PrepareDailyChallengeJob generates missing daily challenges.
type PrepareDailyChallengeJob struct {
	sampler    PageSampler
	challenges game.DailyChallengeRepository
	config     PrepareDailyChallengeConfig
	now        func() time.Time
	log        *logger.Logger
}

// NewPrepareDailyChallengeJob creates the job. A nil clock means time.Now.
func NewPrepareDailyChallengeJob(
	sampler PageSampler,
	challenges game.DailyChallengeRepository,
	config PrepareDailyChallengeConfig,
	clock func() time.Time,
	log *logger.Logger,
) *PrepareDailyChallengeJob {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PrepareDailyChallengeJob{
		sampler:    sampler,
		challenges: challenges,
		config:     config,
		now:        clock,
		log:        log.Named("prepare_daily_challenge"),
	}
}

// Name returns the job name.
func (j *PrepareDailyChallengeJob) Name() string { return "prepare_daily_challenge" }

// Description returns the job description.
func (j *PrepareDailyChallengeJob) Description() string {
	return "Creates today's and tomorrow's daily challenge when missing"
}

// Run executes the job.
func (j *PrepareDailyChallengeJob) Run(ctx context.Context) error {
	now := j.now()
	for _, day := range []time.Time{
		timeutil.TodayKey(now, j.config.UTCOffsetHours),
		timeutil.Tomorrow(now, j.config.UTCOffsetHours),
	} {
		if err := j.ensure(ctx, day); err != nil {
			return err
		}
	}
	return nil
}

func (j *PrepareDailyChallengeJob) ensure(ctx context.Context, day time.Time) error {
	_, err := j.challenges.GetByDay(ctx, day)
	if err == nil {
		return nil
	}
	if !errors.Is(err, shared.ErrNoDailyChallenge) {
		return err
	}

	f := topic.Filter{Interest: j.config.Interest, Difficulty: j.config.Difficulty}
	start, err := j.sampler.Sample(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to sample start page: %w", err)
	}
	f.ExcludeTitle = start.Title
	end, err := j.sampler.Sample(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to sample end page: %w", err)
	}

	dc := &game.DailyChallenge{
		Day:        day,
		StartPage:  start.Title,
		EndPage:    end.Title,
		Difficulty: max(start.Difficulty, end.Difficulty),
	}
	if err := dc.Validate(); err != nil {
		return err
	}

	if err := j.challenges.Create(ctx, dc); err != nil {
		if errors.Is(err, shared.ErrDailyChallengeExists) {
			return nil
		}
		return err
	}

	j.log.Info("daily challenge prepared",
		logger.Time("day", day),
		logger.String("start", dc.StartPage),
		logger.String("end", dc.EndPage),
	)
	return nil
}
