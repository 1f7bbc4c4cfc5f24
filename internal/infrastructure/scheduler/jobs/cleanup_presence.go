package jobs

import (
	"context"

	"github.com/wikichallenge/wikichallenge-server/pkg/logger"
)

// StaleCleaner removes presence entries left behind by dead connections.
type StaleCleaner interface {
	CleanupStale(ctx context.Context) (int64, error)
}

// CleanupPresenceJob prunes the shared presence set.
type CleanupPresenceJob struct {
	presence StaleCleaner
	log      *logger.Logger
}

// NewCleanupPresenceJob creates the job.
func NewCleanupPresenceJob(presence StaleCleaner, log *logger.Logger) *CleanupPresenceJob {
	if log == nil {
		log = logger.Nop()
	}
	return &CleanupPresenceJob{presence: presence, log: log.Named("cleanup_presence")}
}

// Name returns the job name.
func (j *CleanupPresenceJob) Name() string { return "cleanup_presence" }

// Description returns the job description.
func (j *CleanupPresenceJob) Description() string {
	return "Drops connections whose heartbeat expired"
}

// Run executes the job.
func (j *CleanupPresenceJob) Run(ctx context.Context) error {
	n, err := j.presence.CleanupStale(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		j.log.Info("stale connections removed", logger.Int64("count", n))
	}
	return nil
}
