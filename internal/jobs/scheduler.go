package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"imagecompare/internal/ids"
	"imagecompare/internal/models"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, job models.GenerationJob) (string, error)
}

type ProgressPublisher interface {
	Publish(ctx context.Context, event models.JobEvent) error
}

// Scheduler periodically enqueues a regeneration job so new images on disk
// become comparisons without an admin request.
type Scheduler struct {
	cron     *cron.Cron
	queue    Enqueuer
	progress ProgressPublisher
	schedule string
	adminID  int64
	log      zerolog.Logger
}

// NewScheduler builds a scheduler; progress may be nil.
func NewScheduler(queue Enqueuer, progress ProgressPublisher, schedule string, adminID int64, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		queue:    queue,
		progress: progress,
		schedule: schedule,
		adminID:  adminID,
		log:      log,
	}
}

// Start is a no-op when no schedule or system admin is configured.
func (s *Scheduler) Start() error {
	if s.queue == nil || s.schedule == "" || s.adminID == 0 {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.enqueueRegeneration); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("regeneration scheduler started")
	return nil
}

func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) enqueueRegeneration() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	job := models.GenerationJob{
		ID:        ids.New(),
		AdminID:   s.adminID,
		RequestID: "cron-" + ids.New(),
	}

	// Same order as an admin request: the job is visible as queued before a
	// worker can pick it up.
	if s.progress != nil {
		if err := s.progress.Publish(ctx, models.JobEvent{JobID: job.ID, Stage: models.JobStageQueued}); err != nil {
			s.log.Warn().Err(err).Str("job_id", job.ID).Msg("publish queued event failed")
		}
	}

	if _, err := s.queue.Enqueue(ctx, job); err != nil {
		s.log.Error().Err(err).Msg("enqueue regeneration failed")
		return
	}
	s.log.Info().Str("job_id", job.ID).Msg("regeneration enqueued")
}
