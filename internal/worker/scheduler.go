package worker

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Scheduler enqueues the month-close accrual task on a cron spec.
type Scheduler struct {
	scheduler *asynq.Scheduler
}

// NewScheduler creates a scheduler with the monthly accrual entry
// registered. The cron spec comes from configuration and is evaluated in
// UTC.
func NewScheduler(redisURL, cronSpec string, logger zerolog.Logger) (*Scheduler, error) {
	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	task, err := NewMonthlyAccrualTask()
	if err != nil {
		return nil, err
	}

	entryID, err := scheduler.Register(cronSpec, task, asynq.Queue("low"))
	if err != nil {
		return nil, fmt.Errorf("failed to register accrual schedule: %w", err)
	}

	logger.Info().
		Str("entry_id", entryID).
		Str("cron", cronSpec).
		Msg("monthly accrual schedule registered")

	return &Scheduler{scheduler: scheduler}, nil
}

// Start begins the scheduler without blocking.
func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

// Shutdown stops the scheduler.
func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
