package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/ledgerkeep/ledgerkeep/internal/usecase"
)

// AccrualHandler processes accrual:process tasks.
type AccrualHandler struct {
	accrual *usecase.AccrualUseCase
	locker  usecase.Locker
	lockTTL time.Duration
	logger  zerolog.Logger
}

// NewAccrualHandler creates a new AccrualHandler.
func NewAccrualHandler(accrual *usecase.AccrualUseCase, locker usecase.Locker, lockTTL time.Duration, logger zerolog.Logger) *AccrualHandler {
	return &AccrualHandler{
		accrual: accrual,
		locker:  locker,
		lockTTL: lockTTL,
		logger:  logger,
	}
}

// ProcessTask runs one accrual batch. Item failures are handled inside the
// batch and never fail the task; only infrastructure errors are returned so
// asynq retries the run.
func (h *AccrualHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload AccrualProcessPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal accrual payload: %v: %w", err, asynq.SkipRetry)
	}

	periodStart, periodEnd, err := payload.Window(time.Now().UTC())
	if err != nil {
		return fmt.Errorf("resolve accrual window: %v: %w", err, asynq.SkipRetry)
	}

	lockKey := fmt.Sprintf("accrual:run:%s:%s",
		periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"))

	acquired, err := h.locker.Acquire(ctx, lockKey, h.lockTTL)
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		h.logger.Info().
			Str("lock_key", lockKey).
			Msg("accrual run already in progress elsewhere, skipping")
		return nil
	}
	defer func() { _ = h.locker.Release(ctx, lockKey) }()

	result, err := h.accrual.ProcessPeriod(ctx, usecase.ProcessPeriodInput{
		PeriodStart: &periodStart,
		PeriodEnd:   &periodEnd,
		DryRun:      payload.DryRun,
	})
	if err != nil {
		return err
	}

	h.logger.Info().
		Time("period_start", periodStart).
		Time("period_end", periodEnd).
		Int("entries_processed", result.EntriesProcessed).
		Int("errors", len(result.Errors)).
		Bool("dry_run", payload.DryRun).
		Msg("accrual task finished")

	return nil
}
