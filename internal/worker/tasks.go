package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeAccrualProcess is the task type for accrual batch runs.
const TypeAccrualProcess = "accrual:process"

// AccrualProcessPayload is the JSON payload of an accrual:process task.
// Times are RFC3339. With previous_month set the handler resolves the window
// to the previous calendar month at processing time; otherwise empty bounds
// default to the current calendar month.
type AccrualProcessPayload struct {
	PeriodStart   string `json:"period_start,omitempty"`
	PeriodEnd     string `json:"period_end,omitempty"`
	DryRun        bool   `json:"dry_run,omitempty"`
	PreviousMonth bool   `json:"previous_month,omitempty"`
}

// Window resolves the effective batch bounds relative to now.
func (p AccrualProcessPayload) Window(now time.Time) (time.Time, time.Time, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	if p.PreviousMonth {
		return monthStart.AddDate(0, -1, 0), monthStart.Add(-time.Second), nil
	}

	start := monthStart
	end := monthStart.AddDate(0, 1, 0).Add(-time.Second)

	if p.PeriodStart != "" {
		t, err := time.Parse(time.RFC3339, p.PeriodStart)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid period_start: %w", err)
		}
		start = t.UTC()
	}
	if p.PeriodEnd != "" {
		t, err := time.Parse(time.RFC3339, p.PeriodEnd)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid period_end: %w", err)
		}
		end = t.UTC()
	}

	return start, end, nil
}

// NewAccrualProcessTask creates a task for an explicit batch window. Nil
// bounds fall back to the current calendar month at processing time.
func NewAccrualProcessTask(periodStart, periodEnd *time.Time, dryRun bool) (*asynq.Task, error) {
	p := AccrualProcessPayload{DryRun: dryRun}
	if periodStart != nil {
		p.PeriodStart = periodStart.UTC().Format(time.RFC3339)
	}
	if periodEnd != nil {
		p.PeriodEnd = periodEnd.UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TypeAccrualProcess, payload), nil
}

// NewMonthlyAccrualTask creates the scheduled month-close task.
func NewMonthlyAccrualTask() (*asynq.Task, error) {
	payload, err := json.Marshal(AccrualProcessPayload{PreviousMonth: true})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TypeAccrualProcess, payload), nil
}
