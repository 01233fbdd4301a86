package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClaimType distinguishes the two accrual directions.
type ClaimType string

const (
	// ClaimTypeAsset is a prepaid expense: cash already out, expense
	// recognized over time.
	ClaimTypeAsset ClaimType = "ASSET_CLAIM"
	// ClaimTypeLiability is deferred revenue: cash already in, revenue
	// recognized over time.
	ClaimTypeLiability ClaimType = "LIABILITY_CLAIM"
)

// Valid reports whether t is a known claim type.
func (t ClaimType) Valid() bool {
	return t == ClaimTypeAsset || t == ClaimTypeLiability
}

// ClaimStatus is the lifecycle state of a claim right.
type ClaimStatus string

const (
	ClaimStatusActive    ClaimStatus = "active"
	ClaimStatusCompleted ClaimStatus = "completed"
	ClaimStatusCancelled ClaimStatus = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s ClaimStatus) Terminal() bool {
	return s == ClaimStatusCompleted || s == ClaimStatusCancelled
}

// Frequency is the amortization cadence.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	return f == FrequencyMonthly || f == FrequencyQuarterly || f == FrequencyYearly
}

// EntryStatus is the posting state of an amortization entry.
type EntryStatus string

const (
	EntryStatusPending EntryStatus = "PENDING"
	EntryStatusPosted  EntryStatus = "POSTED"
	EntryStatusSkipped EntryStatus = "SKIPPED"
)

// ClaimRight is a prepaid expense or deferred revenue position amortized
// over its service period.
type ClaimRight struct {
	ID                 string
	TransactionRef     string
	Type               ClaimType
	Description        string
	Category           string
	TotalAmount        decimal.Decimal
	RemainingAmount    decimal.Decimal
	AmortizedAmount    decimal.Decimal
	StartDate          time.Time
	EndDate            time.Time
	Frequency          Frequency
	Status             ClaimStatus
	IsProbable         bool
	IsMeasurable       bool
	CancelledAt        *time.Time
	CancellationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate checks type, frequency, measurability and period ordering.
func (c *ClaimRight) Validate() error {
	if !c.Type.Valid() {
		return ErrInvalidClaimType
	}
	if !c.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if !c.TotalAmount.IsPositive() {
		return ErrNotMeasurable
	}
	if !c.EndDate.After(c.StartDate) {
		return ErrInvalidPeriod
	}
	return nil
}

// ApplyAmortization moves amount from remaining to amortized and reports
// whether the claim is now fully amortized (remaining within tolerance of
// zero). The caller persists the mutation.
func (c *ClaimRight) ApplyAmortization(amount decimal.Decimal) (completed bool) {
	c.AmortizedAmount = c.AmortizedAmount.Add(amount)
	c.RemainingAmount = c.RemainingAmount.Sub(amount)
	return c.RemainingAmount.Abs().LessThan(BalanceTolerance)
}

// AmortizationSchedule is the generated plan for a claim. A claim has at
// most one schedule; regeneration returns the existing one.
type AmortizationSchedule struct {
	ID              string
	ClaimRightID    string
	TotalPeriods    int
	AmountPerPeriod decimal.Decimal
	GeneratedAt     time.Time
	Entries         []AmortizationEntry
}

// AmortizationEntry is one period's slice of a schedule.
type AmortizationEntry struct {
	ID             string
	ScheduleID     string
	ClaimRightID   string
	PeriodNumber   int
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Amount         decimal.Decimal
	Status         EntryStatus
	JournalEntryID string
	PostedAt       *time.Time
}
