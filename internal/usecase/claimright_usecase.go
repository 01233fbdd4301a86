package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/infrastructure/metrics"
)

// ClaimRightUseCase manages prepaid-expense and deferred-revenue claims and
// their amortization schedules.
type ClaimRightUseCase struct {
	txManager  TransactionManager
	claimRepo  ClaimRightRepository
	amortRepo  AmortizationRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewClaimRightUseCase creates a new ClaimRightUseCase.
func NewClaimRightUseCase(
	txManager TransactionManager,
	claimRepo ClaimRightRepository,
	amortRepo AmortizationRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *ClaimRightUseCase {
	return &ClaimRightUseCase{
		txManager:  txManager,
		claimRepo:  claimRepo,
		amortRepo:  amortRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		metrics:    metrics,
		logger:     logger,
	}
}

// Classification is the outcome of the claim heuristic.
type Classification struct {
	IsClaim bool             `json:"isClaim"`
	Type    domain.ClaimType `json:"type,omitempty"`
	Reason  string           `json:"reason,omitempty"`
}

// Classify decides whether transaction text describes a claim right.
func (uc *ClaimRightUseCase) Classify(text, category, vendor, paymentMethod string, amount decimal.Decimal) Classification {
	claimType, reason, ok := domain.ClassifyClaim(text, category, vendor, paymentMethod, amount)
	return Classification{IsClaim: ok, Type: claimType, Reason: reason}
}

// CreateClaimInput represents input for creating a claim right.
type CreateClaimInput struct {
	Type           domain.ClaimType
	TotalAmount    decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
	Frequency      domain.Frequency
	Description    string
	Category       string
	TransactionRef string
}

// Create validates and persists a claim right and generates its
// amortization schedule, all in one transaction. The amount must be
// positive (measurable); probability is assumed.
func (uc *ClaimRightUseCase) Create(ctx context.Context, input CreateClaimInput) (*domain.ClaimRight, error) {
	now := time.Now().UTC()
	claim := &domain.ClaimRight{
		ID:              uc.idGen.Generate(),
		TransactionRef:  input.TransactionRef,
		Type:            input.Type,
		Description:     input.Description,
		Category:        input.Category,
		TotalAmount:     input.TotalAmount,
		RemainingAmount: input.TotalAmount,
		AmortizedAmount: decimal.Zero,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		Frequency:       input.Frequency,
		Status:          domain.ClaimStatusActive,
		IsProbable:      true,
		IsMeasurable:    input.TotalAmount.IsPositive(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := claim.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateAmount(claim.TotalAmount); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(claim.Description); err != nil {
		return nil, err
	}

	schedule, err := uc.buildSchedule(claim, now)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.claimRepo.Create(txCtx, tx, claim); err != nil {
		return nil, err
	}
	if err := uc.amortRepo.CreateSchedule(txCtx, tx, schedule); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   claim.ID,
		AggregateType: domain.AggregateTypeClaimRight,
		EventType:     domain.EventTypeClaimRightCreated,
		Payload: map[string]any{
			"claim_right_id": claim.ID,
			"claim_type":     string(claim.Type),
			"total_amount":   claim.TotalAmount.String(),
			"periods":        schedule.TotalPeriods,
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ClaimRightsCreated.WithLabelValues(string(claim.Type)).Inc()
	}
	uc.logger.Info().
		Str("claim_right_id", claim.ID).
		Str("claim_type", string(claim.Type)).
		Str("total_amount", claim.TotalAmount.String()).
		Int("periods", schedule.TotalPeriods).
		Msg("claim right created")

	return claim, nil
}

// GenerateSchedule builds and persists the amortization schedule for a
// claim that does not have one yet. A claim's schedule is generated exactly
// once: if one already exists it is returned unchanged.
func (uc *ClaimRightUseCase) GenerateSchedule(ctx context.Context, claimRightID string) (*domain.AmortizationSchedule, error) {
	existing, err := uc.amortRepo.GetScheduleByClaim(ctx, claimRightID)
	if err == nil {
		uc.logger.Warn().
			Str("claim_right_id", claimRightID).
			Msg("schedule already generated, returning existing")
		return existing, nil
	}
	if !errors.Is(err, domain.ErrScheduleNotFound) {
		return nil, err
	}

	claim, err := uc.claimRepo.GetByID(ctx, claimRightID)
	if err != nil {
		return nil, err
	}

	schedule, err := uc.buildSchedule(claim, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.amortRepo.CreateSchedule(txCtx, tx, schedule); err != nil {
		return nil, err
	}
	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return schedule, nil
}

// Get retrieves a claim right by ID.
func (uc *ClaimRightUseCase) Get(ctx context.Context, id string) (*domain.ClaimRight, error) {
	return uc.claimRepo.GetByID(ctx, id)
}

// GetWithSchedule retrieves a claim right together with its schedule and
// entries. A claim without a schedule returns a nil schedule.
func (uc *ClaimRightUseCase) GetWithSchedule(ctx context.Context, id string) (*domain.ClaimRight, *domain.AmortizationSchedule, error) {
	claim, err := uc.claimRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	schedule, err := uc.amortRepo.GetScheduleByClaim(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrScheduleNotFound) {
			return claim, nil, nil
		}
		return nil, nil, err
	}
	return claim, schedule, nil
}

// List lists claim rights newest first, optionally filtered.
func (uc *ClaimRightUseCase) List(ctx context.Context, filter ClaimFilter, limit, offset int) ([]*domain.ClaimRight, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.claimRepo.List(ctx, filter, limit, offset)
}

// Cancel cancels an active claim and flips its still-PENDING amortization
// entries to SKIPPED. Already-POSTED entries stand; posted accruals are
// sunk. Cancelling an already-cancelled claim is a no-op; a completed claim
// cannot be cancelled.
func (uc *ClaimRightUseCase) Cancel(ctx context.Context, id, reason string) (*domain.ClaimRight, error) {
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	claim, err := uc.claimRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return nil, err
	}

	switch claim.Status {
	case domain.ClaimStatusCancelled:
		// Idempotent: report the current state without touching anything.
		return claim, nil
	case domain.ClaimStatusCompleted:
		return nil, domain.ErrClaimNotActive
	}

	now := time.Now().UTC()
	if err := uc.claimRepo.Cancel(txCtx, tx, id, reason, now); err != nil {
		return nil, err
	}

	skipped, err := uc.amortRepo.SkipPending(txCtx, tx, id)
	if err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   claim.ID,
		AggregateType: domain.AggregateTypeClaimRight,
		EventType:     domain.EventTypeClaimRightCancelled,
		Payload: map[string]any{
			"claim_right_id":  claim.ID,
			"reason":          reason,
			"skipped_entries": skipped,
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	claim.Status = domain.ClaimStatusCancelled
	claim.CancelledAt = &now
	claim.CancellationReason = reason
	claim.UpdatedAt = now

	if uc.metrics != nil {
		uc.metrics.ClaimRightsCancelled.Inc()
	}
	uc.logger.Info().
		Str("claim_right_id", claim.ID).
		Int("skipped_entries", skipped).
		Msg("claim right cancelled")

	return claim, nil
}

// ClaimTypeSummary aggregates active claims of one type.
type ClaimTypeSummary struct {
	Count           int             `json:"count"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
}

// ClaimSummary is the portfolio view over all claim rights.
type ClaimSummary struct {
	AssetClaims     ClaimTypeSummary `json:"assetClaims"`
	LiabilityClaims ClaimTypeSummary `json:"liabilityClaims"`
	StatusCounts    map[string]int   `json:"statusCounts"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

// Summary aggregates active claims per type and counts claims by status.
func (uc *ClaimRightUseCase) Summary(ctx context.Context) (*ClaimSummary, error) {
	totals, err := uc.claimRepo.ActiveTotalsByType(ctx)
	if err != nil {
		return nil, err
	}
	statusCounts, err := uc.claimRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	summary := &ClaimSummary{
		StatusCounts: make(map[string]int, len(statusCounts)),
		GeneratedAt:  time.Now().UTC(),
	}
	for status, n := range statusCounts {
		summary.StatusCounts[string(status)] = n
	}
	if t, ok := totals[domain.ClaimTypeAsset]; ok {
		summary.AssetClaims = toTypeSummary(t)
	}
	if t, ok := totals[domain.ClaimTypeLiability]; ok {
		summary.LiabilityClaims = toTypeSummary(t)
	}
	return summary, nil
}

func toTypeSummary(t ClaimTotals) ClaimTypeSummary {
	return ClaimTypeSummary{
		Count:           t.Count,
		TotalAmount:     t.TotalAmount,
		RemainingAmount: t.RemainingAmount,
	}
}

// buildSchedule computes the plan for claim and assigns identifiers.
func (uc *ClaimRightUseCase) buildSchedule(claim *domain.ClaimRight, now time.Time) (*domain.AmortizationSchedule, error) {
	perPeriod, entries, err := domain.BuildSchedule(claim)
	if err != nil {
		return nil, err
	}

	schedule := &domain.AmortizationSchedule{
		ID:              uc.idGen.Generate(),
		ClaimRightID:    claim.ID,
		TotalPeriods:    len(entries),
		AmountPerPeriod: perPeriod,
		GeneratedAt:     now,
		Entries:         entries,
	}
	for i := range schedule.Entries {
		schedule.Entries[i].ID = uc.idGen.Generate()
		schedule.Entries[i].ScheduleID = schedule.ID
	}
	return schedule, nil
}
