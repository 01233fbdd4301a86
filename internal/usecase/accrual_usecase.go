package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/infrastructure/metrics"
)

// AccrualUseCase posts pending amortization entries as adjusting journal
// entries, period by period.
type AccrualUseCase struct {
	txManager   TransactionManager
	claimRepo   ClaimRightRepository
	amortRepo   AmortizationRepository
	journalRepo JournalRepository
	outboxRepo  OutboxRepository
	registry    *RegistryUseCase
	retrier     Retrier
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewAccrualUseCase creates a new AccrualUseCase.
func NewAccrualUseCase(
	txManager TransactionManager,
	claimRepo ClaimRightRepository,
	amortRepo AmortizationRepository,
	journalRepo JournalRepository,
	outboxRepo OutboxRepository,
	registry *RegistryUseCase,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *AccrualUseCase {
	return &AccrualUseCase{
		txManager:   txManager,
		claimRepo:   claimRepo,
		amortRepo:   amortRepo,
		journalRepo: journalRepo,
		outboxRepo:  outboxRepo,
		registry:    registry,
		retrier:     retrier,
		idGen:       idGen,
		metrics:     metrics,
		logger:      logger,
	}
}

// ProcessPeriodInput bounds a batch run. Nil bounds default to the current
// calendar month.
type ProcessPeriodInput struct {
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	DryRun      bool
}

// PostedEntry describes one successfully posted amortization entry.
type PostedEntry struct {
	EntryID        string           `json:"entryId"`
	ClaimRightID   string           `json:"claimRightId"`
	Amount         decimal.Decimal  `json:"amount"`
	Type           domain.ClaimType `json:"type"`
	JournalEntryID string           `json:"journalEntryId,omitempty"`
}

// BatchError records one failed item of a batch run. It never aborts the
// batch.
type BatchError struct {
	EntryID      string `json:"entryId"`
	ClaimRightID string `json:"claimRightId"`
	Message      string `json:"error"`
}

// Error implements the error interface.
func (e BatchError) Error() string {
	return fmt.Sprintf("entry %s (claim %s): %s", e.EntryID, e.ClaimRightID, e.Message)
}

// AccrualResult summarizes a batch run. Counters cover successes only;
// failures are itemized in Errors.
type AccrualResult struct {
	PeriodStart      time.Time       `json:"periodStart"`
	PeriodEnd        time.Time       `json:"periodEnd"`
	EntriesProcessed int             `json:"entriesProcessed"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	AssetClaims      int             `json:"assetClaims"`
	LiabilityClaims  int             `json:"liabilityClaims"`
	PostedEntries    []PostedEntry   `json:"postedEntries"`
	Errors           []BatchError    `json:"errors"`
	DryRun           bool            `json:"dryRun"`
}

// ProcessPeriod posts every PENDING amortization entry of an active claim
// whose period overlaps the batch window. Each entry runs in its own
// transaction; an item failure is recorded and the batch continues. With
// DryRun set the same selection and computation happen but nothing is
// written.
func (uc *AccrualUseCase) ProcessPeriod(ctx context.Context, input ProcessPeriodInput) (*AccrualResult, error) {
	periodStart, periodEnd := resolvePeriod(input, time.Now().UTC())
	started := time.Now()

	result := &AccrualResult{
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		TotalAmount:   decimal.Zero,
		PostedEntries: []PostedEntry{},
		Errors:        []BatchError{},
		DryRun:        input.DryRun,
	}

	entries, err := uc.amortRepo.SelectPending(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		var posted *PostedEntry
		op := func() error {
			var opErr error
			posted, opErr = uc.postEntry(ctx, entry, input.DryRun)
			return opErr
		}
		if err := uc.retrier.Do(ctx, op); err != nil {
			result.Errors = append(result.Errors, BatchError{
				EntryID:      entry.ID,
				ClaimRightID: entry.ClaimRightID,
				Message:      err.Error(),
			})
			if uc.metrics != nil {
				uc.metrics.AccrualEntryErrors.Inc()
			}
			uc.logger.Warn().
				Str("entry_id", entry.ID).
				Str("claim_right_id", entry.ClaimRightID).
				Err(err).
				Msg("accrual entry failed, batch continues")
			continue
		}
		if posted == nil {
			// Another run won the PENDING->POSTED race; nothing to record.
			continue
		}

		result.EntriesProcessed++
		result.TotalAmount = result.TotalAmount.Add(posted.Amount)
		if posted.Type == domain.ClaimTypeAsset {
			result.AssetClaims++
		} else {
			result.LiabilityClaims++
		}
		result.PostedEntries = append(result.PostedEntries, *posted)
	}

	if uc.metrics != nil {
		uc.metrics.AccrualBatchDuration.
			WithLabelValues(fmt.Sprintf("%t", input.DryRun)).
			Observe(time.Since(started).Seconds())
	}
	uc.logger.Info().
		Time("period_start", periodStart).
		Time("period_end", periodEnd).
		Int("entries_processed", result.EntriesProcessed).
		Int("errors", len(result.Errors)).
		Str("total_amount", result.TotalAmount.String()).
		Bool("dry_run", input.DryRun).
		Msg("accrual batch finished")

	return result, nil
}

// PendingAccruals reports pending amortization load as of a point in time.
type PendingAccruals struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	AsOf        time.Time       `json:"asOf"`
}

// PendingCount counts PENDING entries of active claims due on or before
// asOf (nil means now).
func (uc *AccrualUseCase) PendingCount(ctx context.Context, asOf *time.Time) (*PendingAccruals, error) {
	at := time.Now().UTC()
	if asOf != nil {
		at = asOf.UTC()
	}
	count, total, err := uc.amortRepo.PendingStats(ctx, at)
	if err != nil {
		return nil, err
	}
	return &PendingAccruals{Count: count, TotalAmount: total, AsOf: at}, nil
}

// postEntry posts one amortization entry in its own transaction. It returns
// (nil, nil) when the entry lost the PENDING->POSTED race to a concurrent
// run or was skipped by a cancellation in flight.
func (uc *AccrualUseCase) postEntry(ctx context.Context, entry *domain.AmortizationEntry, dryRun bool) (*PostedEntry, error) {
	claim, err := uc.claimRepo.GetByID(ctx, entry.ClaimRightID)
	if err != nil {
		return nil, err
	}
	if claim.Status != domain.ClaimStatusActive {
		return nil, nil
	}

	// A zero-amount period (subcent rounding on a tiny total) has nothing to
	// recognize; it is marked posted without a journal entry so the schedule
	// keeps draining.
	var journalEntry *domain.JournalEntry
	if !entry.Amount.IsZero() {
		debitCode, creditCode := accrualAccounts(claim)
		accounts, err := uc.registry.EnsureDefaultAccounts(ctx, debitCode, creditCode)
		if err != nil {
			return nil, err
		}
		journalEntry = uc.buildAmortizationEntry(entry, claim, accounts[debitCode], accounts[creditCode])
	}

	if dryRun {
		return &PostedEntry{
			EntryID:      entry.ID,
			ClaimRightID: claim.ID,
			Amount:       entry.Amount,
			Type:         claim.Type,
		}, nil
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	journalEntryID := ""
	if journalEntry != nil {
		if err := uc.journalRepo.Create(txCtx, tx, journalEntry); err != nil {
			return nil, err
		}
		journalEntryID = journalEntry.ID
	}

	now := time.Now().UTC()
	won, err := uc.amortRepo.MarkPosted(txCtx, tx, entry.ID, journalEntryID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		// No longer PENDING: posted by a concurrent run or skipped by a
		// cancellation. Roll everything back silently.
		return nil, nil
	}

	locked, err := uc.claimRepo.GetByIDForUpdate(txCtx, tx, claim.ID)
	if err != nil {
		return nil, err
	}
	completed := locked.ApplyAmortization(entry.Amount)
	if completed {
		locked.Status = domain.ClaimStatusCompleted
	}
	locked.UpdatedAt = now
	if err := uc.claimRepo.UpdateAmounts(txCtx, tx, locked); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   claim.ID,
		AggregateType: domain.AggregateTypeClaimRight,
		EventType:     domain.EventTypeAccrualEntryPosted,
		Payload: map[string]any{
			"entry_id":         entry.ID,
			"claim_right_id":   claim.ID,
			"journal_entry_id": journalEntryID,
			"period_number":    entry.PeriodNumber,
			"amount":           entry.Amount.String(),
			"claim_type":       string(claim.Type),
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if completed {
		completedEvent := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   claim.ID,
			AggregateType: domain.AggregateTypeClaimRight,
			EventType:     domain.EventTypeClaimRightCompleted,
			Payload: map[string]any{
				"claim_right_id":   claim.ID,
				"amortized_amount": locked.AmortizedAmount.String(),
			},
			CreatedAt: now,
			Published: false,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, completedEvent); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccrualEntriesPosted.WithLabelValues(string(claim.Type)).Inc()
		if journalEntry != nil {
			uc.metrics.JournalEntriesCreated.WithLabelValues(entrySourceAccrual).Inc()
		}
		if completed {
			uc.metrics.ClaimRightsCompleted.Inc()
		}
	}
	if completed {
		uc.logger.Info().
			Str("claim_right_id", claim.ID).
			Str("amortized_amount", locked.AmortizedAmount.String()).
			Msg("claim right fully amortized")
	}

	return &PostedEntry{
		EntryID:        entry.ID,
		ClaimRightID:   claim.ID,
		Amount:         entry.Amount,
		Type:           claim.Type,
		JournalEntryID: journalEntryID,
	}, nil
}

// buildAmortizationEntry assembles the adjusting journal entry realizing
// one amortization period.
func (uc *AccrualUseCase) buildAmortizationEntry(entry *domain.AmortizationEntry, claim *domain.ClaimRight, debitAccount, creditAccount *domain.Account) *domain.JournalEntry {
	entryID := uc.idGen.Generate()
	description := fmt.Sprintf("Amortization: %s (Period %d)", claim.Description, entry.PeriodNumber)
	memo := fmt.Sprintf(
		"Auto-generated by accrual engine for period %s to %s",
		entry.PeriodStart.Format("2006-01-02"),
		entry.PeriodEnd.Format("2006-01-02"),
	)

	return &domain.JournalEntry{
		ID:             entryID,
		TransactionRef: claim.TransactionRef,
		EntryDate:      entry.PeriodEnd,
		Reference:      fmt.Sprintf("AMORT-%s-%d", claim.ID, entry.PeriodNumber),
		Description:    description,
		Memo:           memo,
		IsAdjusting:    true,
		CreatedAt:      time.Now().UTC(),
		Lines: []domain.JournalLine{
			{
				ID:             uc.idGen.Generate(),
				JournalEntryID: entryID,
				AccountID:      debitAccount.ID,
				AccountCode:    debitAccount.Code,
				AccountName:    debitAccount.Name,
				AccountType:    debitAccount.Type,
				LineNo:         1,
				Debit:          entry.Amount,
				Credit:         decimal.Zero,
				Description:    description,
			},
			{
				ID:             uc.idGen.Generate(),
				JournalEntryID: entryID,
				AccountID:      creditAccount.ID,
				AccountCode:    creditAccount.Code,
				AccountName:    creditAccount.Name,
				AccountType:    creditAccount.Type,
				LineNo:         2,
				Debit:          decimal.Zero,
				Credit:         entry.Amount,
				Description:    description,
			},
		},
	}
}

// accrualAccounts resolves the debit/credit chart codes for a claim.
// ASSET_CLAIM: expense up, prepaid asset down. LIABILITY_CLAIM: deferred
// revenue down, revenue up (service revenue when the claim traces back to a
// transaction, sales revenue otherwise).
func accrualAccounts(claim *domain.ClaimRight) (debitCode, creditCode string) {
	if claim.Type == domain.ClaimTypeAsset {
		return domain.ExpenseAccountForCategory(claim.Category), domain.AccountCodePrepaidExpenses
	}
	if claim.TransactionRef != "" {
		return domain.AccountCodeDeferredRevenue, domain.AccountCodeServiceRevenue
	}
	return domain.AccountCodeDeferredRevenue, domain.AccountCodeSalesRevenue
}

// resolvePeriod applies current-calendar-month defaults to batch bounds.
func resolvePeriod(input ProcessPeriodInput, now time.Time) (time.Time, time.Time) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	periodStart := monthStart
	if input.PeriodStart != nil {
		periodStart = input.PeriodStart.UTC()
	}
	periodEnd := monthStart.AddDate(0, 1, 0).Add(-time.Second)
	if input.PeriodEnd != nil {
		periodEnd = input.PeriodEnd.UTC()
	}
	return periodStart, periodEnd
}
