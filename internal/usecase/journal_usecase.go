package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/infrastructure/metrics"
)

// Journal entry sources, used as metric labels.
const (
	entrySourceManual  = "manual"
	entrySourceAuto    = "auto"
	entrySourceAccrual = "accrual"
)

// JournalUseCase records double-entry journal entries.
type JournalUseCase struct {
	txManager   TransactionManager
	journalRepo JournalRepository
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	registry    *RegistryUseCase
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewJournalUseCase creates a new JournalUseCase.
func NewJournalUseCase(
	txManager TransactionManager,
	journalRepo JournalRepository,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	registry *RegistryUseCase,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *JournalUseCase {
	return &JournalUseCase{
		txManager:   txManager,
		journalRepo: journalRepo,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		registry:    registry,
		idGen:       idGen,
		metrics:     metrics,
		logger:      logger,
	}
}

// EntryLineInput is one line of a journal entry referencing an account by
// its chart code. Exactly one of Debit and Credit must be positive.
type EntryLineInput struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// CreateEntryInput represents input for recording a journal entry.
type CreateEntryInput struct {
	TransactionRef string
	EntryDate      time.Time
	Reference      string
	Description    string
	Memo           string
	IsAdjusting    bool
	Lines          []EntryLineInput
}

// CreateEntry validates and records a balanced journal entry.
func (uc *JournalUseCase) CreateEntry(ctx context.Context, input CreateEntryInput) (*domain.JournalEntry, error) {
	entry, err := uc.buildEntry(ctx, input)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.JournalValidationFailures.Inc()
		}
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.persistEntry(txCtx, tx, entry, entrySourceManual); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.JournalEntriesCreated.WithLabelValues(entrySourceManual).Inc()
	}

	return entry, nil
}

// AutoGenerateFromTransaction derives a two-line entry from an ingested
// transaction record: debit the category's expense account, credit the
// payment-method account. Unusable input (non-positive amount, chart still
// missing the needed accounts after re-initialization) is a soft failure:
// a warning is logged and (nil, nil) returned so ingestion continues.
func (uc *JournalUseCase) AutoGenerateFromTransaction(ctx context.Context, rec domain.TransactionRecord) (*domain.JournalEntry, error) {
	amount := rec.EffectiveAmount()
	if !amount.IsPositive() {
		uc.logger.Warn().
			Str("transaction_ref", rec.Ref).
			Str("amount", amount.String()).
			Msg("skipping journal auto-generation: non-positive amount")
		return nil, nil
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	debitCode := domain.ExpenseAccountForCategory(rec.Category)
	creditCode := domain.AccountForPaymentMethod(rec.PaymentMethod)

	accounts, err := uc.registry.EnsureDefaultAccounts(ctx, debitCode, creditCode)
	if err != nil {
		if errors.Is(err, domain.ErrDefaultAccountMissing) {
			uc.logger.Warn().
				Str("transaction_ref", rec.Ref).
				Str("debit_code", debitCode).
				Str("credit_code", creditCode).
				Err(err).
				Msg("skipping journal auto-generation: account unavailable")
			return nil, nil
		}
		return nil, err
	}

	entryDate := rec.Date
	if entryDate.IsZero() {
		entryDate = time.Now().UTC()
	}

	now := time.Now().UTC()
	entryID := uc.idGen.Generate()
	entry := &domain.JournalEntry{
		ID:             entryID,
		TransactionRef: rec.Ref,
		EntryDate:      entryDate,
		Reference:      rec.Ref,
		Description:    fmt.Sprintf("Auto: %s - %s", rec.Vendor, rec.Category),
		Memo:           rec.Description,
		CreatedAt:      now,
		Lines: []domain.JournalLine{
			{
				ID:             uc.idGen.Generate(),
				JournalEntryID: entryID,
				AccountID:      accounts[debitCode].ID,
				AccountCode:    accounts[debitCode].Code,
				AccountName:    accounts[debitCode].Name,
				AccountType:    accounts[debitCode].Type,
				LineNo:         1,
				Debit:          amount,
				Credit:         decimal.Zero,
				Description:    rec.Vendor,
			},
			{
				ID:             uc.idGen.Generate(),
				JournalEntryID: entryID,
				AccountID:      accounts[creditCode].ID,
				AccountCode:    accounts[creditCode].Code,
				AccountName:    accounts[creditCode].Name,
				AccountType:    accounts[creditCode].Type,
				LineNo:         2,
				Debit:          decimal.Zero,
				Credit:         amount,
				Description:    rec.PaymentMethod,
			},
		},
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.persistEntry(txCtx, tx, entry, entrySourceAuto); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.JournalEntriesCreated.WithLabelValues(entrySourceAuto).Inc()
	}

	return entry, nil
}

// GetEntry retrieves an entry with its lines.
func (uc *JournalUseCase) GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return uc.journalRepo.GetByID(ctx, id)
}

// GetEntryByTransactionRef retrieves the earliest entry recorded for a
// transaction reference.
func (uc *JournalUseCase) GetEntryByTransactionRef(ctx context.Context, ref string) (*domain.JournalEntry, error) {
	return uc.journalRepo.GetByTransactionRef(ctx, ref)
}

// ListEntries lists entries newest first.
func (uc *JournalUseCase) ListEntries(ctx context.Context, limit, offset int) ([]*domain.JournalEntry, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.journalRepo.List(ctx, limit, offset)
}

// buildEntry resolves account codes and assembles a validated entry.
func (uc *JournalUseCase) buildEntry(ctx context.Context, input CreateEntryInput) (*domain.JournalEntry, error) {
	if len(input.Lines) == 0 {
		return nil, domain.ErrNoLines
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(input.Lines))
	for _, line := range input.Lines {
		codes = append(codes, line.AccountCode)
	}
	accounts, err := uc.accountRepo.GetByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}

	entryDate := input.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now().UTC()
	}

	entryID := uc.idGen.Generate()
	entry := &domain.JournalEntry{
		ID:             entryID,
		TransactionRef: input.TransactionRef,
		EntryDate:      entryDate,
		Reference:      input.Reference,
		Description:    input.Description,
		Memo:           input.Memo,
		IsAdjusting:    input.IsAdjusting,
		CreatedAt:      time.Now().UTC(),
	}
	for i, line := range input.Lines {
		account, ok := accounts[line.AccountCode]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, line.AccountCode)
		}
		entry.Lines = append(entry.Lines, domain.JournalLine{
			ID:             uc.idGen.Generate(),
			JournalEntryID: entryID,
			AccountID:      account.ID,
			AccountCode:    account.Code,
			AccountName:    account.Name,
			AccountType:    account.Type,
			LineNo:         i + 1,
			Debit:          line.Debit,
			Credit:         line.Credit,
			Description:    line.Description,
		})
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// persistEntry writes the entry and its outbox event inside tx.
func (uc *JournalUseCase) persistEntry(ctx context.Context, tx Transaction, entry *domain.JournalEntry, source string) error {
	if err := uc.journalRepo.Create(ctx, tx, entry); err != nil {
		return err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeJournalEntry,
		EventType:     domain.EventTypeJournalPosted,
		Payload: map[string]any{
			"journal_entry_id": entry.ID,
			"transaction_ref":  entry.TransactionRef,
			"total_debits":     entry.TotalDebits().String(),
			"total_credits":    entry.TotalCredits().String(),
			"source":           source,
		},
		CreatedAt: time.Now().UTC(),
		Published: false,
	}
	return uc.outboxRepo.Create(ctx, tx, event)
}
