package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
)

// AccountRepository defines data access for chart-of-accounts entries.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	SetParent(ctx context.Context, tx Transaction, id, parentID string, updatedAt time.Time) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByCode(ctx context.Context, code string) (*domain.Account, error)
	GetByCodes(ctx context.Context, codes []string) (map[string]*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
}

// JournalRepository defines data access for journal entries and their lines.
// Entries are insert-only; there are no update or delete operations.
type JournalRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	GetByID(ctx context.Context, id string) (*domain.JournalEntry, error)
	// GetByTransactionRef returns the earliest entry recorded for the ref.
	GetByTransactionRef(ctx context.Context, ref string) (*domain.JournalEntry, error)
	List(ctx context.Context, limit, offset int) ([]*domain.JournalEntry, error)
}

// BalanceRow carries the raw debit/credit sums for one account.
type BalanceRow struct {
	AccountID string
	Code      string
	Name      string
	Type      domain.AccountType
	Debits    decimal.Decimal
	Credits   decimal.Decimal
}

// ReportingRepository defines ledger-wide aggregation queries. All report
// figures derive from these sums at read time.
type ReportingRepository interface {
	AccountTotals(ctx context.Context) ([]BalanceRow, error)
	AccountTotalsByCode(ctx context.Context, code string) (*BalanceRow, error)
	LedgerTotals(ctx context.Context) (totalDebits, totalCredits decimal.Decimal, err error)
}

// ClaimFilter narrows claim right listings; zero values match everything.
type ClaimFilter struct {
	Type   domain.ClaimType
	Status domain.ClaimStatus
}

// ClaimRightRepository defines data access for claim rights.
type ClaimRightRepository interface {
	Create(ctx context.Context, tx Transaction, claim *domain.ClaimRight) error
	GetByID(ctx context.Context, id string) (*domain.ClaimRight, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.ClaimRight, error)
	List(ctx context.Context, filter ClaimFilter, limit, offset int) ([]*domain.ClaimRight, error)
	// UpdateAmounts persists amortized/remaining amounts and status.
	UpdateAmounts(ctx context.Context, tx Transaction, claim *domain.ClaimRight) error
	Cancel(ctx context.Context, tx Transaction, id, reason string, cancelledAt time.Time) error
	CountByStatus(ctx context.Context) (map[domain.ClaimStatus]int, error)
	// ActiveTotalsByType sums total/remaining amounts of active claims per type.
	ActiveTotalsByType(ctx context.Context) (map[domain.ClaimType]ClaimTotals, error)
}

// ClaimTotals aggregates active claims of one type.
type ClaimTotals struct {
	Count           int
	TotalAmount     decimal.Decimal
	RemainingAmount decimal.Decimal
}

// AmortizationRepository defines data access for schedules and their entries.
type AmortizationRepository interface {
	// CreateSchedule persists the schedule together with its entries.
	CreateSchedule(ctx context.Context, tx Transaction, schedule *domain.AmortizationSchedule) error
	GetScheduleByClaim(ctx context.Context, claimRightID string) (*domain.AmortizationSchedule, error)
	GetEntry(ctx context.Context, id string) (*domain.AmortizationEntry, error)
	// SelectPending returns PENDING entries of active claims whose period
	// overlaps [periodStart, periodEnd], ordered by period start and number.
	SelectPending(ctx context.Context, periodStart, periodEnd time.Time) ([]*domain.AmortizationEntry, error)
	// MarkPosted flips an entry PENDING->POSTED and records the realizing
	// journal entry. Returns false when the entry was no longer PENDING.
	MarkPosted(ctx context.Context, tx Transaction, entryID, journalEntryID string, postedAt time.Time) (bool, error)
	// SkipPending flips all PENDING entries of a claim to SKIPPED and
	// returns how many were affected.
	SkipPending(ctx context.Context, tx Transaction, claimRightID string) (int, error)
	// PendingStats counts PENDING entries of active claims due on or before
	// asOf, with their summed amount.
	PendingStats(ctx context.Context, asOf time.Time) (int, decimal.Decimal, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Locker guards batch runs against concurrent execution. Acquire returns
// false when another holder owns the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Retrier re-runs an operation on transient storage failures (deadlocks,
// serialization conflicts). Permanent failures return immediately.
type Retrier interface {
	Do(ctx context.Context, operation func() error) error
}
