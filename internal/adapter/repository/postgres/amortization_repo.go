package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/usecase"
)

// AmortizationRepository implements usecase.AmortizationRepository.
type AmortizationRepository struct {
	pool *pgxpool.Pool
}

// NewAmortizationRepository creates a new AmortizationRepository.
func NewAmortizationRepository(pool *pgxpool.Pool) *AmortizationRepository {
	return &AmortizationRepository{pool: pool}
}

const amortizationEntryColumns = `id, schedule_id, claim_right_id, period_number,
	period_start, period_end, amount, status, journal_entry_id, posted_at`

// CreateSchedule inserts a schedule together with all of its entries within
// a transaction.
func (r *AmortizationRepository) CreateSchedule(ctx context.Context, tx usecase.Transaction, schedule *domain.AmortizationSchedule) error {
	pgxTx := pgxTxFrom(tx)

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO amortization_schedules (id, claim_right_id, total_periods, amount_per_period, generated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		schedule.ID,
		schedule.ClaimRightID,
		schedule.TotalPeriods,
		decimalToNumeric(schedule.AmountPerPeriod),
		timeToPgTimestamptz(schedule.GeneratedAt),
	)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, entry := range schedule.Entries {
		batch.Queue(`
			INSERT INTO amortization_entries (id, schedule_id, claim_right_id, period_number,
				period_start, period_end, amount, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			entry.ID,
			entry.ScheduleID,
			entry.ClaimRightID,
			entry.PeriodNumber,
			timeToPgTimestamptz(entry.PeriodStart),
			timeToPgTimestamptz(entry.PeriodEnd),
			decimalToNumeric(entry.Amount),
			string(entry.Status),
		)
	}

	return pgxTx.SendBatch(ctx, batch).Close()
}

// GetScheduleByClaim retrieves a claim's schedule with its entries ordered
// by period number.
func (r *AmortizationRepository) GetScheduleByClaim(ctx context.Context, claimRightID string) (*domain.AmortizationSchedule, error) {
	var (
		schedule        domain.AmortizationSchedule
		amountPerPeriod pgtype.Numeric
		generatedAt     pgtype.Timestamptz
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, claim_right_id, total_periods, amount_per_period, generated_at
		FROM amortization_schedules
		WHERE claim_right_id = $1`, claimRightID).Scan(
		&schedule.ID,
		&schedule.ClaimRightID,
		&schedule.TotalPeriods,
		&amountPerPeriod,
		&generatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScheduleNotFound
		}

		return nil, err
	}

	schedule.AmountPerPeriod = numericToDecimal(amountPerPeriod)
	schedule.GeneratedAt = generatedAt.Time

	rows, err := r.pool.Query(ctx,
		`SELECT `+amortizationEntryColumns+` FROM amortization_entries
		 WHERE schedule_id = $1
		 ORDER BY period_number`, schedule.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanAmortizationEntry(rows)
		if err != nil {
			return nil, err
		}
		schedule.Entries = append(schedule.Entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &schedule, nil
}

// GetEntry retrieves a single amortization entry by ID.
func (r *AmortizationRepository) GetEntry(ctx context.Context, id string) (*domain.AmortizationEntry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+amortizationEntryColumns+` FROM amortization_entries WHERE id = $1`, id)

	entry, err := scanAmortizationEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	return entry, nil
}

// SelectPending retrieves PENDING entries of active claims whose period
// overlaps [periodStart, periodEnd], ordered by period start and number.
func (r *AmortizationRepository) SelectPending(ctx context.Context, periodStart, periodEnd time.Time) ([]*domain.AmortizationEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ae.id, ae.schedule_id, ae.claim_right_id, ae.period_number,
		       ae.period_start, ae.period_end, ae.amount, ae.status,
		       ae.journal_entry_id, ae.posted_at
		FROM amortization_entries ae
		JOIN claim_rights cr ON cr.id = ae.claim_right_id
		WHERE cr.status = $1
		  AND ae.status = $2
		  AND ae.period_start <= $4
		  AND ae.period_end >= $3
		ORDER BY ae.period_start, ae.period_number`,
		string(domain.ClaimStatusActive),
		string(domain.EntryStatusPending),
		timeToPgTimestamptz(periodStart),
		timeToPgTimestamptz(periodEnd),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.AmortizationEntry
	for rows.Next() {
		entry, err := scanAmortizationEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// MarkPosted flips an entry PENDING->POSTED and records the realizing
// journal entry. An empty journalEntryID stores NULL: zero-amount periods
// post without one. Returns false when the entry was no longer PENDING,
// which means a concurrent run already claimed it.
func (r *AmortizationRepository) MarkPosted(ctx context.Context, tx usecase.Transaction, entryID, journalEntryID string, postedAt time.Time) (bool, error) {
	pgxTx := pgxTxFrom(tx)

	tag, err := pgxTx.Exec(ctx, `
		UPDATE amortization_entries
		SET status = $2, journal_entry_id = $3, posted_at = $4
		WHERE id = $1 AND status = $5`,
		entryID,
		string(domain.EntryStatusPosted),
		textOrNull(journalEntryID),
		timeToPgTimestamptz(postedAt),
		string(domain.EntryStatusPending),
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// SkipPending flips all PENDING entries of a claim to SKIPPED and returns
// how many were affected.
func (r *AmortizationRepository) SkipPending(ctx context.Context, tx usecase.Transaction, claimRightID string) (int, error) {
	pgxTx := pgxTxFrom(tx)

	tag, err := pgxTx.Exec(ctx, `
		UPDATE amortization_entries
		SET status = $2
		WHERE claim_right_id = $1 AND status = $3`,
		claimRightID,
		string(domain.EntryStatusSkipped),
		string(domain.EntryStatusPending),
	)
	if err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}

// PendingStats counts PENDING entries of active claims whose period has
// begun by asOf, with their summed amount.
func (r *AmortizationRepository) PendingStats(ctx context.Context, asOf time.Time) (int, decimal.Decimal, error) {
	var (
		count int
		total pgtype.Numeric
	)

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(ae.amount), 0)
		FROM amortization_entries ae
		JOIN claim_rights cr ON cr.id = ae.claim_right_id
		WHERE cr.status = $1
		  AND ae.status = $2
		  AND ae.period_start <= $3`,
		string(domain.ClaimStatusActive),
		string(domain.EntryStatusPending),
		timeToPgTimestamptz(asOf),
	).Scan(&count, &total)
	if err != nil {
		return 0, decimal.Zero, err
	}

	return count, numericToDecimal(total), nil
}

func scanAmortizationEntry(row pgx.Row) (*domain.AmortizationEntry, error) {
	var (
		entry          domain.AmortizationEntry
		periodStart    pgtype.Timestamptz
		periodEnd      pgtype.Timestamptz
		amount         pgtype.Numeric
		status         string
		journalEntryID pgtype.Text
		postedAt       pgtype.Timestamptz
	)

	err := row.Scan(
		&entry.ID,
		&entry.ScheduleID,
		&entry.ClaimRightID,
		&entry.PeriodNumber,
		&periodStart,
		&periodEnd,
		&amount,
		&status,
		&journalEntryID,
		&postedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.PeriodStart = periodStart.Time
	entry.PeriodEnd = periodEnd.Time
	entry.Amount = numericToDecimal(amount)
	entry.Status = domain.EntryStatus(status)
	entry.JournalEntryID = textValue(journalEntryID)
	entry.PostedAt = timestamptzPtr(postedAt)

	return &entry, nil
}
