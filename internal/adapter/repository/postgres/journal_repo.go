package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/usecase"
)

// JournalRepository implements usecase.JournalRepository. Entries and lines
// are insert-only; no update or delete statements exist here.
type JournalRepository struct {
	pool *pgxpool.Pool
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{pool: pool}
}

const journalEntryColumns = `id, transaction_ref, entry_date, reference, description, memo, is_adjusting, created_at`

const journalLineColumns = `l.id, l.journal_entry_id, l.account_id, l.line_no, l.debit, l.credit, l.description,
	a.code, a.name, a.account_type`

// Create inserts an entry together with all of its lines.
func (r *JournalRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	pgxTx := pgxTxFrom(tx)

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO journal_entries (id, transaction_ref, entry_date, reference, description, memo, is_adjusting, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID,
		textOrNull(entry.TransactionRef),
		timeToPgTimestamptz(entry.EntryDate),
		entry.Reference,
		entry.Description,
		entry.Memo,
		entry.IsAdjusting,
		timeToPgTimestamptz(entry.CreatedAt),
	)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, line := range entry.Lines {
		batch.Queue(`
			INSERT INTO journal_entry_lines (id, journal_entry_id, account_id, line_no, debit, credit, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			line.ID,
			line.JournalEntryID,
			line.AccountID,
			line.LineNo,
			decimalToNumeric(line.Debit),
			decimalToNumeric(line.Credit),
			line.Description,
		)
	}

	return pgxTx.SendBatch(ctx, batch).Close()
}

// GetByID retrieves an entry with its lines.
func (r *JournalRepository) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+journalEntryColumns+` FROM journal_entries WHERE id = $1`, id)

	entry, err := scanJournalEntry(row)
	if err != nil {
		return nil, err
	}

	entry.Lines, err = r.linesFor(ctx, entry.ID)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// GetByTransactionRef retrieves the earliest entry recorded for a
// transaction reference.
func (r *JournalRepository) GetByTransactionRef(ctx context.Context, ref string) (*domain.JournalEntry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+journalEntryColumns+` FROM journal_entries
		 WHERE transaction_ref = $1
		 ORDER BY created_at, id
		 LIMIT 1`, ref)

	entry, err := scanJournalEntry(row)
	if err != nil {
		return nil, err
	}

	entry.Lines, err = r.linesFor(ctx, entry.ID)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// List retrieves entries newest first, each with its lines.
func (r *JournalRepository) List(ctx context.Context, limit, offset int) ([]*domain.JournalEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+journalEntryColumns+` FROM journal_entries
		 ORDER BY entry_date DESC, created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		entry, err := scanJournalEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}

	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}

	lineRows, err := r.pool.Query(ctx,
		`SELECT `+journalLineColumns+` FROM journal_entry_lines l
		 JOIN accounts a ON a.id = l.account_id
		 WHERE l.journal_entry_id = ANY($1)
		 ORDER BY l.journal_entry_id, l.line_no`, ids)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	byEntry := make(map[string][]domain.JournalLine, len(entries))
	for lineRows.Next() {
		line, err := scanJournalLine(lineRows)
		if err != nil {
			return nil, err
		}
		byEntry[line.JournalEntryID] = append(byEntry[line.JournalEntryID], line)
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	for _, entry := range entries {
		entry.Lines = byEntry[entry.ID]
	}

	return entries, nil
}

func (r *JournalRepository) linesFor(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+journalLineColumns+` FROM journal_entry_lines l
		 JOIN accounts a ON a.id = l.account_id
		 WHERE l.journal_entry_id = $1
		 ORDER BY l.line_no`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.JournalLine
	for rows.Next() {
		line, err := scanJournalLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

func scanJournalEntry(row pgx.Row) (*domain.JournalEntry, error) {
	var (
		entry          domain.JournalEntry
		transactionRef pgtype.Text
		entryDate      pgtype.Timestamptz
		createdAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&entry.ID,
		&transactionRef,
		&entryDate,
		&entry.Reference,
		&entry.Description,
		&entry.Memo,
		&entry.IsAdjusting,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJournalEntryNotFound
		}

		return nil, err
	}

	entry.TransactionRef = textValue(transactionRef)
	entry.EntryDate = entryDate.Time
	entry.CreatedAt = createdAt.Time

	return &entry, nil
}

func scanJournalLine(row pgx.Row) (domain.JournalLine, error) {
	var (
		line        domain.JournalLine
		debit       pgtype.Numeric
		credit      pgtype.Numeric
		accountType string
	)

	err := row.Scan(
		&line.ID,
		&line.JournalEntryID,
		&line.AccountID,
		&line.LineNo,
		&debit,
		&credit,
		&line.Description,
		&line.AccountCode,
		&line.AccountName,
		&accountType,
	)
	if err != nil {
		return domain.JournalLine{}, err
	}

	line.Debit = numericToDecimal(debit)
	line.Credit = numericToDecimal(credit)
	line.AccountType = domain.AccountType(accountType)

	return line, nil
}
