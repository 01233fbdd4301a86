package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/usecase"
)

// ReportingRepository implements usecase.ReportingRepository. Every figure
// is aggregated from journal lines at query time; no balance is ever read
// from a stored column.
type ReportingRepository struct {
	pool *pgxpool.Pool
}

// NewReportingRepository creates a new ReportingRepository.
func NewReportingRepository(pool *pgxpool.Pool) *ReportingRepository {
	return &ReportingRepository{pool: pool}
}

const accountTotalsQuery = `
	SELECT a.id, a.code, a.name, a.account_type,
	       COALESCE(SUM(l.debit), 0) AS debits,
	       COALESCE(SUM(l.credit), 0) AS credits
	FROM accounts a
	LEFT JOIN journal_entry_lines l ON l.account_id = a.id`

// AccountTotals returns raw debit and credit sums for every account,
// ordered by code.
func (r *ReportingRepository) AccountTotals(ctx context.Context) ([]usecase.BalanceRow, error) {
	rows, err := r.pool.Query(ctx,
		accountTotalsQuery+`
		GROUP BY a.id, a.code, a.name, a.account_type
		ORDER BY a.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []usecase.BalanceRow
	for rows.Next() {
		balance, err := scanBalanceRow(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, balance)
	}

	return balances, rows.Err()
}

// AccountTotalsByCode returns the raw debit and credit sums for one account.
func (r *ReportingRepository) AccountTotalsByCode(ctx context.Context, code string) (*usecase.BalanceRow, error) {
	row := r.pool.QueryRow(ctx,
		accountTotalsQuery+`
		WHERE a.code = $1
		GROUP BY a.id, a.code, a.name, a.account_type`, code)

	balance, err := scanBalanceRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return &balance, nil
}

// LedgerTotals sums all debits and credits across the ledger.
func (r *ReportingRepository) LedgerTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	var debits, credits pgtype.Numeric

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0)
		FROM journal_entry_lines`).Scan(&debits, &credits)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(debits), numericToDecimal(credits), nil
}

func scanBalanceRow(row pgx.Row) (usecase.BalanceRow, error) {
	var (
		balance     usecase.BalanceRow
		accountType string
		debits      pgtype.Numeric
		credits     pgtype.Numeric
	)

	err := row.Scan(
		&balance.AccountID,
		&balance.Code,
		&balance.Name,
		&accountType,
		&debits,
		&credits,
	)
	if err != nil {
		return usecase.BalanceRow{}, err
	}

	balance.Type = domain.AccountType(accountType)
	balance.Debits = numericToDecimal(debits)
	balance.Credits = numericToDecimal(credits)

	return balance, nil
}
