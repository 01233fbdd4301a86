package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/usecase"
)

// ClaimRightRepository implements usecase.ClaimRightRepository.
type ClaimRightRepository struct {
	pool *pgxpool.Pool
}

// NewClaimRightRepository creates a new ClaimRightRepository.
func NewClaimRightRepository(pool *pgxpool.Pool) *ClaimRightRepository {
	return &ClaimRightRepository{pool: pool}
}

const claimColumns = `id, transaction_ref, claim_type, description, category,
	total_amount, remaining_amount, amortized_amount, start_date, end_date,
	frequency, status, is_probable, is_measurable, cancelled_at,
	cancellation_reason, created_at, updated_at`

// Create inserts a new claim right within a transaction.
func (r *ClaimRightRepository) Create(ctx context.Context, tx usecase.Transaction, claim *domain.ClaimRight) error {
	pgxTx := pgxTxFrom(tx)

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO claim_rights (id, transaction_ref, claim_type, description, category,
			total_amount, remaining_amount, amortized_amount, start_date, end_date,
			frequency, status, is_probable, is_measurable, cancellation_reason,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		claim.ID,
		textOrNull(claim.TransactionRef),
		string(claim.Type),
		claim.Description,
		claim.Category,
		decimalToNumeric(claim.TotalAmount),
		decimalToNumeric(claim.RemainingAmount),
		decimalToNumeric(claim.AmortizedAmount),
		timeToPgTimestamptz(claim.StartDate),
		timeToPgTimestamptz(claim.EndDate),
		string(claim.Frequency),
		string(claim.Status),
		claim.IsProbable,
		claim.IsMeasurable,
		claim.CancellationReason,
		timeToPgTimestamptz(claim.CreatedAt),
		timeToPgTimestamptz(claim.UpdatedAt),
	)

	return err
}

// GetByID retrieves a claim right by ID.
func (r *ClaimRightRepository) GetByID(ctx context.Context, id string) (*domain.ClaimRight, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+claimColumns+` FROM claim_rights WHERE id = $1`, id)

	return scanClaimRight(row)
}

// GetByIDForUpdate retrieves a claim right with a FOR UPDATE lock.
func (r *ClaimRightRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ClaimRight, error) {
	pgxTx := pgxTxFrom(tx)

	row := pgxTx.QueryRow(ctx,
		`SELECT `+claimColumns+` FROM claim_rights WHERE id = $1 FOR UPDATE`, id)

	return scanClaimRight(row)
}

// List retrieves claim rights newest first, optionally narrowed by type and
// status.
func (r *ClaimRightRepository) List(ctx context.Context, filter usecase.ClaimFilter, limit, offset int) ([]*domain.ClaimRight, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+claimColumns+` FROM claim_rights
		 WHERE ($1 = '' OR claim_type = $1)
		   AND ($2 = '' OR status = $2)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3 OFFSET $4`,
		string(filter.Type), string(filter.Status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []*domain.ClaimRight
	for rows.Next() {
		claim, err := scanClaimRight(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}

	return claims, rows.Err()
}

// UpdateAmounts persists amortized/remaining amounts and status within a
// transaction.
func (r *ClaimRightRepository) UpdateAmounts(ctx context.Context, tx usecase.Transaction, claim *domain.ClaimRight) error {
	pgxTx := pgxTxFrom(tx)

	tag, err := pgxTx.Exec(ctx, `
		UPDATE claim_rights
		SET amortized_amount = $2, remaining_amount = $3, status = $4, updated_at = $5
		WHERE id = $1`,
		claim.ID,
		decimalToNumeric(claim.AmortizedAmount),
		decimalToNumeric(claim.RemainingAmount),
		string(claim.Status),
		timeToPgTimestamptz(claim.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClaimRightNotFound
	}

	return nil
}

// Cancel marks a claim right cancelled within a transaction.
func (r *ClaimRightRepository) Cancel(ctx context.Context, tx usecase.Transaction, id, reason string, cancelledAt time.Time) error {
	pgxTx := pgxTxFrom(tx)

	tag, err := pgxTx.Exec(ctx, `
		UPDATE claim_rights
		SET status = $2, cancelled_at = $3, cancellation_reason = $4, updated_at = $3
		WHERE id = $1`,
		id,
		string(domain.ClaimStatusCancelled),
		timeToPgTimestamptz(cancelledAt),
		reason,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClaimRightNotFound
	}

	return nil
}

// CountByStatus counts claim rights grouped by status.
func (r *ClaimRightRepository) CountByStatus(ctx context.Context) (map[domain.ClaimStatus]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM claim_rights GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ClaimStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[domain.ClaimStatus(status)] = count
	}

	return counts, rows.Err()
}

// ActiveTotalsByType sums total and remaining amounts of active claims per
// claim type.
func (r *ClaimRightRepository) ActiveTotalsByType(ctx context.Context) (map[domain.ClaimType]usecase.ClaimTotals, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT claim_type, COUNT(*),
		       COALESCE(SUM(total_amount), 0),
		       COALESCE(SUM(remaining_amount), 0)
		FROM claim_rights
		WHERE status = $1
		GROUP BY claim_type`,
		string(domain.ClaimStatusActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[domain.ClaimType]usecase.ClaimTotals)
	for rows.Next() {
		var (
			claimType string
			count     int
			total     pgtype.Numeric
			remaining pgtype.Numeric
		)
		if err := rows.Scan(&claimType, &count, &total, &remaining); err != nil {
			return nil, err
		}
		totals[domain.ClaimType(claimType)] = usecase.ClaimTotals{
			Count:           count,
			TotalAmount:     numericToDecimal(total),
			RemainingAmount: numericToDecimal(remaining),
		}
	}

	return totals, rows.Err()
}

func scanClaimRight(row pgx.Row) (*domain.ClaimRight, error) {
	var (
		claim          domain.ClaimRight
		transactionRef pgtype.Text
		claimType      string
		frequency      string
		status         string
		total          pgtype.Numeric
		remaining      pgtype.Numeric
		amortized      pgtype.Numeric
		startDate      pgtype.Timestamptz
		endDate        pgtype.Timestamptz
		cancelledAt    pgtype.Timestamptz
		createdAt      pgtype.Timestamptz
		updatedAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&claim.ID,
		&transactionRef,
		&claimType,
		&claim.Description,
		&claim.Category,
		&total,
		&remaining,
		&amortized,
		&startDate,
		&endDate,
		&frequency,
		&status,
		&claim.IsProbable,
		&claim.IsMeasurable,
		&cancelledAt,
		&claim.CancellationReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClaimRightNotFound
		}

		return nil, err
	}

	claim.TransactionRef = textValue(transactionRef)
	claim.Type = domain.ClaimType(claimType)
	claim.Frequency = domain.Frequency(frequency)
	claim.Status = domain.ClaimStatus(status)
	claim.TotalAmount = numericToDecimal(total)
	claim.RemainingAmount = numericToDecimal(remaining)
	claim.AmortizedAmount = numericToDecimal(amortized)
	claim.StartDate = startDate.Time
	claim.EndDate = endDate.Time
	claim.CancelledAt = timestamptzPtr(cancelledAt)
	claim.CreatedAt = createdAt.Time
	claim.UpdatedAt = updatedAt.Time

	return &claim, nil
}
