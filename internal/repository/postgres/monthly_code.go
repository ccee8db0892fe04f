package postgres

import (
	"context"
	"time"

	"hardhat-gateway/internal/domain/code"
	apperrors "hardhat-gateway/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type MonthlyCodeRepository struct {
	db *DB
}

func NewMonthlyCodeRepository(db *DB) *MonthlyCodeRepository {
	return &MonthlyCodeRepository{db: db}
}

// Save upserts the code for (customer, month bucket). Reissuing within the
// same bucket replaces the previous hash and resets used, so the last issued
// code wins and any earlier one is permanently invalid.
func (r *MonthlyCodeRepository) Save(ctx context.Context, input code.SaveMonthlyCodeInput) error {
	query := `
		INSERT INTO monthly_codes (customer_id, month_key, code_hash, expires_at, used)
		VALUES ($1, $2, $3, $4, false)
		ON CONFLICT (customer_id, month_key)
		DO UPDATE SET code_hash = EXCLUDED.code_hash,
		              expires_at = EXCLUDED.expires_at,
		              used = false,
		              last_used_at = NULL,
		              created_at = NOW()
	`

	_, err := r.db.Pool.Exec(ctx, query, input.CustomerID, input.MonthKey, input.CodeHash, input.ExpiresAt)
	if err != nil {
		return apperrors.Storage("failed to save monthly code", err)
	}
	return nil
}

// FindActive returns the most recently created unused, unexpired code row for
// the customer behind the given email, or nil.
func (r *MonthlyCodeRepository) FindActive(ctx context.Context, email string) (*code.MonthlyCode, error) {
	query := `
		SELECT mc.id, mc.customer_id, mc.month_key, mc.code_hash, mc.expires_at,
		       mc.used, mc.last_used_at, mc.created_at
		FROM monthly_codes mc
		JOIN customers c ON c.id = mc.customer_id
		WHERE c.email = $1
		  AND mc.used = false
		  AND mc.expires_at > NOW()
		ORDER BY mc.created_at DESC
		LIMIT 1
	`

	mc := &code.MonthlyCode{}
	err := r.db.Pool.QueryRow(ctx, query, email).Scan(
		&mc.ID,
		&mc.CustomerID,
		&mc.MonthKey,
		&mc.CodeHash,
		&mc.ExpiresAt,
		&mc.Used,
		&mc.LastUsedAt,
		&mc.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, apperrors.Storage("failed to find active code", err)
	}

	return mc, nil
}

func (r *MonthlyCodeRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE monthly_codes SET last_used_at = $2 WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id, at)
	if err != nil {
		return apperrors.Storage("failed to record code use", err)
	}
	return nil
}

// MarkUsed flips used via a conditional update so concurrent redemptions
// cannot both win.
func (r *MonthlyCodeRepository) MarkUsed(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE monthly_codes SET used = true, last_used_at = NOW() WHERE id = $1 AND used = false`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return false, apperrors.Storage("failed to mark code used", err)
	}
	return result.RowsAffected() > 0, nil
}
