package postgres

import (
	"context"
	"fmt"

	"hardhat-gateway/internal/domain/code"
	apperrors "hardhat-gateway/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type CustomerRepository struct {
	db *DB
}

func NewCustomerRepository(db *DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Upsert is the race-safe get-or-create keyed on a canonical email. Two
// concurrent calls both attempting the insert resolve to the same row: the
// loser hits the unique index and re-reads instead of erroring.
func (r *CustomerRepository) Upsert(ctx context.Context, email string) (*code.Customer, error) {
	if c, err := r.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if c != nil {
		return c, nil
	}

	query := `
		INSERT INTO customers (email)
		VALUES ($1)
		RETURNING id, email, created_at
	`

	c := &code.Customer{}
	err := r.db.Pool.QueryRow(ctx, query, email).Scan(&c.ID, &c.Email, &c.CreatedAt)
	if err == nil {
		return c, nil
	}

	if isUniqueViolation(err) {
		again, selErr := r.GetByEmail(ctx, email)
		if selErr != nil {
			return nil, selErr
		}
		if again != nil {
			return again, nil
		}
	}

	return nil, apperrors.Storage("failed to upsert customer", err)
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*code.Customer, error) {
	query := `
		SELECT id, email, created_at
		FROM customers
		WHERE email = $1
	`

	c := &code.Customer{}
	err := r.db.Pool.QueryRow(ctx, query, email).Scan(&c.ID, &c.Email, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, apperrors.Storage(fmt.Sprintf("failed to look up customer %s", email), err)
	}

	return c, nil
}
