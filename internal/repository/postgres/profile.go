package postgres

import (
	"context"
	"encoding/json"

	"hardhat-gateway/internal/domain/profile"
	apperrors "hardhat-gateway/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type ProfileRepository struct {
	db *DB
}

func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, email, product string) (*profile.Defaults, error) {
	query := `
		SELECT email, product, defaults, updated_at
		FROM profile_defaults
		WHERE email = $1 AND product = $2
	`

	d := &profile.Defaults{}
	var values []byte
	err := r.db.Pool.QueryRow(ctx, query, email, product).Scan(&d.Email, &d.Product, &values, &d.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, apperrors.Storage("failed to read profile defaults", err)
	}

	if err := json.Unmarshal(values, &d.Values); err != nil {
		return nil, apperrors.Storage("failed to decode profile defaults", err)
	}

	return d, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, d *profile.Defaults) error {
	values, err := json.Marshal(d.Values)
	if err != nil {
		return apperrors.Storage("failed to encode profile defaults", err)
	}

	query := `
		INSERT INTO profile_defaults (email, product, defaults, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (email, product)
		DO UPDATE SET defaults = EXCLUDED.defaults, updated_at = NOW()
	`

	if _, err := r.db.Pool.Exec(ctx, query, d.Email, d.Product, values); err != nil {
		return apperrors.Storage("failed to save profile defaults", err)
	}
	return nil
}
