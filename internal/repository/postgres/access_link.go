package postgres

import (
	"context"
	"time"

	"hardhat-gateway/internal/domain/code"
	apperrors "hardhat-gateway/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AccessLinkRepository struct {
	db *DB
}

func NewAccessLinkRepository(db *DB) *AccessLinkRepository {
	return &AccessLinkRepository{db: db}
}

const accessLinkColumns = "id, email, code_hash, product, expires_at, used, last_used_at, created_at"

func scanAccessLink(row pgx.Row) (*code.AccessLink, error) {
	link := &code.AccessLink{}
	err := row.Scan(
		&link.ID,
		&link.Email,
		&link.CodeHash,
		&link.Product,
		&link.ExpiresAt,
		&link.Used,
		&link.LastUsedAt,
		&link.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return link, nil
}

// Create stores a purchase-issued code. Only the hash is persisted; the
// plaintext lives in the issuance response and the delivery email.
func (r *AccessLinkRepository) Create(ctx context.Context, input code.CreateAccessLinkInput) (*code.AccessLink, error) {
	query := `
		INSERT INTO access_links (email, code_hash, product, expires_at, used)
		VALUES ($1, $2, $3, $4, false)
		RETURNING ` + accessLinkColumns

	link, err := scanAccessLink(r.db.Pool.QueryRow(ctx, query, input.Email, input.CodeHash, input.Product, input.ExpiresAt))
	if err != nil {
		return nil, apperrors.Storage("failed to create access link", err)
	}

	return link, nil
}

func (r *AccessLinkRepository) FindByEmailAndHash(ctx context.Context, email, codeHash string) (*code.AccessLink, error) {
	query := `
		SELECT ` + accessLinkColumns + `
		FROM access_links
		WHERE email = $1 AND code_hash = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	link, err := scanAccessLink(r.db.Pool.QueryRow(ctx, query, email, codeHash))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, apperrors.Storage("failed to look up access link", err)
	}

	return link, nil
}

func (r *AccessLinkRepository) FindByHash(ctx context.Context, codeHash string) (*code.AccessLink, error) {
	query := `
		SELECT ` + accessLinkColumns + `
		FROM access_links
		WHERE code_hash = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	link, err := scanAccessLink(r.db.Pool.QueryRow(ctx, query, codeHash))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, apperrors.Storage("failed to look up access link", err)
	}

	return link, nil
}

// ListActive returns every unused, unexpired link for the email. The
// entitlement resolver derives per-product access from this set.
func (r *AccessLinkRepository) ListActive(ctx context.Context, email string) ([]*code.AccessLink, error) {
	query := `
		SELECT ` + accessLinkColumns + `
		FROM access_links
		WHERE email = $1
		  AND used = false
		  AND expires_at > NOW()
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, email)
	if err != nil {
		return nil, apperrors.Storage("failed to list active links", err)
	}
	defer rows.Close()

	var links []*code.AccessLink
	for rows.Next() {
		link, err := scanAccessLink(rows)
		if err != nil {
			return nil, apperrors.Storage("failed to scan access link", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("failed to iterate access links", err)
	}

	return links, nil
}

func (r *AccessLinkRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE access_links SET last_used_at = $2 WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id, at)
	if err != nil {
		return apperrors.Storage("failed to record link use", err)
	}
	return nil
}

// MarkUsed is the conditional one-time flip; it reports false when another
// redemption already consumed the link.
func (r *AccessLinkRepository) MarkUsed(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE access_links SET used = true, last_used_at = NOW() WHERE id = $1 AND used = false`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return false, apperrors.Storage("failed to mark link used", err)
	}
	return result.RowsAffected() > 0, nil
}
