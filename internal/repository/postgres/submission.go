package postgres

import (
	"context"
	"encoding/json"

	"hardhat-gateway/internal/domain/submission"
	apperrors "hardhat-gateway/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SubmissionRepository struct {
	db *DB
}

func NewSubmissionRepository(db *DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, input submission.CreateInput) (*submission.Submission, error) {
	placeholders, err := json.Marshal(orEmptyStr(input.Placeholders))
	if err != nil {
		return nil, apperrors.Storage("failed to encode placeholders", err)
	}
	uploads, err := json.Marshal(orEmptyUploads(input.Uploads))
	if err != nil {
		return nil, apperrors.Storage("failed to encode uploads", err)
	}
	aiInput, err := json.Marshal(orEmptyStr(input.AIInput))
	if err != nil {
		return nil, apperrors.Storage("failed to encode ai input", err)
	}

	query := `
		INSERT INTO submissions (product, customer_email, access_code, placeholders, uploads, ai_input, outputs)
		VALUES ($1, $2, $3, $4, $5, $6, '{}'::jsonb)
		RETURNING id, created_at
	`

	s := &submission.Submission{
		Product:       input.Product,
		CustomerEmail: input.CustomerEmail,
		AccessCode:    input.AccessCode,
		Placeholders:  input.Placeholders,
		Uploads:       input.Uploads,
		AIInput:       input.AIInput,
	}
	err = r.db.Pool.QueryRow(ctx, query,
		input.Product, input.CustomerEmail, input.AccessCode, placeholders, uploads, aiInput,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, apperrors.Storage("failed to create submission", err)
	}

	return s, nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*submission.Submission, error) {
	query := `
		SELECT id, product, customer_email, COALESCE(access_code, ''),
		       placeholders, uploads, ai_input, outputs, created_at
		FROM submissions
		WHERE id = $1
	`

	s := &submission.Submission{}
	var placeholders, uploads, aiInput, outputs []byte
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.Product,
		&s.CustomerEmail,
		&s.AccessCode,
		&placeholders,
		&uploads,
		&aiInput,
		&outputs,
		&s.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NotFound("submission not found")
		}
		return nil, apperrors.Storage("failed to get submission", err)
	}

	if err := json.Unmarshal(placeholders, &s.Placeholders); err != nil {
		return nil, apperrors.Storage("failed to decode placeholders", err)
	}
	if err := json.Unmarshal(uploads, &s.Uploads); err != nil {
		return nil, apperrors.Storage("failed to decode uploads", err)
	}
	if err := json.Unmarshal(aiInput, &s.AIInput); err != nil {
		return nil, apperrors.Storage("failed to decode ai input", err)
	}
	if err := json.Unmarshal(outputs, &s.Outputs); err != nil {
		return nil, apperrors.Storage("failed to decode outputs", err)
	}

	return s, nil
}

// SetErrorIfPending writes the terminal error only when the generator has not
// produced anything yet, preserving the write-once contract on outputs. Used
// by the max-pending timeout.
func (r *SubmissionRepository) SetErrorIfPending(ctx context.Context, id uuid.UUID, message string) (bool, error) {
	query := `
		UPDATE submissions
		SET outputs = jsonb_build_object('error', $2::text)
		WHERE id = $1
		  AND outputs->>'docx_path' IS NULL
		  AND outputs->>'pdf_path' IS NULL
		  AND outputs->>'error' IS NULL
	`

	result, err := r.db.Pool.Exec(ctx, query, id, message)
	if err != nil {
		return false, apperrors.Storage("failed to set submission error", err)
	}
	return result.RowsAffected() > 0, nil
}

func orEmptyStr(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func orEmptyUploads(m map[string]submission.Upload) map[string]submission.Upload {
	if m == nil {
		return map[string]submission.Upload{}
	}
	return m
}
