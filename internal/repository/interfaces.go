package repository

import (
	"context"
	"time"

	"hardhat-gateway/internal/domain/code"
	"hardhat-gateway/internal/domain/profile"
	"hardhat-gateway/internal/domain/submission"

	"github.com/google/uuid"
)

// Repository interfaces consumed by the access, entitlement, coordinator and
// payment packages. The postgres package provides the concrete implementations.

type CustomerRepository interface {
	Upsert(ctx context.Context, email string) (*code.Customer, error)
	GetByEmail(ctx context.Context, email string) (*code.Customer, error)
}

type MonthlyCodeRepository interface {
	Save(ctx context.Context, input code.SaveMonthlyCodeInput) error
	FindActive(ctx context.Context, email string) (*code.MonthlyCode, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkUsed(ctx context.Context, id uuid.UUID) (bool, error)
}

type AccessLinkRepository interface {
	Create(ctx context.Context, input code.CreateAccessLinkInput) (*code.AccessLink, error)
	FindByEmailAndHash(ctx context.Context, email, codeHash string) (*code.AccessLink, error)
	FindByHash(ctx context.Context, codeHash string) (*code.AccessLink, error)
	ListActive(ctx context.Context, email string) ([]*code.AccessLink, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkUsed(ctx context.Context, id uuid.UUID) (bool, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, input submission.CreateInput) (*submission.Submission, error)
	GetByID(ctx context.Context, id uuid.UUID) (*submission.Submission, error)
	SetErrorIfPending(ctx context.Context, id uuid.UUID, message string) (bool, error)
}

type ProfileRepository interface {
	Get(ctx context.Context, email, product string) (*profile.Defaults, error)
	Upsert(ctx context.Context, d *profile.Defaults) error
}

type WebhookEventRepository interface {
	Record(ctx context.Context, provider, eventID, eventType string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID, processingError string) error
}
