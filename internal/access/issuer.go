package access

import (
	"context"
	"log"
	"time"

	"hardhat-gateway/internal/domain/code"
	"hardhat-gateway/internal/repository"
	apperrors "hardhat-gateway/pkg/errors"
)

// MagicLinkEmailer delivers a monthly code together with a prefilled access
// link.
type MagicLinkEmailer interface {
	SendMagicLink(ctx context.Context, to, plainCode string, ttlDays int, expiresAt time.Time) error
}

// IssuedCode is the transient issuance result. The plaintext exists only here
// and in the delivery email.
type IssuedCode struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// Issuer mints monthly codes: one active code per customer per calendar
// month, last issued wins.
type Issuer struct {
	customers repository.CustomerRepository
	monthly   repository.MonthlyCodeRepository
	emailer   MagicLinkEmailer
	ttlDays   int
	logger    *log.Logger
	now       func() time.Time
}

func NewIssuer(
	customers repository.CustomerRepository,
	monthly repository.MonthlyCodeRepository,
	emailer MagicLinkEmailer,
	ttlDays int,
	logger *log.Logger,
) *Issuer {
	return &Issuer{
		customers: customers,
		monthly:   monthly,
		emailer:   emailer,
		ttlDays:   ttlDays,
		logger:    logger,
		now:       time.Now,
	}
}

// Issue creates (or replaces) the caller's code for the current month and
// emails a magic link. Email delivery is best-effort; issuance stands either
// way. ttlDays <= 0 selects the configured default.
func (i *Issuer) Issue(ctx context.Context, email string, ttlDays int) (*IssuedCode, error) {
	issued, err := i.mint(ctx, email, ttlDays)
	if err != nil {
		return nil, err
	}

	if err := i.emailer.SendMagicLink(ctx, issued.Email, issued.Code, i.effectiveTTL(ttlDays), issued.ExpiresAt); err != nil {
		i.logger.Printf("failed to email code to %s: %v", issued.Email, err)
	}

	return issued, nil
}

// IssueWithoutEmail mints a code and returns the plaintext to the caller.
// Used by the admin issuance path, which hands codes out manually.
func (i *Issuer) IssueWithoutEmail(ctx context.Context, email string, ttlDays int) (*IssuedCode, error) {
	return i.mint(ctx, email, ttlDays)
}

func (i *Issuer) mint(ctx context.Context, email string, ttlDays int) (*IssuedCode, error) {
	e := CanonicalEmail(email)
	if e == "" {
		return nil, apperrors.MissingInput("email is required")
	}

	customer, err := i.customers.Upsert(ctx, e)
	if err != nil {
		return nil, err
	}

	plainCode, err := GenerateCode(MonthlyCodeLength)
	if err != nil {
		return nil, err
	}

	now := i.now().UTC()
	expiresAt := now.AddDate(0, 0, i.effectiveTTL(ttlDays))

	if err := i.monthly.Save(ctx, code.SaveMonthlyCodeInput{
		CustomerID: customer.ID,
		CodeHash:   HashCode(NormalizeCode(plainCode)),
		ExpiresAt:  expiresAt,
		MonthKey:   code.MonthKeyUTC(now),
	}); err != nil {
		return nil, err
	}

	return &IssuedCode{Email: e, Code: plainCode, ExpiresAt: expiresAt}, nil
}

func (i *Issuer) effectiveTTL(ttlDays int) int {
	if ttlDays > 0 {
		return ttlDays
	}
	return i.ttlDays
}

// ValidateMonthly checks a submitted code against the caller's latest active
// monthly code. Checks are ordered: missing, no active code, mismatch.
func (i *Issuer) ValidateMonthly(ctx context.Context, email, plainCode string) error {
	if email == "" || plainCode == "" {
		return apperrors.MissingInput("email and code are required")
	}

	row, err := i.monthly.FindActive(ctx, CanonicalEmail(email))
	if err != nil {
		return err
	}
	if row == nil {
		return apperrors.NotFound("no active code")
	}

	// Issuance hashes NormalizeCode(plainCode); the same normalizer runs here
	// so a generated code always round-trips.
	if HashCode(NormalizeCode(plainCode)) != row.CodeHash {
		return apperrors.InvalidCode("invalid code")
	}

	// Subscription-style: record the use without consuming the code.
	if err := i.monthly.TouchLastUsed(ctx, row.ID, i.now()); err != nil {
		i.logger.Printf("failed to record code use for %s: %v", email, err)
	}

	return nil
}

// Resend re-issues the current month's code and emails it. The stored hash
// cannot be reversed, so a resend necessarily replaces the code; last issued
// wins, same as any other reissue in the bucket.
func (i *Issuer) Resend(ctx context.Context, email string) error {
	e := CanonicalEmail(email)
	if e == "" {
		return apperrors.MissingInput("email is required")
	}

	customer, err := i.customers.GetByEmail(ctx, e)
	if err != nil {
		return err
	}
	if customer == nil {
		return apperrors.NotFound("unknown email")
	}

	_, err = i.Issue(ctx, e, 0)
	return err
}
