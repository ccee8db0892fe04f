package access

import (
	"context"
	"errors"
	"time"

	"hardhat-gateway/internal/domain/code"
	apperrors "hardhat-gateway/pkg/errors"

	"github.com/google/uuid"
)

// Rejection reasons as surfaced to callers (redirect query params, JSON codes).
const (
	ReasonMissing = "missing"
	ReasonInvalid = "invalid"
	ReasonExpired = "expired"
	ReasonUsed    = "used"
	ReasonUnknown = "unknown"
)

// LinkStore is the slice of the code store the verifiers need.
type LinkStore interface {
	FindByEmailAndHash(ctx context.Context, email, codeHash string) (*code.AccessLink, error)
	FindByHash(ctx context.Context, codeHash string) (*code.AccessLink, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	// MarkUsed flips used to true only if it is currently false and reports
	// whether this call won the flip.
	MarkUsed(ctx context.Context, id uuid.UUID) (bool, error)
}

// SubscriptionVerifier validates email+code pairs for the form-access path.
// Codes stay valid until expiry; acceptance only records last_used_at.
//
// Checks run in strict order and short-circuit: missing, invalid, expired.
type SubscriptionVerifier struct {
	store LinkStore
	now   func() time.Time
}

func NewSubscriptionVerifier(store LinkStore) *SubscriptionVerifier {
	return &SubscriptionVerifier{store: store, now: time.Now}
}

func (v *SubscriptionVerifier) Verify(ctx context.Context, email, plainCode string) (*code.AccessLink, error) {
	if email == "" || plainCode == "" {
		return nil, apperrors.MissingInput("email and code are required")
	}

	e := CanonicalEmail(email)
	hash := HashCode(NormalizeCode(plainCode))

	link, err := v.store.FindByEmailAndHash(ctx, e, hash)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, apperrors.InvalidCode("invalid email or code")
	}

	// Expiry is exclusive of the current instant: a code expiring exactly now
	// is already expired.
	now := v.now()
	if !link.ExpiresAt.After(now) {
		return nil, apperrors.Expired("code expired")
	}

	if err := v.store.TouchLastUsed(ctx, link.ID, now); err != nil {
		// Bookkeeping only; acceptance stands.
		return link, nil
	}
	return link, nil
}

// VerifyCode is the code-only variant used by form submission, where the
// caller holds a code but the customer email lives on the stored link. Same
// ordering and bookkeeping as Verify.
func (v *SubscriptionVerifier) VerifyCode(ctx context.Context, plainCode string) (*code.AccessLink, error) {
	if plainCode == "" {
		return nil, apperrors.MissingInput("code is required")
	}

	link, err := v.store.FindByHash(ctx, HashCode(NormalizeCode(plainCode)))
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, apperrors.InvalidCode("invalid code")
	}

	now := v.now()
	if !link.ExpiresAt.After(now) {
		return nil, apperrors.Expired("code expired")
	}

	if err := v.store.TouchLastUsed(ctx, link.ID, now); err != nil {
		return link, nil
	}
	return link, nil
}

// OneTimeVerifier validates download-style tokens that are consumed on first
// successful redemption. Unlike SubscriptionVerifier it checks the used flag
// ahead of expiry and marks the token used atomically; a replay is rejected
// with the used reason. The two policies are intentionally separate.
type OneTimeVerifier struct {
	store LinkStore
	now   func() time.Time
}

func NewOneTimeVerifier(store LinkStore) *OneTimeVerifier {
	return &OneTimeVerifier{store: store, now: time.Now}
}

func (v *OneTimeVerifier) Verify(ctx context.Context, email, plainCode string) (*code.AccessLink, error) {
	if email == "" || plainCode == "" {
		return nil, apperrors.MissingInput("email and code are required")
	}

	e := CanonicalEmail(email)
	hash := HashCode(NormalizeCodeStrict(plainCode))

	link, err := v.store.FindByEmailAndHash(ctx, e, hash)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, apperrors.InvalidCode("invalid email or code")
	}

	if link.Used {
		return nil, apperrors.Used("code already used")
	}

	if !link.ExpiresAt.After(v.now()) {
		return nil, apperrors.Expired("code expired")
	}

	won, err := v.store.MarkUsed(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the conditional update to a concurrent redemption.
		return nil, apperrors.Used("code already used")
	}

	return link, nil
}

// VerifyToken redeems a standalone token with no accompanying email. The
// used check still precedes expiry, and the caller still only wins on the
// conditional flip.
func (v *OneTimeVerifier) VerifyToken(ctx context.Context, token string) (*code.AccessLink, error) {
	if token == "" {
		return nil, apperrors.MissingInput("token is required")
	}

	link, err := v.store.FindByHash(ctx, HashCode(NormalizeCodeStrict(token)))
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, apperrors.InvalidCode("invalid token")
	}

	if link.Used {
		return nil, apperrors.Used("token already used")
	}

	if !link.ExpiresAt.After(v.now()) {
		return nil, apperrors.Expired("token expired")
	}

	won, err := v.store.MarkUsed(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, apperrors.Used("token already used")
	}

	return link, nil
}

// ReasonForError maps a verification error onto its public reason string.
func ReasonForError(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrMissingInput):
		return ReasonMissing
	case errors.Is(err, apperrors.ErrInvalidCode):
		return ReasonInvalid
	case errors.Is(err, apperrors.ErrExpired):
		return ReasonExpired
	case errors.Is(err, apperrors.ErrUsed):
		return ReasonUsed
	default:
		return ReasonUnknown
	}
}
