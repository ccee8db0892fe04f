package handler

import (
	"errors"
	"net/http"
	"time"

	"hardhat-gateway/internal/access"
	apperrors "hardhat-gateway/pkg/errors"
	"hardhat-gateway/pkg/validator"

	"github.com/labstack/echo/v4"
)

const adminSecretHeader = "X-Admin-Secret"

// CodesHandler owns the monthly-code lifecycle endpoints: request, validate,
// resend and the admin issuance path.
type CodesHandler struct {
	issuer      *access.Issuer
	sessions    *access.SessionService
	adminSecret string
}

func NewCodesHandler(issuer *access.Issuer, sessions *access.SessionService, adminSecret string) *CodesHandler {
	return &CodesHandler{
		issuer:      issuer,
		sessions:    sessions,
		adminSecret: adminSecret,
	}
}

type requestCodeRequest struct {
	Email string `json:"email"`
	Days  int    `json:"days"`
}

// Request issues (or replaces) the caller's monthly code and emails a magic
// link.
func (h *CodesHandler) Request(c echo.Context) error {
	var req requestCodeRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return respondFlagged(c, http.StatusBadRequest, errCodeEmailRequired)
	}
	if err := validator.Email(req.Email); err != nil {
		return respondFlagged(c, http.StatusBadRequest, errCodeEmailRequired)
	}

	if _, err := h.issuer.Issue(c.Request().Context(), req.Email, req.Days); err != nil {
		return err
	}

	return respondOK(c, nil)
}

type validateCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Validate checks a submitted monthly code and sets the signed session cookie
// on success. Code-based logins get the longer magic-link lifetime. Error
// codes mirror the rejection taxonomy so the access page can message
// precisely.
func (h *CodesHandler) Validate(c echo.Context) error {
	var req validateCodeRequest
	if err := c.Bind(&req); err != nil {
		return respondFlagged(c, http.StatusBadRequest, errCodeMissingFields)
	}
	if req.Email == "" || req.Code == "" {
		return respondFlagged(c, http.StatusBadRequest, errCodeMissingFields)
	}

	err := h.issuer.ValidateMonthly(c.Request().Context(), req.Email, req.Code)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrNotFound):
		return respondFlagged(c, http.StatusBadRequest, errCodeNoActiveCode)
	case errors.Is(err, apperrors.ErrInvalidCode):
		return respondFlagged(c, http.StatusBadRequest, errCodeInvalidCode)
	case errors.Is(err, apperrors.ErrMissingInput):
		return respondFlagged(c, http.StatusBadRequest, errCodeMissingFields)
	default:
		return err
	}

	token, err := h.sessions.Generate(access.CanonicalEmail(req.Email))
	if err != nil {
		return err
	}
	c.SetCookie(h.sessions.Cookie(token))

	return respondOK(c, nil)
}

type resendCodeRequest struct {
	Email string `json:"email"`
}

// Resend replaces and re-emails the caller's current monthly code. Unknown
// emails get a 404 so the page can prompt a purchase instead.
func (h *CodesHandler) Resend(c echo.Context) error {
	var req resendCodeRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return respondFlagged(c, http.StatusBadRequest, errCodeEmailRequired)
	}

	err := h.issuer.Resend(c.Request().Context(), req.Email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return respondFlagged(c, http.StatusNotFound, errCodeNotFound)
	}
	if err != nil {
		return err
	}

	return respondOK(c, nil)
}

type adminIssueRequest struct {
	Email string `json:"email"`
	Days  int    `json:"days"`
}

// AdminIssue mints a code without emailing it and returns the plaintext to
// the operator. Guarded by the admin shared secret.
func (h *CodesHandler) AdminIssue(c echo.Context) error {
	if h.adminSecret == "" || c.Request().Header.Get(adminSecretHeader) != h.adminSecret {
		return respondError(c, http.StatusForbidden, "forbidden")
	}

	var req adminIssueRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return respondFlagged(c, http.StatusBadRequest, errCodeEmailRequired)
	}

	issued, err := h.issuer.IssueWithoutEmail(c.Request().Context(), req.Email, req.Days)
	if err != nil {
		return err
	}

	return respondOK(c, map[string]interface{}{
		"email":     issued.Email,
		"code":      issued.Code,
		"expiresAt": issued.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
