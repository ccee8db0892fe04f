package handler

import (
	"net/http"
	"net/url"

	"hardhat-gateway/internal/access"
	"hardhat-gateway/internal/entitlement"

	"github.com/labstack/echo/v4"
)

const (
	formsPath     = "/access/forms"
	errorPath     = "/access/error"
	reasonParam   = "reason"
	codeParam     = "code"
	productParam  = "product"
	msgEmailField = "email"
	msgCodeField  = "code"
)

// AccessHandler owns the browser-facing access flow: form verification with
// redirects, entitlement lookups and the session ping.
type AccessHandler struct {
	verifier     *access.SubscriptionVerifier
	sessions     *access.SessionService
	entitlements *entitlement.Resolver
	siteBase     string
}

func NewAccessHandler(
	verifier *access.SubscriptionVerifier,
	sessions *access.SessionService,
	entitlements *entitlement.Resolver,
	siteBase string,
) *AccessHandler {
	return &AccessHandler{
		verifier:     verifier,
		sessions:     sessions,
		entitlements: entitlements,
		siteBase:     siteBase,
	}
}

// VerifyForm handles the access-page form post. Success redirects to the
// forms page with the code and product prefilled; every rejection redirects
// to the error page with exactly one reason.
func (h *AccessHandler) VerifyForm(c echo.Context) error {
	email := c.FormValue(msgEmailField)
	plainCode := c.FormValue(msgCodeField)

	link, err := h.verifier.Verify(c.Request().Context(), email, plainCode)
	if err != nil {
		return h.redirectWithReason(c, access.ReasonForError(err))
	}

	// The cookie is best-effort here: the forms page works off the code
	// query parameter even when session signing is not configured.
	if token, err := h.sessions.Generate(link.Email); err == nil {
		c.SetCookie(h.sessions.Cookie(token))
	}

	target, err := url.Parse(h.siteBase + formsPath)
	if err != nil {
		return h.redirectWithReason(c, access.ReasonUnknown)
	}
	q := target.Query()
	q.Set(codeParam, access.NormalizeCode(plainCode))
	q.Set(productParam, string(link.Product))
	target.RawQuery = q.Encode()

	return c.Redirect(http.StatusSeeOther, target.String())
}

func (h *AccessHandler) redirectWithReason(c echo.Context, reason string) error {
	target, err := url.Parse(h.siteBase + errorPath)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, errCodeServerError)
	}
	q := target.Query()
	q.Set(reasonParam, reason)
	target.RawQuery = q.Encode()
	return c.Redirect(http.StatusSeeOther, target.String())
}

type entitlementsRequest struct {
	Email string `json:"email"`
}

// Entitlements reports which products the email currently holds active codes
// for, plus the default product when exactly one is held. Mounted for both
// GET (query parameter) and POST (JSON body).
func (h *AccessHandler) Entitlements(c echo.Context) error {
	var req entitlementsRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, errCodeEmailRequired)
	}
	if req.Email == "" {
		req.Email = c.QueryParam(msgEmailField)
	}
	if req.Email == "" {
		return respondError(c, http.StatusBadRequest, errCodeEmailRequired)
	}

	ents, err := h.entitlements.Resolve(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}

	var defaultProduct interface{}
	if ents.DefaultProduct != "" {
		defaultProduct = string(ents.DefaultProduct)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"cpp":            ents.HasCPP,
		"rams":           ents.HasRAMS,
		"defaultProduct": defaultProduct,
	})
}

// Ping reports whether the request carries a valid session cookie.
func (h *AccessHandler) Ping(c echo.Context) error {
	cookie, err := c.Cookie(access.CookieName)
	if err != nil {
		return respondFlagged(c, http.StatusUnauthorized, "no_session")
	}

	claims, err := h.sessions.Verify(cookie.Value)
	if err != nil {
		return respondFlagged(c, http.StatusUnauthorized, "invalid_session")
	}

	return respondOK(c, map[string]interface{}{"email": claims.Email})
}
