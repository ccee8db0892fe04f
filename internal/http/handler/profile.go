package handler

import (
	"net/http"

	"hardhat-gateway/internal/access"
	"hardhat-gateway/internal/domain/code"
	"hardhat-gateway/internal/domain/profile"
	"hardhat-gateway/internal/repository"

	"github.com/labstack/echo/v4"
)

// ProfileHandler reads and writes remembered form defaults, keyed by email
// and product. There is no auth on this surface; the data is prefill hints,
// not secrets.
type ProfileHandler struct {
	profiles repository.ProfileRepository
}

func NewProfileHandler(profiles repository.ProfileRepository) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get returns the stored defaults, or null when none exist.
func (h *ProfileHandler) Get(c echo.Context) error {
	email := access.CanonicalEmail(c.QueryParam("email"))
	if email == "" {
		return respondError(c, http.StatusBadRequest, errCodeEmailRequired)
	}

	product, ok := code.Parse(c.QueryParam("product"))
	if !ok {
		return respondError(c, http.StatusBadRequest, "product_required")
	}

	defaults, err := h.profiles.Get(c.Request().Context(), email, string(product))
	if err != nil {
		return err
	}

	var values interface{}
	if defaults != nil {
		values = defaults.Values
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"defaults": values})
}

type saveProfileRequest struct {
	Email    string                 `json:"email"`
	Product  string                 `json:"product"`
	Defaults map[string]interface{} `json:"defaults"`
}

// Save upserts the defaults. Failures are reported but deliberately soft;
// callers fire-and-forget this around form submission.
func (h *ProfileHandler) Save(c echo.Context) error {
	var req saveProfileRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, errCodeMissingFields)
	}

	email := access.CanonicalEmail(req.Email)
	if email == "" {
		return respondError(c, http.StatusBadRequest, errCodeEmailRequired)
	}
	product, ok := code.Parse(req.Product)
	if !ok {
		return respondError(c, http.StatusBadRequest, "product_required")
	}

	err := h.profiles.Upsert(c.Request().Context(), &profile.Defaults{
		Email:   email,
		Product: string(product),
		Values:  req.Defaults,
	})
	if err != nil {
		c.Logger().Errorf("profile defaults save failed: %v", err)
		return c.JSON(http.StatusOK, map[string]interface{}{"success": false})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}
