package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	jsonKeyOK    = "ok"
	jsonKeyError = "error"

	errCodeMissingFields = "missing_fields"
	errCodeEmailRequired = "email_required"
	errCodeNoActiveCode  = "no_active_code"
	errCodeInvalidCode   = "invalid_code"
	errCodeNotFound      = "not_found"
	errCodeServerError   = "server_error"
)

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{jsonKeyError: message})
}

// respondFlagged answers the codes API shape: {"ok": false, "error": <code>}.
func respondFlagged(c echo.Context, status int, errCode string) error {
	return c.JSON(status, map[string]interface{}{jsonKeyOK: false, jsonKeyError: errCode})
}

func respondOK(c echo.Context, extra map[string]interface{}) error {
	body := map[string]interface{}{jsonKeyOK: true}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(http.StatusOK, body)
}
