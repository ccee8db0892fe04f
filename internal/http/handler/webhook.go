package handler

import (
	"io"
	"net/http"
	"time"

	"hardhat-gateway/internal/payment"

	"github.com/labstack/echo/v4"
)

// WebhookHandler receives payment-provider deliveries. Signature failures are
// rejected with 400; everything past the signature gate is acknowledged with
// 200 regardless of outcome, so provider-side retries cannot compound an
// internal failure.
type WebhookHandler struct {
	bridge        *payment.Bridge
	webhookSecret string
}

func NewWebhookHandler(bridge *payment.Bridge, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{bridge: bridge, webhookSecret: webhookSecret}
}

func (h *WebhookHandler) HandleStripe(c echo.Context) error {
	if h.webhookSecret == "" {
		c.Logger().Error("stripe webhook secret not configured")
		return respondError(c, http.StatusServiceUnavailable, "webhook not configured")
	}

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "unreadable body")
	}

	header := c.Request().Header.Get(payment.SignatureHeader)
	if err := payment.VerifySignature(payload, header, h.webhookSecret, time.Now()); err != nil {
		c.Logger().Warnf("stripe signature rejected: %v", err)
		return respondError(c, http.StatusBadRequest, "invalid signature")
	}

	event, err := payment.ParseEvent(payload)
	if err != nil {
		c.Logger().Warnf("stripe payload unparseable: %v", err)
		return c.JSON(http.StatusOK, map[string]interface{}{"received": true, "note": "bad_payload"})
	}

	if err := h.bridge.HandleEvent(c.Request().Context(), event); err != nil {
		c.Logger().Errorf("stripe event %s failed: %v", event.ID, err)
		return c.JSON(http.StatusOK, map[string]interface{}{"received": true, "note": "handler_error"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"received": true})
}
