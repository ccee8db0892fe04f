package handler

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hardhat-gateway/internal/payment"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

type webhookFixture struct {
	handler   *WebhookHandler
	links     *fakeLinks
	events    *fakeEvents
	emailer   *fakeEmailer
	customers *fakeCustomers
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	customers := newFakeCustomers()
	links := &fakeLinks{}
	events := newFakeEvents()
	emailer := &fakeEmailer{}
	bridge := payment.NewBridge(customers, links, events, emailer, payment.BridgeConfig{
		PriceRAMS: "price_rams",
		PriceCPP:  "price_cpp",
		TTLDays:   30,
	}, log.New(io.Discard, "", 0))
	return &webhookFixture{
		handler:   NewWebhookHandler(bridge, testWebhookSecret),
		links:     links,
		events:    events,
		emailer:   emailer,
		customers: customers,
	}
}

func signedWebhookRequest(e *echo.Echo, payload, header string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if header != "" {
		req.Header.Set(payment.SignatureHeader, header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

const checkoutPayload = `{
	"id": "evt_1",
	"type": "checkout.session.completed",
	"data": {
		"object": {
			"id": "cs_1",
			"payment_status": "paid",
			"customer_details": {"email": "Buyer@Example.com"},
			"line_items": {"data": [{"price": {"id": "price_rams"}}]}
		}
	}
}`

func TestWebhookHandler_MintsOnCompletedCheckout(t *testing.T) {
	e := echo.New()
	f := newWebhookFixture(t)

	header := payment.SignPayload([]byte(checkoutPayload), testWebhookSecret, time.Now())
	c, rec := signedWebhookRequest(e, checkoutPayload, header)
	require.NoError(t, f.handler.HandleStripe(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, true, body["received"])
	assert.NotContains(t, body, "note")

	require.Len(t, f.links.links, 1)
	assert.Equal(t, "buyer@example.com", f.links.links[0].Email)
	assert.Equal(t, "RAMS", string(f.links.links[0].Product))
	assert.Equal(t, []string{"buyer@example.com"}, f.emailer.accessTo)
}

func TestWebhookHandler_ReplayMintsOnce(t *testing.T) {
	e := echo.New()
	f := newWebhookFixture(t)
	header := payment.SignPayload([]byte(checkoutPayload), testWebhookSecret, time.Now())

	for range [2]struct{}{} {
		c, rec := signedWebhookRequest(e, checkoutPayload, header)
		require.NoError(t, f.handler.HandleStripe(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Len(t, f.links.links, 1)
	assert.Len(t, f.emailer.accessTo, 1)
}

func TestWebhookHandler_RejectsBadSignature(t *testing.T) {
	e := echo.New()
	f := newWebhookFixture(t)

	// No signature header.
	c, rec := signedWebhookRequest(e, checkoutPayload, "")
	require.NoError(t, f.handler.HandleStripe(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Signature over different bytes.
	header := payment.SignPayload([]byte(`{"id":"evt_other"}`), testWebhookSecret, time.Now())
	c, rec = signedWebhookRequest(e, checkoutPayload, header)
	require.NoError(t, f.handler.HandleStripe(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Stale signature.
	header = payment.SignPayload([]byte(checkoutPayload), testWebhookSecret, time.Now().Add(-10*time.Minute))
	c, rec = signedWebhookRequest(e, checkoutPayload, header)
	require.NoError(t, f.handler.HandleStripe(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, f.links.links)
}

func TestWebhookHandler_AcknowledgesPastSignatureGate(t *testing.T) {
	e := echo.New()
	f := newWebhookFixture(t)

	// Unparseable but authentic payloads are acknowledged so the provider
	// stops retrying.
	payload := `{"object":"list"}`
	header := payment.SignPayload([]byte(payload), testWebhookSecret, time.Now())
	c, rec := signedWebhookRequest(e, payload, header)
	require.NoError(t, f.handler.HandleStripe(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bad_payload", decodeJSON(t, rec)["note"])

	// So are events the bridge cannot process.
	payload = `{"id":"evt_2","type":"checkout.session.completed","data":{"object":{"id":"cs_2","payment_status":"paid"}}}`
	header = payment.SignPayload([]byte(payload), testWebhookSecret, time.Now())
	c, rec = signedWebhookRequest(e, payload, header)
	require.NoError(t, f.handler.HandleStripe(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "handler_error", decodeJSON(t, rec)["note"])
	assert.Empty(t, f.links.links)
}

func TestWebhookHandler_NotConfigured(t *testing.T) {
	e := echo.New()
	f := newWebhookFixture(t)
	f.handler.webhookSecret = ""

	c, rec := signedWebhookRequest(e, checkoutPayload, "anything")
	require.NoError(t, f.handler.HandleStripe(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
