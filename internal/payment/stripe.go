package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// SignatureHeader carries the provider signature on webhook deliveries.
	SignatureHeader = "Stripe-Signature"

	ProviderName = "stripe"

	EventCheckoutCompleted = "checkout.session.completed"

	PaymentStatusPaid       = "paid"
	PaymentStatusNoPayment  = "no_payment_required"
	signatureScheme         = "v1"
	signatureTimestampKey   = "t"
	defaultSignatureMaxSkew = 5 * time.Minute
)

var (
	ErrMissingSignature = errors.New("missing signature or secret")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrSignatureExpired = errors.New("signature timestamp outside tolerance")
)

// Event is the decoded webhook envelope. Only the fields the bridge needs are
// modeled; the raw payload stays with the webhook_events row conceptually.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}

// CheckoutSession is the checkout.session object carried by completed events.
type CheckoutSession struct {
	ID              string `json:"id"`
	PaymentStatus   string `json:"payment_status"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata  map[string]string `json:"metadata"`
	LineItems struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"line_items"`
}

// Email returns the purchaser email, preferring the verified checkout details.
func (s *CheckoutSession) Email() string {
	if s.CustomerDetails.Email != "" {
		return s.CustomerDetails.Email
	}
	return s.CustomerEmail
}

// Completed reports whether the session finished in a state that grants
// access.
func (s *CheckoutSession) Completed() bool {
	return s.PaymentStatus == PaymentStatusPaid || s.PaymentStatus == PaymentStatusNoPayment
}

// FirstPriceID returns the price of the first line item, when the payload
// carries expanded line items.
func (s *CheckoutSession) FirstPriceID() string {
	if len(s.LineItems.Data) == 0 {
		return ""
	}
	return s.LineItems.Data[0].Price.ID
}

// VerifySignature checks the provider's t/v1 signature header against the raw
// payload: HMAC-SHA256 of "<t>.<payload>" keyed with the shared secret, with
// a bounded timestamp skew to stop replays of captured deliveries.
func VerifySignature(payload []byte, header, secret string, now time.Time) error {
	if header == "" || secret == "" {
		return ErrMissingSignature
	}

	var timestamp int64
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case signatureTimestampKey:
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
			timestamp = ts
		case signatureScheme:
			candidates = append(candidates, value)
		}
	}

	if timestamp == 0 || len(candidates) == 0 {
		return ErrInvalidSignature
	}

	skew := now.Sub(time.Unix(timestamp, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > defaultSignatureMaxSkew {
		return ErrSignatureExpired
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return nil
		}
	}

	return ErrInvalidSignature
}

// SignPayload produces a valid signature header for a payload; used by tests
// and local tooling.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("%s=%s,%s=%s", signatureTimestampKey, ts, signatureScheme, hex.EncodeToString(mac.Sum(nil)))
}

// ParseEvent decodes a verified webhook payload.
func ParseEvent(payload []byte) (*Event, error) {
	event := &Event{}
	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, errors.New("event missing id or type")
	}
	return event, nil
}
