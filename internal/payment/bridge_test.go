package payment

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"hardhat-gateway/internal/access"
	"hardhat-gateway/internal/domain/code"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCustomers struct {
	upserts []string
}

func (f *fakeCustomers) Upsert(_ context.Context, email string) (*code.Customer, error) {
	f.upserts = append(f.upserts, email)
	return &code.Customer{ID: uuid.New(), Email: email}, nil
}

func (f *fakeCustomers) GetByEmail(_ context.Context, _ string) (*code.Customer, error) {
	return nil, nil
}

type fakeLinks struct {
	created []code.CreateAccessLinkInput
}

func (f *fakeLinks) Create(_ context.Context, input code.CreateAccessLinkInput) (*code.AccessLink, error) {
	f.created = append(f.created, input)
	return &code.AccessLink{ID: uuid.New(), Email: input.Email, Product: input.Product}, nil
}

func (f *fakeLinks) FindByEmailAndHash(_ context.Context, _, _ string) (*code.AccessLink, error) {
	return nil, nil
}

func (f *fakeLinks) FindByHash(_ context.Context, _ string) (*code.AccessLink, error) {
	return nil, nil
}

func (f *fakeLinks) ListActive(_ context.Context, _ string) ([]*code.AccessLink, error) {
	return nil, nil
}

func (f *fakeLinks) TouchLastUsed(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

func (f *fakeLinks) MarkUsed(_ context.Context, _ uuid.UUID) (bool, error) {
	return false, nil
}

type fakeEvents struct {
	seen      map[string]bool
	processed []string
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{seen: map[string]bool{}}
}

func (f *fakeEvents) Record(_ context.Context, provider, eventID, _ string) (bool, error) {
	key := provider + ":" + eventID
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeEvents) MarkProcessed(_ context.Context, _, eventID, _ string) error {
	f.processed = append(f.processed, eventID)
	return nil
}

type fakeCodeEmailer struct {
	sent []string
	code string
	err  error
}

func (f *fakeCodeEmailer) SendAccessCode(_ context.Context, to string, _ code.Product, plainCode string, _ time.Time) error {
	f.sent = append(f.sent, to)
	f.code = plainCode
	return f.err
}

type bridgeFixture struct {
	customers *fakeCustomers
	links     *fakeLinks
	events    *fakeEvents
	emailer   *fakeCodeEmailer
	bridge    *Bridge
}

func newBridgeFixture() *bridgeFixture {
	f := &bridgeFixture{
		customers: &fakeCustomers{},
		links:     &fakeLinks{},
		events:    newFakeEvents(),
		emailer:   &fakeCodeEmailer{},
	}
	f.bridge = NewBridge(f.customers, f.links, f.events, f.emailer, BridgeConfig{
		PriceRAMS: "price_rams",
		PriceCPP:  "price_cpp",
		TTLDays:   30,
	}, log.New(io.Discard, "", 0))
	return f
}

func checkoutEvent(id, priceID, paymentStatus string) *Event {
	e := &Event{ID: id, Type: EventCheckoutCompleted}
	e.Data.Object.ID = "cs_" + id
	e.Data.Object.PaymentStatus = paymentStatus
	e.Data.Object.CustomerDetails.Email = "Buyer@Example.com"
	if priceID != "" {
		e.Data.Object.LineItems.Data = []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		}{{}}
		e.Data.Object.LineItems.Data[0].Price.ID = priceID
	}
	return e
}

func TestBridge_MintsAndEmailsCode(t *testing.T) {
	f := newBridgeFixture()

	err := f.bridge.HandleEvent(context.Background(), checkoutEvent("evt_1", "price_rams", PaymentStatusPaid))
	require.NoError(t, err)

	require.Len(t, f.links.created, 1)
	created := f.links.created[0]
	assert.Equal(t, "buyer@example.com", created.Email)
	assert.Equal(t, code.ProductRAMS, created.Product)
	assert.Len(t, f.emailer.code, access.PurchaseCodeLength)
	assert.Equal(t, access.HashCode(access.NormalizeCode(f.emailer.code)), created.CodeHash)

	assert.Equal(t, []string{"buyer@example.com"}, f.customers.upserts)
	assert.Equal(t, []string{"buyer@example.com"}, f.emailer.sent)
	assert.Equal(t, []string{"evt_1"}, f.events.processed)
}

func TestBridge_ReplayedEventMintsNothing(t *testing.T) {
	f := newBridgeFixture()

	event := checkoutEvent("evt_1", "price_cpp", PaymentStatusPaid)
	require.NoError(t, f.bridge.HandleEvent(context.Background(), event))
	require.NoError(t, f.bridge.HandleEvent(context.Background(), event))

	assert.Len(t, f.links.created, 1)
	assert.Len(t, f.emailer.sent, 1)
}

func TestBridge_ProductResolution(t *testing.T) {
	// Price mapping wins.
	f := newBridgeFixture()
	event := checkoutEvent("evt_1", "price_cpp", PaymentStatusPaid)
	event.Data.Object.Metadata = map[string]string{"product": "RAMS"}
	require.NoError(t, f.bridge.HandleEvent(context.Background(), event))
	assert.Equal(t, code.ProductCPP, f.links.created[0].Product)

	// Unknown price falls back to the metadata tag.
	f = newBridgeFixture()
	event = checkoutEvent("evt_2", "price_unknown", PaymentStatusPaid)
	event.Data.Object.Metadata = map[string]string{"product": "RAMS"}
	require.NoError(t, f.bridge.HandleEvent(context.Background(), event))
	assert.Equal(t, code.ProductRAMS, f.links.created[0].Product)

	// Nothing resolvable defaults to CPP.
	f = newBridgeFixture()
	event = checkoutEvent("evt_3", "", PaymentStatusPaid)
	require.NoError(t, f.bridge.HandleEvent(context.Background(), event))
	assert.Equal(t, code.ProductCPP, f.links.created[0].Product)
}

func TestBridge_NoPaymentRequiredStillMints(t *testing.T) {
	f := newBridgeFixture()

	err := f.bridge.HandleEvent(context.Background(), checkoutEvent("evt_1", "price_cpp", PaymentStatusNoPayment))
	require.NoError(t, err)
	assert.Len(t, f.links.created, 1)
}

func TestBridge_UnpaidSessionIgnored(t *testing.T) {
	f := newBridgeFixture()

	err := f.bridge.HandleEvent(context.Background(), checkoutEvent("evt_1", "price_cpp", "unpaid"))
	require.NoError(t, err)
	assert.Empty(t, f.links.created)
	assert.Empty(t, f.emailer.sent)
}

func TestBridge_OtherEventTypesIgnored(t *testing.T) {
	f := newBridgeFixture()

	event := &Event{ID: "evt_1", Type: "invoice.paid"}
	require.NoError(t, f.bridge.HandleEvent(context.Background(), event))
	assert.Empty(t, f.links.created)
	// Still recorded and marked processed for the dedup ledger.
	assert.Equal(t, []string{"evt_1"}, f.events.processed)
}

func TestBridge_MissingEmailFails(t *testing.T) {
	f := newBridgeFixture()

	event := checkoutEvent("evt_1", "price_cpp", PaymentStatusPaid)
	event.Data.Object.CustomerDetails.Email = ""
	err := f.bridge.HandleEvent(context.Background(), event)
	assert.Error(t, err)
	assert.Empty(t, f.links.created)
}

func TestBridge_EmailFailureDoesNotFailEvent(t *testing.T) {
	f := newBridgeFixture()
	f.emailer.err = errors.New("provider down")

	err := f.bridge.HandleEvent(context.Background(), checkoutEvent("evt_1", "price_cpp", PaymentStatusPaid))
	require.NoError(t, err)
	assert.Len(t, f.links.created, 1)
}
