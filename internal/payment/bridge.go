package payment

import (
	"context"
	"fmt"
	"log"
	"time"

	"hardhat-gateway/internal/access"
	"hardhat-gateway/internal/domain/code"
	"hardhat-gateway/internal/repository"
)

// CodeEmailer delivers a freshly minted code to the purchaser. Delivery is
// best-effort; the code stays valid if the email never arrives.
type CodeEmailer interface {
	SendAccessCode(ctx context.Context, to string, product code.Product, plainCode string, expiresAt time.Time) error
}

// Bridge turns confirmed payments into persisted, emailed access codes.
type Bridge struct {
	customers repository.CustomerRepository
	links     repository.AccessLinkRepository
	events    repository.WebhookEventRepository
	emailer   CodeEmailer

	priceToProduct map[string]code.Product
	ttlDays        int
	logger         *log.Logger
	now            func() time.Time
}

type BridgeConfig struct {
	PriceRAMS string
	PriceCPP  string
	TTLDays   int
}

func NewBridge(
	customers repository.CustomerRepository,
	links repository.AccessLinkRepository,
	events repository.WebhookEventRepository,
	emailer CodeEmailer,
	cfg BridgeConfig,
	logger *log.Logger,
) *Bridge {
	priceToProduct := map[string]code.Product{}
	if cfg.PriceRAMS != "" {
		priceToProduct[cfg.PriceRAMS] = code.ProductRAMS
	}
	if cfg.PriceCPP != "" {
		priceToProduct[cfg.PriceCPP] = code.ProductCPP
	}

	return &Bridge{
		customers:      customers,
		links:          links,
		events:         events,
		emailer:        emailer,
		priceToProduct: priceToProduct,
		ttlDays:        cfg.TTLDays,
		logger:         logger,
		now:            time.Now,
	}
}

// HandleEvent processes one verified webhook event. Replayed events are
// detected by the (provider, event id) uniqueness gate and mint nothing.
// Errors are returned for logging only; the webhook endpoint acknowledges
// regardless.
func (b *Bridge) HandleEvent(ctx context.Context, event *Event) error {
	firstSeen, err := b.events.Record(ctx, ProviderName, event.ID, event.Type)
	if err != nil {
		return err
	}
	if !firstSeen {
		b.logger.Printf("webhook event %s replayed, skipping", event.ID)
		return nil
	}

	processingErr := b.process(ctx, event)

	message := ""
	if processingErr != nil {
		message = processingErr.Error()
	}
	if err := b.events.MarkProcessed(ctx, ProviderName, event.ID, message); err != nil {
		b.logger.Printf("failed to mark webhook event %s processed: %v", event.ID, err)
	}

	return processingErr
}

func (b *Bridge) process(ctx context.Context, event *Event) error {
	if event.Type != EventCheckoutCompleted {
		return nil
	}

	session := &event.Data.Object
	if !session.Completed() {
		b.logger.Printf("checkout %s not finalized (payment_status=%s)", session.ID, session.PaymentStatus)
		return nil
	}

	email := access.CanonicalEmail(session.Email())
	if email == "" {
		return fmt.Errorf("checkout %s carries no purchaser email", session.ID)
	}

	product := b.resolveProduct(session)

	customer, err := b.customers.Upsert(ctx, email)
	if err != nil {
		return err
	}

	plainCode, err := access.GenerateCode(access.PurchaseCodeLength)
	if err != nil {
		return err
	}

	expiresAt := b.now().UTC().AddDate(0, 0, b.ttlDays)

	if _, err := b.links.Create(ctx, code.CreateAccessLinkInput{
		Email:     customer.Email,
		CodeHash:  access.HashCode(access.NormalizeCode(plainCode)),
		Product:   product,
		ExpiresAt: expiresAt,
	}); err != nil {
		return err
	}

	// Issuance already succeeded; a delivery failure is logged, never rolled
	// back. The code can still be re-sent or looked up.
	if err := b.emailer.SendAccessCode(ctx, customer.Email, product, plainCode, expiresAt); err != nil {
		b.logger.Printf("failed to email access code to %s: %v", customer.Email, err)
	}

	return nil
}

// resolveProduct maps the purchased price to a product, falls back to the
// session metadata tag, and finally defaults to CPP. The default is a
// documented fallback, not a failure.
func (b *Bridge) resolveProduct(session *CheckoutSession) code.Product {
	if p, ok := b.priceToProduct[session.FirstPriceID()]; ok {
		return p
	}
	if p, ok := code.Parse(session.Metadata["product"]); ok {
		return p
	}
	return code.ProductCPP
}
