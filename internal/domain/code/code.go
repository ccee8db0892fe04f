package code

import (
	"time"

	"github.com/google/uuid"
)

// Product is the closed set of document types the generator can produce.
type Product string

const (
	ProductCPP  Product = "CPP"
	ProductRAMS Product = "RAMS"
)

// Parse returns the product for a raw form value, or false when it names
// neither known product.
func Parse(raw string) (Product, bool) {
	switch Product(raw) {
	case ProductCPP:
		return ProductCPP, true
	case ProductRAMS:
		return ProductRAMS, true
	}
	return "", false
}

// Customer is created lazily on first code issuance and never deleted.
type Customer struct {
	ID        uuid.UUID
	Email     string
	CreatedAt time.Time
}

// MonthlyCode is a hashed, subscription-style access code scoped to one
// calendar month per customer. The plaintext is never persisted.
type MonthlyCode struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	MonthKey   time.Time
	CodeHash   string
	ExpiresAt  time.Time
	Used       bool
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// AccessLink is the purchase-issued variant keyed by (email, code hash)
// directly. Depending on the entry path it is treated as reusable-until-expiry
// or as a one-time token.
type AccessLink struct {
	ID         uuid.UUID
	Email      string
	CodeHash   string
	Product    Product
	ExpiresAt  time.Time
	Used       bool
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

type SaveMonthlyCodeInput struct {
	CustomerID uuid.UUID
	CodeHash   string
	ExpiresAt  time.Time
	MonthKey   time.Time
}

type CreateAccessLinkInput struct {
	Email     string
	CodeHash  string
	Product   Product
	ExpiresAt time.Time
}

// MonthKeyUTC buckets a timestamp to the first instant of its UTC month.
func MonthKeyUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}
