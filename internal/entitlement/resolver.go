package entitlement

import (
	"context"

	"hardhat-gateway/internal/access"
	"hardhat-gateway/internal/domain/code"
	"hardhat-gateway/internal/repository"
)

// Entitlements reports which products an email currently holds valid access
// to. DefaultProduct is set only when exactly one product is held; with both,
// the caller disambiguates (explicit choice, then code product, then last-used
// product).
type Entitlements struct {
	HasCPP         bool
	HasRAMS        bool
	DefaultProduct code.Product
}

type Resolver struct {
	links repository.AccessLinkRepository
}

func NewResolver(links repository.AccessLinkRepository) *Resolver {
	return &Resolver{links: links}
}

// Resolve re-reads storage on every call; entitlement is time-sensitive and is
// never cached across requests.
func (r *Resolver) Resolve(ctx context.Context, email string) (Entitlements, error) {
	active, err := r.links.ListActive(ctx, access.CanonicalEmail(email))
	if err != nil {
		return Entitlements{}, err
	}

	var ent Entitlements
	for _, link := range active {
		switch link.Product {
		case code.ProductCPP:
			ent.HasCPP = true
		case code.ProductRAMS:
			ent.HasRAMS = true
		}
	}

	switch {
	case ent.HasCPP && !ent.HasRAMS:
		ent.DefaultProduct = code.ProductCPP
	case ent.HasRAMS && !ent.HasCPP:
		ent.DefaultProduct = code.ProductRAMS
	}

	return ent, nil
}
