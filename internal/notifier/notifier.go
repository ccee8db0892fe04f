// Package notifier renders and delivers the product's transactional email.
package notifier

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"hardhat-gateway/internal/domain/code"
	"hardhat-gateway/pkg/mailer"
	"hardhat-gateway/pkg/mailer/providers"
	"hardhat-gateway/pkg/mailer/strategies"
	"hardhat-gateway/pkg/mailer/templates"
)

// Notifier sends access-code and magic-link emails. It satisfies the emailer
// interfaces declared next to their consumers in internal/payment and
// internal/access.
type Notifier struct {
	email    *mailer.EmailService
	siteBase string
}

// New builds a Notifier backed by Resend with a console fallback. With no
// API key only the console provider is registered, so sends degrade to log
// lines instead of failing.
func New(resendAPIKey, fromEmail, siteBase string, logger *log.Logger) (*Notifier, error) {
	var providerList []providers.EmailProvider
	if resendAPIKey != "" {
		providerList = append(providerList, providers.NewResendProvider(providers.ResendConfig{APIKey: resendAPIKey}))
	}
	providerList = append(providerList, providers.NewConsoleProvider(logger))

	email, err := mailer.NewEmailService(mailer.EmailServiceConfig{
		Providers:   providerList,
		Strategy:    &strategies.FailoverStrategy{},
		DefaultFrom: fromEmail,
	})
	if err != nil {
		return nil, err
	}

	return &Notifier{email: email, siteBase: siteBase}, nil
}

// SendAccessCode delivers a single-use purchase code.
func (n *Notifier) SendAccessCode(ctx context.Context, to string, product code.Product, plainCode string, expiresAt time.Time) error {
	_, err := mailer.SendWithTemplate(n.email, templates.AccessCodeTemplate, templates.AccessCodeContext{
		Product:     string(product),
		Code:        plainCode,
		ExpiryLabel: formatDateOnly(expiresAt),
		AccessURL:   n.siteBase + "/access",
	}, &providers.EmailData{
		To:      []string{to},
		Subject: fmt.Sprintf("Your %s access code", product),
	})
	return err
}

// SendMagicLink delivers a monthly code with a prefilled access link.
func (n *Notifier) SendMagicLink(ctx context.Context, to, plainCode string, ttlDays int, expiresAt time.Time) error {
	magic, err := url.Parse(n.siteBase + "/access")
	if err != nil {
		return err
	}
	q := magic.Query()
	q.Set("email", to)
	q.Set("code", plainCode)
	magic.RawQuery = q.Encode()

	_, err = mailer.SendWithTemplate(n.email, templates.MagicLinkTemplate, templates.MagicLinkContext{
		Code:     plainCode,
		TTLDays:  ttlDays,
		MagicURL: magic.String(),
	}, &providers.EmailData{
		To:      []string{to},
		Subject: "Your Hard Hat AI access code",
	})
	return err
}

func formatDateOnly(t time.Time) string {
	if t.IsZero() {
		return "soon"
	}
	return t.UTC().Format("Jan 02, 2006")
}
