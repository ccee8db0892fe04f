package mailer

import (
	"errors"
	"fmt"
	"net/mail"
	"sync"

	"hardhat-gateway/pkg/mailer/providers"
	"hardhat-gateway/pkg/mailer/strategies"
	"hardhat-gateway/pkg/mailer/templates"
)

var (
	ErrEmailDataRequired          = errors.New("email data is required")
	ErrAtLeastOneRecipient        = errors.New("at least one recipient is required")
	ErrSubjectRequired            = errors.New("subject is required")
	ErrHTMLContentRequired        = errors.New("HTML content is required")
	ErrAtLeastOneProviderRequired = errors.New("at least one provider is required")
	ErrProviderCannotBeNil        = errors.New("provider cannot be nil")
	ErrInvalidDefaultFromEmail    = errors.New("invalid default from email")
)

type EmailService struct {
	providers   []providers.EmailProvider
	strategy    strategies.EmailStrategy
	defaultFrom string
	mu          sync.RWMutex
}

type EmailServiceConfig struct {
	Providers   []providers.EmailProvider
	Strategy    strategies.EmailStrategy
	DefaultFrom string
}

func NewEmailService(config EmailServiceConfig) (*EmailService, error) {
	if len(config.Providers) == 0 {
		return nil, ErrAtLeastOneProviderRequired
	}

	providerList := make([]providers.EmailProvider, len(config.Providers))
	copy(providerList, config.Providers)
	for _, provider := range providerList {
		if provider == nil {
			return nil, ErrProviderCannotBeNil
		}
	}

	strategy := config.Strategy
	if strategy == nil {
		strategy = &strategies.FailoverStrategy{}
	}

	if config.DefaultFrom != "" {
		if err := ValidateEmail(config.DefaultFrom); err != nil {
			return nil, ErrInvalidDefaultFromEmail
		}
	}

	return &EmailService{
		providers:   providerList,
		strategy:    strategy,
		defaultFrom: config.DefaultFrom,
	}, nil
}

func (s *EmailService) Send(emailData *providers.EmailData) (*providers.EmailResult, error) {
	if emailData == nil {
		return &providers.EmailResult{
			Success:  false,
			Error:    ErrEmailDataRequired.Error(),
			Provider: "validation",
		}, ErrEmailDataRequired
	}

	s.mu.RLock()
	defaultFrom := s.defaultFrom
	strategy := s.strategy
	providerList := make([]providers.EmailProvider, len(s.providers))
	copy(providerList, s.providers)
	s.mu.RUnlock()

	data := cloneEmailData(emailData)
	if data.From == "" && defaultFrom != "" {
		data.From = defaultFrom
	}

	if err := ValidateEmailData(data); err != nil {
		return &providers.EmailResult{
			Success:  false,
			Error:    err.Error(),
			Provider: "validation",
		}, err
	}

	return strategy.Send(data, providerList)
}

// SendWithTemplate renders a typed template into the email body before
// sending. The caller supplies the envelope in emailData.
func SendWithTemplate[T any](service *EmailService, template *templates.TypedTemplate[T], context T, emailData *providers.EmailData) (*providers.EmailResult, error) {
	if emailData == nil {
		emailData = &providers.EmailData{}
	}

	html, text, err := template.Render(context)
	if err != nil {
		return &providers.EmailResult{
			Success:  false,
			Error:    err.Error(),
			Provider: "template",
		}, err
	}

	data := cloneEmailData(emailData)
	data.HTML = html
	data.Text = text

	return service.Send(data)
}

func (s *EmailService) AddProvider(provider providers.EmailProvider) {
	if provider == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers = append(s.providers, provider)
}

func ValidateEmail(email string) error {
	_, err := mail.ParseAddress(email)
	return err
}

func ValidateEmailData(data *providers.EmailData) error {
	if data == nil {
		return ErrEmailDataRequired
	}

	if len(data.To) == 0 {
		return ErrAtLeastOneRecipient
	}
	for _, to := range data.To {
		if err := ValidateEmail(to); err != nil {
			return fmt.Errorf("invalid recipient %q: %w", to, err)
		}
	}

	if err := ValidateEmail(data.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}

	if data.Subject == "" {
		return ErrSubjectRequired
	}
	if data.HTML == "" {
		return ErrHTMLContentRequired
	}

	if data.ReplyTo != "" {
		if err := ValidateEmail(data.ReplyTo); err != nil {
			return fmt.Errorf("invalid reply-to address: %w", err)
		}
	}

	return nil
}

func cloneEmailData(emailData *providers.EmailData) *providers.EmailData {
	clone := *emailData
	if emailData.To != nil {
		clone.To = append([]string(nil), emailData.To...)
	}
	return &clone
}
