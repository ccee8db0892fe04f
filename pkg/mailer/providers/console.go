package providers

import (
	"log"
	"strings"
)

const providerConsole = "console"

// ConsoleProvider writes the email to the process log instead of sending it.
// It never fails, which makes it the terminal fallback in development and in
// deployments with no mail credentials.
type ConsoleProvider struct {
	BaseProvider
	Logger *log.Logger
}

func NewConsoleProvider(logger *log.Logger) *ConsoleProvider {
	if logger == nil {
		logger = log.Default()
	}
	return &ConsoleProvider{
		BaseProvider: BaseProvider{ProviderName: providerConsole},
		Logger:       logger,
	}
}

func (p *ConsoleProvider) Send(emailData *EmailData) (*EmailResult, error) {
	body := emailData.Text
	if body == "" {
		body = emailData.HTML
	}

	p.Logger.Printf("[DEV email] to=%s subject=%q\n%s",
		strings.Join(emailData.To, ","), emailData.Subject, body)

	return &EmailResult{
		Success:  true,
		Provider: p.ProviderName,
	}, nil
}
