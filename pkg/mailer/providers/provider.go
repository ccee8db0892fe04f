package providers

// EmailProvider is a single delivery backend. Providers report per-send
// outcomes through EmailResult in addition to the error, so strategies can
// aggregate failures across providers.
type EmailProvider interface {
	Send(emailData *EmailData) (*EmailResult, error)
	GetName() string
}

type BaseProvider struct {
	APIKey       string
	ProviderName string
}

func (p *BaseProvider) GetName() string {
	return p.ProviderName
}

type EmailData struct {
	To      []string
	From    string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
}

type EmailResult struct {
	Success   bool
	MessageID string
	Error     string
	Provider  string
}
