package mailer

import (
	"testing"

	"hardhat-gateway/pkg/mailer/providers"
	"hardhat-gateway/pkg/mailer/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProvider struct {
	sent []*providers.EmailData
}

func (p *recordingProvider) Send(data *providers.EmailData) (*providers.EmailResult, error) {
	p.sent = append(p.sent, data)
	return &providers.EmailResult{Success: true, MessageID: "msg_1", Provider: "recording"}, nil
}

func (p *recordingProvider) GetName() string { return "recording" }

func newTestService(t *testing.T, provider providers.EmailProvider) *EmailService {
	t.Helper()
	service, err := NewEmailService(EmailServiceConfig{
		Providers:   []providers.EmailProvider{provider},
		DefaultFrom: "no-reply@hardhatai.co",
	})
	require.NoError(t, err)
	return service
}

func TestNewEmailService_Validation(t *testing.T) {
	_, err := NewEmailService(EmailServiceConfig{})
	assert.ErrorIs(t, err, ErrAtLeastOneProviderRequired)

	_, err = NewEmailService(EmailServiceConfig{Providers: []providers.EmailProvider{nil}})
	assert.ErrorIs(t, err, ErrProviderCannotBeNil)

	_, err = NewEmailService(EmailServiceConfig{
		Providers:   []providers.EmailProvider{&recordingProvider{}},
		DefaultFrom: "not an address",
	})
	assert.ErrorIs(t, err, ErrInvalidDefaultFromEmail)
}

func TestEmailService_Send(t *testing.T) {
	provider := &recordingProvider{}
	service := newTestService(t, provider)

	result, err := service.Send(&providers.EmailData{
		To:      []string{"buyer@example.com"},
		Subject: "Your access code",
		HTML:    "<p>ABCD2345</p>",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	require.Len(t, provider.sent, 1)
	// The default from fills in without mutating the caller's struct.
	assert.Equal(t, "no-reply@hardhatai.co", provider.sent[0].From)
}

func TestEmailService_Send_Validation(t *testing.T) {
	provider := &recordingProvider{}
	service := newTestService(t, provider)

	_, err := service.Send(nil)
	assert.ErrorIs(t, err, ErrEmailDataRequired)

	_, err = service.Send(&providers.EmailData{Subject: "s", HTML: "<p/>"})
	assert.ErrorIs(t, err, ErrAtLeastOneRecipient)

	_, err = service.Send(&providers.EmailData{To: []string{"buyer@example.com"}, HTML: "<p/>"})
	assert.ErrorIs(t, err, ErrSubjectRequired)

	_, err = service.Send(&providers.EmailData{To: []string{"buyer@example.com"}, Subject: "s"})
	assert.ErrorIs(t, err, ErrHTMLContentRequired)

	assert.Empty(t, provider.sent)
}

func TestSendWithTemplate(t *testing.T) {
	provider := &recordingProvider{}
	service := newTestService(t, provider)

	result, err := SendWithTemplate(service, templates.AccessCodeTemplate, templates.AccessCodeContext{
		Product:     "CPP",
		Code:        "ABCD23",
		ExpiryLabel: "Sep 27, 2026",
		AccessURL:   "https://hardhat.example/access",
	}, &providers.EmailData{
		To:      []string{"buyer@example.com"},
		Subject: "Your CPP access code",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	require.Len(t, provider.sent, 1)
	sent := provider.sent[0]
	assert.Contains(t, sent.HTML, "ABCD23")
	assert.Contains(t, sent.HTML, "https://hardhat.example/access")
	assert.Contains(t, sent.Text, "ABCD23")
}

func TestMagicLinkTemplateRenders(t *testing.T) {
	html, text, err := templates.MagicLinkTemplate.Render(templates.MagicLinkContext{
		Code:     "WXYZ2345",
		TTLDays:  30,
		MagicURL: "https://hardhat.example/access?email=buyer%40example.com&code=WXYZ2345",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "WXYZ2345")
	assert.Contains(t, html, "https://hardhat.example/access")
	assert.Contains(t, text, "WXYZ2345")
}
