package strategies

import (
	"errors"
	"testing"

	"hardhat-gateway/pkg/mailer/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name   string
	result *providers.EmailResult
	err    error
	calls  int
}

func (p *stubProvider) Send(_ *providers.EmailData) (*providers.EmailResult, error) {
	p.calls++
	return p.result, p.err
}

func (p *stubProvider) GetName() string { return p.name }

func testEmail() *providers.EmailData {
	return &providers.EmailData{
		To:      []string{"buyer@example.com"},
		From:    "no-reply@hardhatai.co",
		Subject: "Test",
		HTML:    "<p>Test</p>",
	}
}

func TestFailoverStrategy_FirstSuccessWins(t *testing.T) {
	first := &stubProvider{name: "resend", result: &providers.EmailResult{Success: true, Provider: "resend"}}
	second := &stubProvider{name: "console", result: &providers.EmailResult{Success: true, Provider: "console"}}

	s := &FailoverStrategy{}
	result, err := s.Send(testEmail(), []providers.EmailProvider{first, second})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "resend", result.Provider)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestFailoverStrategy_FallsThroughOnFailure(t *testing.T) {
	first := &stubProvider{name: "resend", err: errors.New("api unreachable")}
	second := &stubProvider{name: "console", result: &providers.EmailResult{Success: true, Provider: "console"}}

	s := &FailoverStrategy{}
	result, err := s.Send(testEmail(), []providers.EmailProvider{first, second})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "console", result.Provider)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestFailoverStrategy_AllFail(t *testing.T) {
	first := &stubProvider{name: "resend", err: errors.New("api unreachable")}
	second := &stubProvider{name: "console", result: &providers.EmailResult{Success: false, Error: "disk full"}}

	s := &FailoverStrategy{}
	result, err := s.Send(testEmail(), []providers.EmailProvider{first, second})

	require.ErrorIs(t, err, errAllProvidersFailed)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "resend: api unreachable")
	assert.Contains(t, result.Error, "console: disk full")
}

func TestFailoverStrategy_NoProviders(t *testing.T) {
	s := &FailoverStrategy{}
	result, err := s.Send(testEmail(), nil)

	require.ErrorIs(t, err, errNoProvidersConfigured)
	assert.False(t, result.Success)
}
