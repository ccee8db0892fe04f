package strategies

import (
	"errors"
	"fmt"
	"strings"

	"hardhat-gateway/pkg/mailer/providers"
)

var (
	errNoProvidersConfigured = errors.New("no email providers configured")
	errAllProvidersFailed    = errors.New("all email providers failed")
)

// FailoverStrategy tries providers in order and returns the first success.
type FailoverStrategy struct{}

func (s *FailoverStrategy) Send(emailData *providers.EmailData, providerList []providers.EmailProvider) (*providers.EmailResult, error) {
	if len(providerList) == 0 {
		return &providers.EmailResult{
			Success:  false,
			Error:    errNoProvidersConfigured.Error(),
			Provider: "none",
		}, errNoProvidersConfigured
	}

	var errorMessages []string

	for _, provider := range providerList {
		if provider == nil {
			continue
		}

		result, err := provider.Send(emailData)
		if result != nil && result.Success {
			return result, nil
		}

		errorText := "send failed"
		if result != nil && result.Error != "" {
			errorText = result.Error
		} else if err != nil {
			errorText = err.Error()
		}

		errorMessages = append(errorMessages, fmt.Sprintf("%s: %s", provider.GetName(), errorText))
	}

	return &providers.EmailResult{
		Success:  false,
		Error:    fmt.Sprintf("%s: %s", errAllProvidersFailed.Error(), strings.Join(errorMessages, "; ")),
		Provider: "failover",
	}, errAllProvidersFailed
}
