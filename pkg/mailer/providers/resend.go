package providers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	resendAPIURL     = "https://api.resend.com"
	pathResendEmails = "/emails"
	providerResend   = "resend"
)

var errAPIKeyRequired = errors.New("resend API key is required")

type ResendProvider struct {
	BaseProvider
	APIURL string

	client *http.Client
}

type ResendConfig struct {
	APIKey string
	APIURL string
}

func NewResendProvider(config ResendConfig) *ResendProvider {
	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = resendAPIURL
	}

	return &ResendProvider{
		BaseProvider: BaseProvider{
			APIKey:       config.APIKey,
			ProviderName: providerResend,
		},
		APIURL: apiURL,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *ResendProvider) Send(emailData *EmailData) (*EmailResult, error) {
	if p.APIKey == "" {
		return p.failure(errAPIKeyRequired.Error()), errAPIKeyRequired
	}

	payload := map[string]interface{}{
		"from":    emailData.From,
		"to":      emailData.To,
		"subject": emailData.Subject,
		"html":    emailData.HTML,
	}

	if emailData.Text != "" {
		payload["text"] = emailData.Text
	}
	if emailData.ReplyTo != "" {
		payload["reply_to"] = emailData.ReplyTo
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return p.failure(fmt.Sprintf("failed to marshal payload: %v", err)), err
	}

	req, err := http.NewRequest(http.MethodPost, p.APIURL+pathResendEmails, bytes.NewBuffer(jsonData))
	if err != nil {
		return p.failure(fmt.Sprintf("failed to create request: %v", err)), err
	}

	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return p.failure(fmt.Sprintf("request failed: %v", err)), err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := fmt.Errorf("resend API returned status %d", resp.StatusCode)
		return p.failure(fmt.Sprintf("resend API error (%d): %s", resp.StatusCode, string(body))), apiErr
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return p.failure(fmt.Sprintf("failed to parse response: %v", err)), err
	}

	return &EmailResult{
		Success:   true,
		MessageID: result.ID,
		Provider:  p.ProviderName,
	}, nil
}

func (p *ResendProvider) failure(message string) *EmailResult {
	return &EmailResult{
		Success:  false,
		Error:    message,
		Provider: p.ProviderName,
	}
}
