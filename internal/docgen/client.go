package docgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"hardhat-gateway/internal/domain/submission"
	apperrors "hardhat-gateway/pkg/errors"
)

const (
	headerDocgenKey    = "X-DOCGEN-KEY"
	pathGenerate       = "/generate-from-submission"
	pathDownload       = "/download/"
	kickoffTimeout     = 30 * time.Second
	downloadTimeout    = 2 * time.Minute
	maxErrBodySnippet  = 500
	errUnexpectedCode  = "docgen returned status %d: %s"
	errBuildRequestFmt = "failed to build docgen request: %w"
)

// Client talks to the external document-generation service. The generator
// works off the submission row and writes outputs back by side channel; this
// client only kicks generation off and proxies artifact bytes.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: downloadTimeout},
	}
}

type kickoffRequest struct {
	SubmissionID string `json:"submission_id"`
}

// Kickoff asks the generator to process a stored submission. At most one
// attempt is made; callers treat failures as non-fatal and log them.
func (c *Client) Kickoff(ctx context.Context, submissionID string) error {
	body, err := json.Marshal(kickoffRequest{SubmissionID: submissionID})
	if err != nil {
		return fmt.Errorf(errBuildRequestFmt, err)
	}

	ctx, cancel := context.WithTimeout(ctx, kickoffTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathGenerate, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf(errBuildRequestFmt, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(headerDocgenKey, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySnippet))
		return fmt.Errorf(errUnexpectedCode, resp.StatusCode, string(snippet))
	}
	return nil
}

// FetchArtifact streams a generated document for one submission and format.
// The caller owns the returned body and must close it.
func (c *Client) FetchArtifact(ctx context.Context, submissionID string, format submission.Format) (io.ReadCloser, error) {
	u := c.baseURL + pathDownload + url.PathEscape(submissionID) + "?format=" + string(format)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf(errBuildRequestFmt, err)
	}
	if c.apiKey != "" {
		req.Header.Set(headerDocgenKey, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, apperrors.NotFound("artifact not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySnippet))
		resp.Body.Close()
		return nil, fmt.Errorf(errUnexpectedCode, resp.StatusCode, string(snippet))
	}

	return resp.Body, nil
}
