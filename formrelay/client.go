// Package formrelay submits contact-form style payloads to the hosted form
// relay endpoint.
package formrelay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Submission is one form payload. Extra fields are forwarded verbatim
// alongside the standard trio.
type Submission struct {
	Name    string
	Email   string
	Message string
	Extra   map[string]string
}

// Validate checks the submission before any network call.
func (s Submission) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&s.Email, validation.Required, is.Email),
		validation.Field(&s.Message, validation.Required),
	)
}

// relayResponse mirrors the relay's JSON body.
type relayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Client posts submissions to one relay endpoint with one access key.
type Client struct {
	endpoint  string
	accessKey string
	http      *http.Client
	logger    *slog.Logger
}

// New creates a relay client.
func New(endpoint, accessKey string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("formrelay: endpoint is required")
	}
	if accessKey == "" {
		return nil, fmt.Errorf("formrelay: access key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{endpoint: endpoint, accessKey: accessKey, http: httpClient, logger: logger}, nil
}

// Submit validates the submission and posts it as multipart form data. A
// non-2xx status or a success=false body is an error; the relay response
// message, when present, is included.
func (c *Client) Submit(ctx context.Context, sub Submission) error {
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("formrelay: invalid submission: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"access_key": c.accessKey,
		"name":       sub.Name,
		"email":      sub.Email,
		"message":    sub.Message,
	}
	for k, v := range sub.Extra {
		fields[k] = v
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("formrelay: encode field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("formrelay: encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return fmt.Errorf("formrelay: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("formrelay: submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("formrelay: relay returned status %d", resp.StatusCode)
	}

	var parsed relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("formrelay: malformed relay response: %w", err)
	}
	if !parsed.Success {
		if parsed.Message != "" {
			return fmt.Errorf("formrelay: relay rejected submission: %s", parsed.Message)
		}
		return fmt.Errorf("formrelay: relay rejected submission")
	}

	c.logger.Debug("form submitted", "email", sub.Email)
	return nil
}
