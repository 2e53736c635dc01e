package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var ErrWebhookNotConfigured = errors.New("notification webhook url is not configured")

type webhookPayload struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// WebhookSink POSTs notifications as JSON to an external notification service.
type WebhookSink struct {
	url    string
	client *http.Client
}

func NewWebhookSink(url string, client *http.Client) (*WebhookSink, error) {
	if url == "" {
		return nil, ErrWebhookNotConfigured
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookSink{url: url, client: client}, nil
}

func (s *WebhookSink) Deliver(ctx context.Context, recipient, subject, body string) error {
	payload, err := json.Marshal(webhookPayload{Email: recipient, Subject: subject, Message: body})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification service returned %s", resp.Status)
	}
	return nil
}
