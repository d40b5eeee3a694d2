package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dinenotify/internal/domain/notification"

	"github.com/google/uuid"
)

var _ notification.Provider = (*WebhookProvider)(nil)

// WebhookProvider posts the rendered notification as JSON to the
// recipient-supplied URL. The recipient address is the target URL.
type WebhookProvider struct {
	sharedSecret string
	httpClient   *http.Client
}

// NewWebhookProvider creates a new generic webhook provider. When a shared
// secret is configured it is sent in the X-Webhook-Secret header so the
// receiver can authenticate the call.
func NewWebhookProvider(sharedSecret string) *WebhookProvider {
	return &WebhookProvider{
		sharedSecret: sharedSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Channel returns the webhook channel identifier.
func (p *WebhookProvider) Channel() notification.Channel {
	return notification.ChannelWebhook
}

// Name returns the vendor name.
func (p *WebhookProvider) Name() string {
	return "webhook"
}

// webhookBody is the JSON document posted to the receiver.
type webhookBody struct {
	MessageID string            `json:"message_id"`
	Body      string            `json:"body"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	SentAt    time.Time         `json:"sent_at"`
}

// Send posts the notification and returns a locally generated message ID
// (webhook receivers assign none of their own).
func (p *WebhookProvider) Send(ctx context.Context, msg *notification.Message) (string, error) {
	messageID := uuid.New().String()

	jsonData, err := json.Marshal(webhookBody{
		MessageID: messageID,
		Body:      msg.Body,
		Metadata:  msg.Metadata,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, msg.To, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.sharedSecret != "" {
		req.Header.Set("X-Webhook-Secret", p.sharedSecret)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("webhook: receiver returned status %d", resp.StatusCode)
	}

	return messageID, nil
}
