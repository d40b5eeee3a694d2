package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"dinenotify/internal/domain/notification"
)

var _ notification.Provider = (*WhatsAppProvider)(nil)

// WhatsAppProvider sends messages using the WhatsApp Business Cloud API.
// The recipient address is the phone number in international format.
type WhatsAppProvider struct {
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
}

// NewWhatsAppProvider creates a new WhatsApp Cloud API provider.
func NewWhatsAppProvider(accessToken, phoneNumberID string) *WhatsAppProvider {
	return &WhatsAppProvider{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Channel returns the WhatsApp channel identifier.
func (p *WhatsAppProvider) Channel() notification.Channel {
	return notification.ChannelWhatsApp
}

// Name returns the vendor name.
func (p *WhatsAppProvider) Name() string {
	return "meta"
}

// Send delivers a WhatsApp text message and returns the message ID.
func (p *WhatsAppProvider) Send(ctx context.Context, msg *notification.Message) (string, error) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                msg.To,
		"type":              "text",
		"text": map[string]string{
			"body": msg.Body,
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling whatsapp payload: %w", err)
	}

	endpoint := fmt.Sprintf("https://graph.facebook.com/v18.0/%s/messages", p.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(respBody, &errResp)

		message := errResp.Error.Message
		if message == "" {
			message = fmt.Sprintf("whatsapp API error: status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("whatsapp: %s", message)
	}

	var successResp struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(respBody, &successResp); err != nil {
		return "", fmt.Errorf("parsing whatsapp response: %w", err)
	}

	if len(successResp.Messages) == 0 {
		return "", fmt.Errorf("whatsapp: empty messages in response")
	}
	return successResp.Messages[0].ID, nil
}
