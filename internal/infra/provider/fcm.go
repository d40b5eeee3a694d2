package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"dinenotify/internal/domain/notification"
)

var _ notification.Provider = (*FCMProvider)(nil)

// FCMProvider sends push notifications using the FCM legacy HTTP API.
// The recipient address is the device registration token.
type FCMProvider struct {
	serverKey  string
	httpClient *http.Client
}

// NewFCMProvider creates a new FCM push provider.
func NewFCMProvider(serverKey string) *FCMProvider {
	return &FCMProvider{
		serverKey:  serverKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Channel returns the push channel identifier.
func (p *FCMProvider) Channel() notification.Channel {
	return notification.ChannelPush
}

// Name returns the vendor name.
func (p *FCMProvider) Name() string {
	return "fcm"
}

// Send delivers a push message via FCM and returns the FCM message ID.
func (p *FCMProvider) Send(ctx context.Context, msg *notification.Message) (string, error) {
	payload := map[string]any{
		"to": msg.To,
		"notification": map[string]string{
			"body": msg.Body,
		},
	}
	if len(msg.Metadata) > 0 {
		payload["data"] = msg.Metadata
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://fcm.googleapis.com/fcm/send", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+p.serverKey)

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
		return "", fmt.Errorf("fcm: status %d", resp.StatusCode)
	}

	var successResp struct {
		Success int `json:"success"`
		Results []struct {
			MessageID string `json:"message_id"`
			Error     string `json:"error"`
		} `json:"results"`
	}
	if err := json.Unmarshal(respBody, &successResp); err != nil {
		return "", fmt.Errorf("parsing fcm response: %w", err)
	}

	if len(successResp.Results) == 0 {
		return "", fmt.Errorf("fcm: empty results in response")
	}
	if successResp.Results[0].Error != "" {
		return "", fmt.Errorf("fcm: %s", successResp.Results[0].Error)
	}
	if successResp.Results[0].MessageID == "" {
		return strconv.Itoa(successResp.Success), nil
	}
	return successResp.Results[0].MessageID, nil
}
