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

var _ notification.Provider = (*TelegramProvider)(nil)

// TelegramProvider sends messages using the Telegram Bot API.
// The recipient address is the chat id.
type TelegramProvider struct {
	botToken   string
	httpClient *http.Client
}

// NewTelegramProvider creates a new Telegram bot provider.
func NewTelegramProvider(botToken string) *TelegramProvider {
	return &TelegramProvider{
		botToken:   botToken,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Channel returns the Telegram channel identifier.
func (p *TelegramProvider) Channel() notification.Channel {
	return notification.ChannelTelegram
}

// Name returns the vendor name.
func (p *TelegramProvider) Name() string {
	return "telegram"
}

// Send delivers a message via sendMessage and returns the message ID.
func (p *TelegramProvider) Send(ctx context.Context, msg *notification.Message) (string, error) {
	payload := map[string]any{
		"chat_id": msg.To,
		"text":    msg.Body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling telegram payload: %w", err)
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", p.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var apiResp struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
		Result      struct {
			MessageID int64 `json:"message_id"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("parsing telegram response: %w", err)
	}

	if !apiResp.OK {
		message := apiResp.Description
		if message == "" {
			message = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("telegram: %s", message)
	}

	return strconv.FormatInt(apiResp.Result.MessageID, 10), nil
}
