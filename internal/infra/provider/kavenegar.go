package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dinenotify/internal/domain/notification"
)

var _ notification.Provider = (*KavenegarProvider)(nil)

// KavenegarProvider sends SMS messages using the Kavenegar REST API.
type KavenegarProvider struct {
	apiKey     string
	fromNumber string
	httpClient *http.Client
}

// NewKavenegarProvider creates a new Kavenegar SMS provider.
func NewKavenegarProvider(apiKey, fromNumber string) *KavenegarProvider {
	return &KavenegarProvider{
		apiKey:     apiKey,
		fromNumber: fromNumber,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Channel returns the SMS channel identifier.
func (p *KavenegarProvider) Channel() notification.Channel {
	return notification.ChannelSMS
}

// Name returns the vendor name.
func (p *KavenegarProvider) Name() string {
	return "kavenegar"
}

// Send delivers an SMS via the Kavenegar API and returns the message ID.
func (p *KavenegarProvider) Send(ctx context.Context, msg *notification.Message) (string, error) {
	form := url.Values{}
	form.Set("receptor", msg.To)
	form.Set("message", msg.Body)
	if p.fromNumber != "" {
		form.Set("sender", p.fromNumber)
	}

	endpoint := fmt.Sprintf("https://api.kavenegar.com/v1/%s/sms/send.json", p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

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
		Return struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"return"`
		Entries []struct {
			MessageID int64 `json:"messageid"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("parsing kavenegar response: %w", err)
	}

	if resp.StatusCode >= 400 || apiResp.Return.Status != 200 {
		message := apiResp.Return.Message
		if message == "" {
			message = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("kavenegar: %s", message)
	}

	if len(apiResp.Entries) == 0 {
		return "", fmt.Errorf("kavenegar: empty entries in response")
	}
	return strconv.FormatInt(apiResp.Entries[0].MessageID, 10), nil
}
