package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dinenotify/internal/domain/notification"
)

var _ notification.Provider = (*TwilioProvider)(nil)

// TwilioProvider sends SMS messages using the Twilio Messages API.
type TwilioProvider struct {
	accountSID string
	authToken  string
	fromNumber string
	httpClient *http.Client
}

// NewTwilioProvider creates a new Twilio SMS provider.
func NewTwilioProvider(accountSID, authToken, fromNumber string) *TwilioProvider {
	return &TwilioProvider{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Channel returns the SMS channel identifier.
func (p *TwilioProvider) Channel() notification.Channel {
	return notification.ChannelSMS
}

// Name returns the vendor name.
func (p *TwilioProvider) Name() string {
	return "twilio"
}

// Send delivers an SMS via the Twilio API and returns the message SID.
func (p *TwilioProvider) Send(ctx context.Context, msg *notification.Message) (string, error) {
	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", p.fromNumber)
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", p.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.accountSID, p.authToken)

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
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &errResp)

		message := errResp.Message
		if message == "" {
			message = fmt.Sprintf("twilio API error: status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("twilio: %s", message)
	}

	var successResp struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(respBody, &successResp); err != nil {
		return "", fmt.Errorf("parsing twilio response: %w", err)
	}

	return successResp.SID, nil
}
