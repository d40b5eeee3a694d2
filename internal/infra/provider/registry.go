package provider

import (
	"context"
	"fmt"
	"log/slog"

	"dinenotify/internal/config"
	"dinenotify/internal/domain/notification"
)

// BuildRegistry assembles the provider registry from configuration. One
// vendor is selected per channel at startup; an unknown vendor name is a
// startup error, a channel with no credentials is skipped and logged. The
// registry never changes after this point.
func BuildRegistry(ctx context.Context, cfg *config.ProvidersConfig) (*notification.Registry, error) {
	var providers []notification.Provider

	if cfg.Email.APIKey != "" {
		switch cfg.Email.Provider {
		case "resend":
			providers = append(providers, NewResendProvider(cfg.Email.APIKey, cfg.Email.FromAddress, cfg.Email.FromName))
		default:
			return nil, fmt.Errorf("unknown email provider: %s", cfg.Email.Provider)
		}
	} else {
		slog.Warn("email channel not configured, skipping")
	}

	switch cfg.SMS.Provider {
	case "kavenegar":
		if cfg.SMS.APIKey != "" {
			providers = append(providers, NewKavenegarProvider(cfg.SMS.APIKey, cfg.SMS.FromNumber))
		} else {
			slog.Warn("sms channel not configured, skipping")
		}
	case "twilio":
		if cfg.SMS.AccountSID != "" {
			providers = append(providers, NewTwilioProvider(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber))
		} else {
			slog.Warn("sms channel not configured, skipping")
		}
	case "sns":
		if cfg.SMS.AWSRegion != "" {
			p, err := NewSNSProvider(ctx, cfg.SMS.AWSRegion)
			if err != nil {
				return nil, fmt.Errorf("initializing sns provider: %w", err)
			}
			providers = append(providers, p)
		} else {
			slog.Warn("sms channel not configured, skipping")
		}
	default:
		return nil, fmt.Errorf("unknown sms provider: %s", cfg.SMS.Provider)
	}

	if cfg.Push.ServerKey != "" {
		switch cfg.Push.Provider {
		case "fcm":
			providers = append(providers, NewFCMProvider(cfg.Push.ServerKey))
		default:
			return nil, fmt.Errorf("unknown push provider: %s", cfg.Push.Provider)
		}
	} else {
		slog.Warn("push channel not configured, skipping")
	}

	if cfg.WhatsApp.AccessToken != "" {
		switch cfg.WhatsApp.Provider {
		case "meta":
			providers = append(providers, NewWhatsAppProvider(cfg.WhatsApp.AccessToken, cfg.WhatsApp.PhoneNumberID))
		default:
			return nil, fmt.Errorf("unknown whatsapp provider: %s", cfg.WhatsApp.Provider)
		}
	} else {
		slog.Warn("whatsapp channel not configured, skipping")
	}

	if cfg.Telegram.BotToken != "" {
		switch cfg.Telegram.Provider {
		case "telegram":
			providers = append(providers, NewTelegramProvider(cfg.Telegram.BotToken))
		default:
			return nil, fmt.Errorf("unknown telegram provider: %s", cfg.Telegram.Provider)
		}
	} else {
		slog.Warn("telegram channel not configured, skipping")
	}

	// The webhook channel needs no credentials; it is always on.
	providers = append(providers, NewWebhookProvider(cfg.Webhook.SharedSecret))

	registry := notification.NewRegistry(providers...)
	slog.Info("provider registry assembled", "channels", registry.Channels())
	return registry, nil
}
