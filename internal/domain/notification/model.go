package notification

import "time"

// Channel represents a notification delivery channel.
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
	ChannelPush     Channel = "push"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelTelegram Channel = "telegram"
	ChannelWebhook  Channel = "webhook"
)

// validChannels is the closed set of recognized channels.
var validChannels = map[Channel]bool{
	ChannelSMS:      true,
	ChannelEmail:    true,
	ChannelPush:     true,
	ChannelWhatsApp: true,
	ChannelTelegram: true,
	ChannelWebhook:  true,
}

// IsValidChannel checks whether a channel is recognized.
func IsValidChannel(c Channel) bool {
	return validChannels[c]
}

// Category enumerates the business reasons a notification can be sent.
type Category string

const (
	CategoryOrderConfirmation   Category = "order_confirmation"
	CategoryOrderStatus         Category = "order_status"
	CategoryPaymentConfirmation Category = "payment_confirmation"
	CategoryDeliveryUpdate      Category = "delivery_update"
	CategoryReservationReminder Category = "reservation_reminder"
	CategoryMarketing           Category = "marketing"
	CategorySystemAlert         Category = "system_alert"
	CategoryBirthday            Category = "birthday"
	CategoryLoyaltyPoints       Category = "loyalty_points"
	CategoryPromotion           Category = "promotion"
)

// validCategories is the closed set of recognized categories.
var validCategories = map[Category]bool{
	CategoryOrderConfirmation:   true,
	CategoryOrderStatus:         true,
	CategoryPaymentConfirmation: true,
	CategoryDeliveryUpdate:      true,
	CategoryReservationReminder: true,
	CategoryMarketing:           true,
	CategorySystemAlert:         true,
	CategoryBirthday:            true,
	CategoryLoyaltyPoints:       true,
	CategoryPromotion:           true,
}

// IsValidCategory checks whether a category is recognized.
func IsValidCategory(c Category) bool {
	return validCategories[c]
}

// Priority orders notifications by urgency. Critical priority bypasses
// quiet-hour deferral.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// validPriorities is the closed set of recognized priorities.
var validPriorities = map[Priority]bool{
	PriorityLow:      true,
	PriorityNormal:   true,
	PriorityHigh:     true,
	PriorityCritical: true,
}

// IsValidPriority checks whether a priority is recognized.
func IsValidPriority(p Priority) bool {
	return validPriorities[p]
}

// VariableFormat tags how a template variable value is rendered.
type VariableFormat string

const (
	FormatNone     VariableFormat = ""
	FormatCurrency VariableFormat = "currency"
	FormatDate     VariableFormat = "date"
	FormatTime     VariableFormat = "time"
	FormatNumber   VariableFormat = "number"
)

// IsValidFormat checks whether a variable format tag is recognized.
func IsValidFormat(f VariableFormat) bool {
	switch f {
	case FormatNone, FormatCurrency, FormatDate, FormatTime, FormatNumber:
		return true
	}
	return false
}

// TemplateVariable is one substitutable value supplied with a request.
// Values arrive as strings or JSON numbers; they are not persisted.
type TemplateVariable struct {
	Key    string         `json:"key"`
	Value  any            `json:"value"`
	Format VariableFormat `json:"format,omitempty"`
}

// Recipient describes who a notification is addressed to, with one
// channel-specific address per channel the caller intends to use.
type Recipient struct {
	ID         string `json:"id"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	PushToken  string `json:"push_token,omitempty"`
	ChatID     string `json:"chat_id,omitempty"`
	WebhookURL string `json:"webhook_url,omitempty"`
	Language   string `json:"language,omitempty"`
}

// AddressFor returns the recipient's address for the given channel, or an
// empty string when none is known. WhatsApp reuses the phone number.
func (r Recipient) AddressFor(ch Channel) string {
	switch ch {
	case ChannelSMS, ChannelWhatsApp:
		return r.Phone
	case ChannelEmail:
		return r.Email
	case ChannelPush:
		return r.PushToken
	case ChannelTelegram:
		return r.ChatID
	case ChannelWebhook:
		return r.WebhookURL
	}
	return ""
}

// NotificationRequest is a single logical notification to fan out across the
// requested channels. Immutable once submitted.
type NotificationRequest struct {
	ID          string             `json:"id"`
	Category    Category           `json:"category"`
	Channels    []Channel          `json:"channels"`
	Recipient   Recipient          `json:"recipient"`
	TemplateID  string             `json:"template_id"`
	Variables   []TemplateVariable `json:"variables,omitempty"`
	Priority    Priority           `json:"priority"`
	ScheduledAt *time.Time         `json:"scheduled_at,omitempty"`
	ExpiresAt   *time.Time         `json:"expires_at,omitempty"`
	Metadata    map[string]string  `json:"metadata,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}
