package notification

import "context"

// Message is the rendered content handed to a provider for one channel.
type Message struct {
	// To is the channel-specific address: phone number, email address, push
	// token, chat id or webhook URL.
	To string

	// Subject is only populated for the email channel.
	Subject string

	// Body is the rendered template body.
	Body string

	// Metadata carries opaque request metadata through to the provider.
	Metadata map[string]string
}

// Provider is the delivery capability for one channel. Implementations are
// vendor-specific, live in infra/provider/, carry their own credentials and
// are stateless per call.
type Provider interface {
	// Send delivers a rendered message and returns the provider's message ID.
	Send(ctx context.Context, msg *Message) (string, error)

	// Channel returns which delivery channel this provider handles.
	Channel() Channel

	// Name returns the vendor name, used in error reporting.
	Name() string
}

// Registry maps each channel to its single active provider. The active
// vendor per channel is selected at configuration time; the registry is
// immutable after process start, so reads need no locking.
type Registry struct {
	providers map[Channel]Provider
}

// NewRegistry creates a registry from the given providers. A later provider
// for the same channel replaces an earlier one.
func NewRegistry(providers ...Provider) *Registry {
	pm := make(map[Channel]Provider, len(providers))
	for _, p := range providers {
		pm[p.Channel()] = p
	}
	return &Registry{providers: pm}
}

// For returns the active provider for a channel, if one is configured.
func (r *Registry) For(ch Channel) (Provider, bool) {
	p, ok := r.providers[ch]
	return p, ok
}

// Channels returns the channels that have an active provider.
func (r *Registry) Channels() []Channel {
	channels := make([]Channel, 0, len(r.providers))
	for ch := range r.providers {
		channels = append(channels, ch)
	}
	return channels
}
