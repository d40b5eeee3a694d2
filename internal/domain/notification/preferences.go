package notification

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// ChannelPreference holds a recipient's opt-ins for one channel: a master
// enablement flag plus per-category sub-flags.
type ChannelPreference struct {
	Enabled      bool `json:"enabled"`
	Marketing    bool `json:"marketing"`
	OrderUpdates bool `json:"order_updates"`
	Reminders    bool `json:"reminders"`
}

// AllowsCategory reports whether this channel preference permits the given
// category. The category to sub-flag mapping is fixed: marketing and
// promotion use the marketing flag, reservation reminders use the reminders
// flag, everything else counts as an order update.
func (p ChannelPreference) AllowsCategory(cat Category) bool {
	switch cat {
	case CategoryMarketing, CategoryPromotion:
		return p.Marketing
	case CategoryReservationReminder:
		return p.Reminders
	default:
		return p.OrderUpdates
	}
}

// QuietHours is a recipient-configured window during which non-critical
// notifications are deferred. Start and End are "HH:MM" local times; a window
// with Start > End wraps past midnight.
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Contains reports whether now falls inside the quiet window.
func (q QuietHours) Contains(now time.Time) bool {
	if !q.Enabled {
		return false
	}
	start, okS := parseClock(q.Start)
	end, okE := parseClock(q.End)
	if !okS || !okE || start == end {
		return false
	}
	minute := now.Hour()*60 + now.Minute()
	if start < end {
		return minute >= start && minute < end
	}
	// Overnight window, e.g. 22:00-08:00.
	return minute >= start || minute < end
}

// NextEnd returns the first instant at or after now when the quiet window
// closes. Only meaningful when Contains(now) is true.
func (q QuietHours) NextEnd(now time.Time) time.Time {
	end, ok := parseClock(q.End)
	if !ok {
		return now
	}
	candidate := time.Date(now.Year(), now.Month(), now.Day(), end/60, end%60, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.Add(24 * time.Hour)
	}
	return candidate
}

// parseClock converts "HH:MM" to minutes past midnight.
func parseClock(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// NotificationPreferences holds one recipient's delivery opt-ins.
// Read-only to the dispatch core; mutated by the recipient or an admin.
type NotificationPreferences struct {
	RecipientID string                        `json:"recipient_id"`
	Channels    map[Channel]ChannelPreference `json:"channels"`
	QuietHours  QuietHours                    `json:"quiet_hours"`
	Language    string                        `json:"language,omitempty"`
}

// ChannelPref returns the preference for a channel, defaulting to disabled
// when the channel has no entry.
func (p NotificationPreferences) ChannelPref(ch Channel) ChannelPreference {
	return p.Channels[ch]
}

// DefaultPreferences is the permissive fallback used when a recipient has no
// stored preferences: every channel enabled except for marketing content.
func DefaultPreferences(recipientID string) NotificationPreferences {
	channels := make(map[Channel]ChannelPreference, len(validChannels))
	for ch := range validChannels {
		channels[ch] = ChannelPreference{
			Enabled:      true,
			Marketing:    false,
			OrderUpdates: true,
			Reminders:    true,
		}
	}
	return NotificationPreferences{
		RecipientID: recipientID,
		Channels:    channels,
	}
}

// PreferenceSource provides read access to stored recipient preferences.
// Implementations live in infra/store/. Returns nil, nil when absent.
type PreferenceSource interface {
	GetPreferences(ctx context.Context, recipientID string) (*NotificationPreferences, error)
}

// PreferenceResolver resolves a recipient's preferences, falling back to the
// permissive default. Absence or a source failure is never a dispatch error.
type PreferenceResolver struct {
	source PreferenceSource
}

// NewPreferenceResolver creates a new preference resolver.
func NewPreferenceResolver(source PreferenceSource) *PreferenceResolver {
	return &PreferenceResolver{source: source}
}

// Resolve returns the recipient's stored preferences or the default.
func (r *PreferenceResolver) Resolve(ctx context.Context, recipientID string) NotificationPreferences {
	if r.source == nil {
		return DefaultPreferences(recipientID)
	}
	prefs, err := r.source.GetPreferences(ctx, recipientID)
	if err != nil {
		slog.Error("preference lookup failed, using defaults", "recipient_id", recipientID, "error", err)
		return DefaultPreferences(recipientID)
	}
	if prefs == nil {
		return DefaultPreferences(recipientID)
	}
	return *prefs
}
