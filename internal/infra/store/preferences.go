package store

import (
	"context"
	"encoding/json"
	"fmt"

	"dinenotify/internal/domain/notification"

	supa "github.com/supabase-community/supabase-go"
)

const preferencesTable = "notification_preferences"

var _ notification.PreferenceSource = (*SupabasePreferenceSource)(nil)

// SupabasePreferenceSource implements PreferenceSource using the Supabase Go
// SDK. Preferences are mutated by the recipient or an admin elsewhere; this
// source only reads, and absence is not an error.
type SupabasePreferenceSource struct {
	client *supa.Client
}

// NewSupabasePreferenceSource creates a new Supabase-backed preference source.
func NewSupabasePreferenceSource(client *supa.Client) *SupabasePreferenceSource {
	return &SupabasePreferenceSource{client: client}
}

// preferencesRow is the internal PostgREST representation of preferences.
// Per-channel opt-ins are stored as one JSONB column keyed by channel.
type preferencesRow struct {
	RecipientID       string                             `json:"recipient_id"`
	Channels          map[string]channelPreferenceColumn `json:"channels"`
	QuietHoursEnabled bool                               `json:"quiet_hours_enabled"`
	QuietHoursStart   string                             `json:"quiet_hours_start"`
	QuietHoursEnd     string                             `json:"quiet_hours_end"`
	Language          *string                            `json:"language,omitempty"`
}

// channelPreferenceColumn mirrors one channel's opt-ins inside the JSONB column.
type channelPreferenceColumn struct {
	Enabled      bool `json:"enabled"`
	Marketing    bool `json:"marketing"`
	OrderUpdates bool `json:"order_updates"`
	Reminders    bool `json:"reminders"`
}

// GetPreferences retrieves a recipient's preferences. Returns nil, nil if no
// record is found.
func (s *SupabasePreferenceSource) GetPreferences(ctx context.Context, recipientID string) (*notification.NotificationPreferences, error) {
	data, _, err := s.client.From(preferencesTable).Select("*", "exact", false).Eq("recipient_id", recipientID).Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching preferences: %w", err)
	}

	var rows []preferencesRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing preferences: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	prefs := &notification.NotificationPreferences{
		RecipientID: row.RecipientID,
		Channels:    make(map[notification.Channel]notification.ChannelPreference, len(row.Channels)),
		QuietHours: notification.QuietHours{
			Enabled: row.QuietHoursEnabled,
			Start:   row.QuietHoursStart,
			End:     row.QuietHoursEnd,
		},
	}
	for ch, col := range row.Channels {
		prefs.Channels[notification.Channel(ch)] = notification.ChannelPreference{
			Enabled:      col.Enabled,
			Marketing:    col.Marketing,
			OrderUpdates: col.OrderUpdates,
			Reminders:    col.Reminders,
		}
	}
	if row.Language != nil {
		prefs.Language = *row.Language
	}
	return prefs, nil
}
