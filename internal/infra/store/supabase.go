package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dinenotify/internal/domain/notification"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

const statusTable = "notification_statuses"

var _ notification.StatusStore = (*SupabaseStatusStore)(nil)

// NewSupabaseClient creates the shared Supabase client used by the stores.
func NewSupabaseClient(supabaseURL, serviceKey string) (*supa.Client, error) {
	client, err := supa.NewClient(supabaseURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return client, nil
}

// SupabaseStatusStore implements StatusStore using the Supabase Go SDK.
type SupabaseStatusStore struct {
	client *supa.Client
}

// NewSupabaseStatusStore creates a new Supabase-backed status store.
func NewSupabaseStatusStore(client *supa.Client) *SupabaseStatusStore {
	return &SupabaseStatusStore{client: client}
}

// statusRow is the internal representation for Supabase PostgREST insert/update.
type statusRow struct {
	ID                string            `json:"id"`
	RequestID         string            `json:"request_id"`
	RecipientID       *string           `json:"recipient_id,omitempty"`
	Channel           string            `json:"channel"`
	State             string            `json:"state"`
	ProviderMessageID *string           `json:"provider_message_id,omitempty"`
	ErrorMessage      *string           `json:"error_message,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	SentAt            *string           `json:"sent_at,omitempty"`
	DeliveredAt       *string           `json:"delivered_at,omitempty"`
	ReadAt            *string           `json:"read_at,omitempty"`
	ExpiresAt         *string           `json:"expires_at,omitempty"`
	CreatedAt         string            `json:"created_at,omitempty"`
	UpdatedAt         string            `json:"updated_at,omitempty"`
}

// Create inserts a new status record.
func (s *SupabaseStatusStore) Create(ctx context.Context, st *notification.NotificationStatus) error {
	row := statusRow{
		ID:        st.ID,
		RequestID: st.RequestID,
		Channel:   string(st.Channel),
		State:     string(st.State),
		CreatedAt: st.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: st.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if st.ProviderMessageID != "" {
		row.ProviderMessageID = &st.ProviderMessageID
	}
	if st.Error != "" {
		row.ErrorMessage = &st.Error
	}
	if len(st.Metadata) > 0 {
		row.Metadata = st.Metadata
	}
	if st.ExpiresAt != nil {
		formatted := st.ExpiresAt.UTC().Format(time.RFC3339Nano)
		row.ExpiresAt = &formatted
	}
	if st.SentAt != nil {
		formatted := st.SentAt.UTC().Format(time.RFC3339Nano)
		row.SentAt = &formatted
	}

	_, _, err := s.client.From(statusTable).Insert(row, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("inserting status: %w", err)
	}
	return nil
}

// GetByID retrieves a status by its ID. Returns nil, nil if no record is found.
func (s *SupabaseStatusStore) GetByID(ctx context.Context, id string) (*notification.NotificationStatus, error) {
	data, _, err := s.client.From(statusTable).Select("*", "exact", false).Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching status: %w", err)
	}

	var rows []statusRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing status: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToStatus(&rows[0]), nil
}

// Update persists the current state, provider message id and error of a status.
func (s *SupabaseStatusStore) Update(ctx context.Context, st *notification.NotificationStatus) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	update := map[string]any{
		"state":      string(st.State),
		"updated_at": now,
	}
	if st.ProviderMessageID != "" {
		update["provider_message_id"] = st.ProviderMessageID
	}
	if st.Error != "" {
		update["error_message"] = st.Error
	}
	if st.SentAt != nil {
		update["sent_at"] = st.SentAt.UTC().Format(time.RFC3339Nano)
	}

	_, _, err := s.client.From(statusTable).Update(update, "", "").Eq("id", st.ID).Execute()
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return nil
}

// UpdateByProviderID transitions the status matching a provider message id
// when the state machine permits it. Each update is guarded on the current
// state, the same way MarkExpired guards on pending, so a late or conflicting
// receipt never re-enters a terminal state.
func (s *SupabaseStatusStore) UpdateByProviderID(ctx context.Context, providerMessageID string, state notification.State) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	update := map[string]any{
		"state":      string(state),
		"updated_at": now,
	}
	if state == notification.StateDelivered {
		update["delivered_at"] = now
	}

	for _, source := range notification.TransitionSources(state) {
		_, _, err := s.client.From(statusTable).
			Update(update, "", "").
			Eq("provider_message_id", providerMessageID).
			Eq("state", string(source)).
			Execute()
		if err != nil {
			return fmt.Errorf("updating receipt status: %w", err)
		}
	}
	return nil
}

// List retrieves statuses with pagination and filtering. Callers supply
// normalized pagination; the service layer clamps page and size once.
func (s *SupabaseStatusStore) List(ctx context.Context, filter notification.ListFilter) ([]*notification.NotificationStatus, int, error) {
	offset := (filter.Page - 1) * filter.PageSize

	query := s.client.From(statusTable).Select("*", "exact", false)

	if filter.State != "" {
		query = query.Eq("state", filter.State)
	}
	if filter.Recipient != "" {
		query = query.Eq("recipient_id", filter.Recipient)
	}
	if filter.Channel != "" {
		query = query.Eq("channel", filter.Channel)
	}
	if filter.RequestID != "" {
		query = query.Eq("request_id", filter.RequestID)
	}

	query = query.Order("created_at", &postgrest.OrderOpts{Ascending: false})
	query = query.Range(offset, offset+filter.PageSize-1, "")

	data, count, err := query.Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("listing statuses: %w", err)
	}

	var rows []statusRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, 0, fmt.Errorf("parsing status list: %w", err)
	}

	statuses := make([]*notification.NotificationStatus, len(rows))
	for i, row := range rows {
		statuses[i] = rowToStatus(&row)
	}
	return statuses, int(count), nil
}

// ListExpiredPending retrieves pending statuses whose expiry passed before now.
func (s *SupabaseStatusStore) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*notification.NotificationStatus, error) {
	if limit <= 0 {
		limit = 100
	}

	threshold := now.UTC().Format(time.RFC3339Nano)

	query := s.client.From(statusTable).
		Select("*", "exact", false).
		Eq("state", string(notification.StatePending)).
		Lt("expires_at", threshold).
		Order("expires_at", &postgrest.OrderOpts{Ascending: true}).
		Range(0, limit-1, "")

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("listing expired statuses: %w", err)
	}

	var rows []statusRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing expired statuses: %w", err)
	}

	statuses := make([]*notification.NotificationStatus, len(rows))
	for i, row := range rows {
		statuses[i] = rowToStatus(&row)
	}
	return statuses, nil
}

// MarkExpired moves a pending status to expired.
func (s *SupabaseStatusStore) MarkExpired(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	update := map[string]any{
		"state":      string(notification.StateExpired),
		"updated_at": now,
	}

	_, _, err := s.client.From(statusTable).
		Update(update, "", "").
		Eq("id", id).
		Eq("state", string(notification.StatePending)).
		Execute()
	if err != nil {
		return fmt.Errorf("expiring status: %w", err)
	}
	return nil
}

// rowToStatus converts a statusRow to a NotificationStatus.
func rowToStatus(row *statusRow) *notification.NotificationStatus {
	st := &notification.NotificationStatus{
		ID:        row.ID,
		RequestID: row.RequestID,
		Channel:   notification.Channel(row.Channel),
		State:     notification.State(row.State),
		Metadata:  row.Metadata,
	}

	if row.ProviderMessageID != nil {
		st.ProviderMessageID = *row.ProviderMessageID
	}
	if row.ErrorMessage != nil {
		st.Error = *row.ErrorMessage
	}

	if row.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, row.CreatedAt); err == nil {
			st.CreatedAt = t
		}
	}
	if row.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, row.UpdatedAt); err == nil {
			st.UpdatedAt = t
		}
	}
	if row.SentAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, *row.SentAt); err == nil {
			st.SentAt = &t
		}
	}
	if row.DeliveredAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, *row.DeliveredAt); err == nil {
			st.DeliveredAt = &t
		}
	}
	if row.ReadAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, *row.ReadAt); err == nil {
			st.ReadAt = &t
		}
	}
	if row.ExpiresAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, *row.ExpiresAt); err == nil {
			st.ExpiresAt = &t
		}
	}

	return st
}
