package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dinenotify/internal/domain/notification"

	supa "github.com/supabase-community/supabase-go"
)

const templateTable = "notification_templates"

var _ notification.TemplateSource = (*SupabaseTemplateSource)(nil)

// SupabaseTemplateSource implements TemplateSource using the Supabase Go SDK.
// Templates are administered by the back office; this source only reads.
type SupabaseTemplateSource struct {
	client *supa.Client
}

// NewSupabaseTemplateSource creates a new Supabase-backed template source.
func NewSupabaseTemplateSource(client *supa.Client) *SupabaseTemplateSource {
	return &SupabaseTemplateSource{client: client}
}

// templateRow is the internal PostgREST representation of a template.
type templateRow struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Channel   string   `json:"channel"`
	Subject   *string  `json:"subject,omitempty"`
	Body      string   `json:"body"`
	Variables []string `json:"variables"`
	Active    bool     `json:"active"`
	Language  *string  `json:"language,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

// GetTemplate retrieves a template by ID. Returns nil, nil if no record is found.
func (s *SupabaseTemplateSource) GetTemplate(ctx context.Context, id string) (*notification.NotificationTemplate, error) {
	data, _, err := s.client.From(templateTable).Select("*", "exact", false).Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching template: %w", err)
	}

	var rows []templateRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	tmpl := &notification.NotificationTemplate{
		ID:        row.ID,
		Name:      row.Name,
		Category:  notification.Category(row.Category),
		Channel:   notification.Channel(row.Channel),
		Body:      row.Body,
		Variables: row.Variables,
		Active:    row.Active,
	}
	if row.Subject != nil {
		tmpl.Subject = *row.Subject
	}
	if row.Language != nil {
		tmpl.Language = *row.Language
	}
	if row.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, row.CreatedAt); err == nil {
			tmpl.CreatedAt = t
		}
	}
	if row.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, row.UpdatedAt); err == nil {
			tmpl.UpdatedAt = t
		}
	}
	return tmpl, nil
}
