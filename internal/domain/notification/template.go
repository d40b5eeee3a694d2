package notification

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"dinenotify/internal/common"
)

// placeholderPattern matches {variable} placeholders in template text.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// NotificationTemplate is a stored message template bound to one category and
// channel. Read-only to the dispatch core; administered elsewhere.
type NotificationTemplate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	Channel   Channel   `json:"channel"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body"`
	Variables []string  `json:"variables"`
	Active    bool      `json:"active"`
	Language  string    `json:"language,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Placeholders returns the distinct placeholder names referenced by the
// template's body and subject, in order of first appearance.
func (t *NotificationTemplate) Placeholders() []string {
	seen := make(map[string]bool)
	var names []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(t.Body+" "+t.Subject, -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			names = append(names, match[1])
		}
	}
	return names
}

// Validate checks template invariants at creation time: category and channel
// must be recognized, the body non-empty, and every placeholder declared in
// Variables. Rendering itself never fails on undeclared placeholders; this is
// the only place they are rejected.
func (t *NotificationTemplate) Validate() error {
	if t.Body == "" {
		return common.NewValidationError("template body is required")
	}
	if !IsValidCategory(t.Category) {
		return common.NewValidationError(fmt.Sprintf("unsupported category: %s", t.Category))
	}
	if !IsValidChannel(t.Channel) {
		return common.NewValidationError(fmt.Sprintf("unsupported channel: %s", t.Channel))
	}
	declared := make(map[string]bool, len(t.Variables))
	for _, v := range t.Variables {
		declared[v] = true
	}
	for _, name := range t.Placeholders() {
		if !declared[name] {
			return common.NewValidationError(fmt.Sprintf("placeholder {%s} is not a declared variable", name))
		}
	}
	return nil
}

// TemplateSource provides read access to stored templates.
// Implementations live in infra/store/. Returns nil, nil when absent.
type TemplateSource interface {
	GetTemplate(ctx context.Context, id string) (*NotificationTemplate, error)
}
