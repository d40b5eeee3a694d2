package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dinenotify/internal/common"

	"github.com/google/uuid"
)

// DispatchRequest is the API payload for submitting a notification.
type DispatchRequest struct {
	Category    Category           `json:"category" binding:"required"`
	Channels    []Channel          `json:"channels" binding:"required,min=1"`
	Recipient   Recipient          `json:"recipient" binding:"required"`
	TemplateID  string             `json:"template_id" binding:"required"`
	Variables   []TemplateVariable `json:"variables"`
	Priority    Priority           `json:"priority"`
	ScheduledAt *time.Time         `json:"scheduled_at"`
	ExpiresAt   *time.Time         `json:"expires_at"`
	Metadata    map[string]string  `json:"metadata"`
}

// DispatchResponse is the API response: the assigned request id plus one
// status per attempted (or deferred) channel.
type DispatchResponse struct {
	RequestID string                `json:"request_id"`
	Statuses  []*NotificationStatus `json:"statuses"`
}

// Service sits between the HTTP surface and the dispatcher: it validates the
// closed enumerations, applies per-recipient rate limiting and exposes the
// delivery history reads.
type Service struct {
	dispatcher  *Dispatcher
	statuses    StatusStore
	rateLimiter RecipientRateLimiter
}

// NewService creates a new notification service.
func NewService(dispatcher *Dispatcher, statuses StatusStore, rateLimiter RecipientRateLimiter) *Service {
	return &Service{
		dispatcher:  dispatcher,
		statuses:    statuses,
		rateLimiter: rateLimiter,
	}
}

// Dispatch validates and submits one notification request, returning the
// aggregated per-channel outcome.
func (s *Service) Dispatch(ctx context.Context, req *DispatchRequest) (*DispatchResponse, error) {
	notif, err := s.buildRequest(req)
	if err != nil {
		return nil, err
	}

	// Per-recipient rate limit, fail open when the limiter backend is down.
	// Critical notifications are never rate limited.
	if s.rateLimiter != nil && notif.Priority != PriorityCritical {
		allowed, err := s.rateLimiter.Allow(ctx, notif.Recipient.ID)
		if err != nil {
			slog.Error("rate limit check failed, proceeding without limit",
				"recipient_id", notif.Recipient.ID, "error", err)
		} else if !allowed {
			return nil, common.NewValidationError(fmt.Sprintf("rate limit exceeded for recipient: %s", notif.Recipient.ID))
		}
	}

	statuses, err := s.dispatcher.Dispatch(ctx, notif)
	if err != nil {
		return nil, err
	}

	slog.Info("request dispatched",
		"request_id", notif.ID,
		"recipient_id", notif.Recipient.ID,
		"category", notif.Category,
		"statuses", len(statuses),
	)
	return &DispatchResponse{RequestID: notif.ID, Statuses: statuses}, nil
}

// buildRequest validates the payload against the closed enumerations and
// assembles the immutable request.
func (s *Service) buildRequest(req *DispatchRequest) (*NotificationRequest, error) {
	if !IsValidCategory(req.Category) {
		return nil, common.NewValidationError(fmt.Sprintf("unsupported category: %s", req.Category))
	}
	for _, ch := range req.Channels {
		if !IsValidChannel(ch) {
			return nil, common.NewValidationError(fmt.Sprintf("unsupported channel: %s", ch))
		}
	}
	priority := req.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	if !IsValidPriority(priority) {
		return nil, common.NewValidationError(fmt.Sprintf("unsupported priority: %s", priority))
	}
	for _, v := range req.Variables {
		if !IsValidFormat(v.Format) {
			return nil, common.NewValidationError(fmt.Sprintf("unsupported variable format: %s", v.Format))
		}
	}
	if req.Recipient.ID == "" {
		return nil, common.NewValidationError("recipient.id is required")
	}

	return &NotificationRequest{
		ID:          uuid.New().String(),
		Category:    req.Category,
		Channels:    req.Channels,
		Recipient:   req.Recipient,
		TemplateID:  req.TemplateID,
		Variables:   req.Variables,
		Priority:    priority,
		ScheduledAt: req.ScheduledAt,
		ExpiresAt:   req.ExpiresAt,
		Metadata:    req.Metadata,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// GetStatus retrieves one delivery status by ID.
func (s *Service) GetStatus(ctx context.Context, id string) (*NotificationStatus, error) {
	st, err := s.statuses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching status: %w", err)
	}
	if st == nil {
		return nil, common.NewNotFoundError("notification status", id)
	}
	return st, nil
}

// ListStatuses retrieves delivery history with pagination and filtering.
// Pagination is normalized before the store call so the echoed page and size
// always match what was queried.
func (s *Service) ListStatuses(ctx context.Context, filter ListFilter) (*ListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	statuses, total, err := s.statuses.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing statuses: %w", err)
	}

	return &ListResponse{
		Statuses: statuses,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// HandleReceipt processes a delivery receipt from a provider webhook,
// driving the sent to delivered transition.
func (s *Service) HandleReceipt(ctx context.Context, providerMessageID string, state State) error {
	if providerMessageID == "" {
		return common.NewValidationError("provider_message_id is required")
	}
	if state != StateDelivered && state != StateExpired {
		return common.NewValidationError(fmt.Sprintf("unsupported receipt state: %s", state))
	}

	if err := s.statuses.UpdateByProviderID(ctx, providerMessageID, state); err != nil {
		return fmt.Errorf("updating receipt status: %w", err)
	}

	slog.Info("delivery receipt applied",
		"provider_message_id", providerMessageID,
		"state", state,
	)
	return nil
}
