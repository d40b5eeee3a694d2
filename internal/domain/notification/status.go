package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// State represents the delivery state of one (request, channel) attempt.
type State string

const (
	StatePending   State = "pending"
	StateSent      State = "sent"
	StateDelivered State = "delivered"
	StateFailed    State = "failed"
	StateExpired   State = "expired"
)

// Terminal reports whether a state can never be left again.
func (s State) Terminal() bool {
	switch s {
	case StateDelivered, StateFailed, StateExpired:
		return true
	}
	return false
}

// CanTransition reports whether the state machine permits moving to next.
// Valid paths: pending -> sent -> delivered, pending -> failed,
// pending -> expired. Nothing else.
func (s State) CanTransition(next State) bool {
	switch s {
	case StatePending:
		return next == StateSent || next == StateFailed || next == StateExpired
	case StateSent:
		return next == StateDelivered
	}
	return false
}

// TransitionSources returns the states from which next is reachable under the
// state machine. Store write paths use it to guard transitions: an update whose
// current state is not a source matches nothing and is dropped.
func TransitionSources(next State) []State {
	var sources []State
	for _, s := range []State{StatePending, StateSent, StateDelivered, StateFailed, StateExpired} {
		if s.CanTransition(next) {
			sources = append(sources, s)
		}
	}
	return sources
}

// NotificationStatus records the outcome of one channel attempt for one
// request. An attempt is never retried in place; a retry is a new request.
type NotificationStatus struct {
	ID                string            `json:"id"`
	RequestID         string            `json:"request_id"`
	Channel           Channel           `json:"channel"`
	State             State             `json:"state"`
	ProviderMessageID string            `json:"provider_message_id,omitempty"`
	Error             string            `json:"error,omitempty"`
	SentAt            *time.Time        `json:"sent_at,omitempty"`
	DeliveredAt       *time.Time        `json:"delivered_at,omitempty"`
	ReadAt            *time.Time        `json:"read_at,omitempty"`
	ExpiresAt         *time.Time        `json:"expires_at,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// NewStatus creates a pending status for one channel attempt of a request.
func NewStatus(req *NotificationRequest, ch Channel) *NotificationStatus {
	now := time.Now().UTC()
	return &NotificationStatus{
		ID:        uuid.New().String(),
		RequestID: req.ID,
		Channel:   ch,
		State:     StatePending,
		ExpiresAt: req.ExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkSent transitions the status to sent with the provider's message id.
func (s *NotificationStatus) MarkSent(providerMessageID string) {
	now := time.Now().UTC()
	s.State = StateSent
	s.ProviderMessageID = providerMessageID
	s.SentAt = &now
	s.UpdatedAt = now
}

// MarkFailed transitions the status to failed, capturing the error verbatim.
func (s *NotificationStatus) MarkFailed(err error) {
	s.State = StateFailed
	s.Error = err.Error()
	s.UpdatedAt = time.Now().UTC()
}

// ListFilter defines pagination and filtering options for delivery history.
type ListFilter struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	State     string `form:"state"`
	Recipient string `form:"recipient"`
	Channel   string `form:"channel"`
	RequestID string `form:"request_id"`
}

// ListResponse wraps a paginated list of delivery statuses.
type ListResponse struct {
	Statuses []*NotificationStatus `json:"statuses"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// StatusStore persists delivery history. Implementations live in infra/store/.
// The dispatch core treats store failures as log-and-continue: history must
// never block delivery.
type StatusStore interface {
	// Create inserts a new status record.
	Create(ctx context.Context, st *NotificationStatus) error

	// GetByID retrieves a status by its ID.
	GetByID(ctx context.Context, id string) (*NotificationStatus, error)

	// Update persists the current state, provider message id and error of a
	// status previously created.
	Update(ctx context.Context, st *NotificationStatus) error

	// UpdateByProviderID transitions the status matching a provider message
	// id, only when the state machine permits the transition. A receipt
	// arriving for a status already in a terminal state is dropped. Used by
	// delivery-receipt webhooks.
	UpdateByProviderID(ctx context.Context, providerMessageID string, state State) error

	// List retrieves statuses with pagination and filtering. Page and
	// PageSize arrive normalized from the service layer.
	List(ctx context.Context, filter ListFilter) ([]*NotificationStatus, int, error)

	// ListExpiredPending retrieves pending statuses whose expiry passed
	// before now. Used by the sweeper.
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*NotificationStatus, error)

	// MarkExpired moves a pending status to expired.
	MarkExpired(ctx context.Context, id string) error
}
