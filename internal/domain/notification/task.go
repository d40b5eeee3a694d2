package notification

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskTypeDeferredDispatch is the asynq task type for re-presenting a
// deferred request to the dispatcher.
const TaskTypeDeferredDispatch = "notification:dispatch"

// DeferredDispatchPayload is the serialized payload of a deferred dispatch
// task. The full request travels with the task; requests are immutable so
// nothing can drift between enqueue and processing.
type DeferredDispatchPayload struct {
	Request NotificationRequest `json:"request"`
}

// NewDeferredDispatchTask creates an asynq task carrying a deferred request.
func NewDeferredDispatchTask(req *NotificationRequest) (*asynq.Task, error) {
	payload, err := json.Marshal(DeferredDispatchPayload{Request: *req})
	if err != nil {
		return nil, fmt.Errorf("marshaling task payload: %w", err)
	}
	return asynq.NewTask(TaskTypeDeferredDispatch, payload), nil
}

// ParseDeferredDispatchPayload deserializes the task payload.
func ParseDeferredDispatchPayload(data []byte) (*DeferredDispatchPayload, error) {
	var p DeferredDispatchPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshaling task payload: %w", err)
	}
	return &p, nil
}
