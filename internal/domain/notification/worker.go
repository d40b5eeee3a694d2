package notification

import (
	"context"
	"log/slog"
	"time"
)

// Worker processes deferred dispatch tasks from the queue by re-presenting
// the carried request to the dispatcher. Quiet hours may have moved since the
// request was deferred, so the dispatcher re-evaluates them; a request inside
// a new window simply defers again.
type Worker struct {
	dispatcher *Dispatcher
}

// NewWorker creates a deferred dispatch worker.
func NewWorker(dispatcher *Dispatcher) *Worker {
	return &Worker{dispatcher: dispatcher}
}

// ProcessTask handles one deferred dispatch task payload.
func (w *Worker) ProcessTask(ctx context.Context, payload []byte) error {
	start := time.Now()

	p, err := ParseDeferredDispatchPayload(payload)
	if err != nil {
		return err
	}
	req := p.Request

	// An already-expired request is dropped, not attempted.
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		slog.Warn("deferred request expired before resumption",
			"request_id", req.ID,
			"expires_at", req.ExpiresAt,
		)
		return nil
	}

	statuses, err := w.dispatcher.Dispatch(ctx, &req)
	if err != nil {
		return err
	}

	sent, failed := 0, 0
	for _, st := range statuses {
		switch st.State {
		case StateSent:
			sent++
		case StateFailed:
			failed++
		}
	}

	slog.Info("deferred request dispatched",
		"request_id", req.ID,
		"attempted", len(statuses),
		"sent", sent,
		"failed", failed,
		"duration", time.Since(start),
	)
	return nil
}
