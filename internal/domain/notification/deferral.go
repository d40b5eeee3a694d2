package notification

import (
	"context"
	"time"
)

// Scheduler is the external "run later" collaborator. The core hands a
// deferred request over and stays synchronous; the actual timing mechanism
// (delay queue, cron, durable timer) is an infrastructure choice.
// Implementations live in infra/queue/.
type Scheduler interface {
	// RunLater re-presents the request to the dispatcher at or after
	// notBefore.
	RunLater(ctx context.Context, req *NotificationRequest, notBefore time.Time) error
}

// deferredStatuses builds the non-blocking placeholder result for a deferred
// request: one pending status per originally requested channel, annotated
// with the resume time. On resumption the worker records fresh rows for the
// actual outcome; the placeholders are superseded, so each carries an expiry
// (the request's own, or the resume time when the request has none) and the
// sweeper retires them rather than leaving them pending forever.
func deferredStatuses(req *NotificationRequest, resumeAt time.Time) []*NotificationStatus {
	statuses := make([]*NotificationStatus, 0, len(req.Channels))
	for _, ch := range req.Channels {
		st := NewStatus(req, ch)
		if st.ExpiresAt == nil {
			resume := resumeAt
			st.ExpiresAt = &resume
		}
		st.Metadata = map[string]string{"deferred_until": resumeAt.UTC().Format(time.RFC3339)}
		statuses = append(statuses, st)
	}
	return statuses
}
