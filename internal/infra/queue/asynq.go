package queue

import (
	"context"
	"fmt"
	"time"

	"dinenotify/internal/domain/notification"

	"github.com/hibiken/asynq"
)

var _ notification.Scheduler = (*AsynqScheduler)(nil)

// NewClient creates a new asynq client connected to Redis.
func NewClient(redisAddr, password string, db int) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})
}

// NewServer creates a new asynq server connected to Redis.
func NewServer(redisAddr, password string, db int, concurrency int) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: password,
			DB:       db,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical":      6,
				"notifications": 3,
				"default":       1,
			},
			RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
				// Exponential backoff: 30s, 60s, 120s, 240s, 480s
				return time.Duration(30*(1<<uint(n-1))) * time.Second
			},
		},
	)
}

// AsynqScheduler is the deferred-run collaborator: requests suppressed by
// quiet hours (or scheduled for later) are enqueued with a process-at time
// and re-presented to the dispatcher by the worker.
type AsynqScheduler struct {
	client   *asynq.Client
	maxRetry int
}

// NewAsynqScheduler creates a new asynq-backed scheduler.
func NewAsynqScheduler(client *asynq.Client, maxRetry int) *AsynqScheduler {
	return &AsynqScheduler{client: client, maxRetry: maxRetry}
}

// RunLater enqueues the request for re-dispatch at or after notBefore.
func (s *AsynqScheduler) RunLater(ctx context.Context, req *notification.NotificationRequest, notBefore time.Time) error {
	task, err := notification.NewDeferredDispatchTask(req)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	_, err = s.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(notBefore),
		asynq.MaxRetry(s.maxRetry),
		asynq.Queue(queueFor(req.Priority)),
	)
	if err != nil {
		return fmt.Errorf("enqueuing task: %w", err)
	}
	return nil
}

// queueFor maps request priority to an asynq queue weight class.
func queueFor(p notification.Priority) string {
	switch p {
	case notification.PriorityCritical, notification.PriorityHigh:
		return "critical"
	case notification.PriorityLow:
		return "default"
	default:
		return "notifications"
	}
}
