package notification

import "context"

// RecipientRateLimiter caps how many notifications a single recipient can be
// sent per window. Implementations live in infra/ratelimit/.
type RecipientRateLimiter interface {
	// Allow reports whether another notification may go to the recipient.
	Allow(ctx context.Context, recipientID string) (bool, error)
}
