package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultClaimTTL = time.Hour

// NotificationClaimer provides at-most-once delivery claims backed by Redis.
// Notification ids name one account state change, so the same change queued
// by several instances is delivered once.
// Key format: notify:<notification_id>
type NotificationClaimer struct {
	client *redis.Client
	ttl    time.Duration
}

// NewNotificationClaimer wraps client. Claims expire after ttl, or after
// defaultClaimTTL when ttl is not positive.
func NewNotificationClaimer(client *redis.Client, ttl time.Duration) *NotificationClaimer {
	if ttl <= 0 {
		ttl = defaultClaimTTL
	}
	return &NotificationClaimer{client: client, ttl: ttl}
}

// Claim reports whether the caller is the first to claim id. A false result
// means another worker or instance already delivered it.
func (c *NotificationClaimer) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := c.client.SetNX(ctx, claimKey(id), "1", c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("notification claim: %w", err)
	}
	return ok, nil
}

func claimKey(id string) string {
	return "notify:" + id
}
