package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prperemyshlev/social-service/pkg/database"
)

// outboxJob is the JSON document pushed for the mail worker
type outboxJob struct {
	TokenDelivery
	QueuedAt time.Time `json:"queued_at"`
}

// RedisOutbox is a TokenSender that queues deliveries on a Redis list.
// A separate mail worker pops jobs from the right end.
type RedisOutbox struct {
	redis *database.Redis
	key   string
	now   func() time.Time
}

// NewRedisOutbox creates an outbox writing to the given list key
func NewRedisOutbox(redis *database.Redis, key string) *RedisOutbox {
	return &RedisOutbox{redis: redis, key: key, now: time.Now}
}

// Send queues a delivery
func (o *RedisOutbox) Send(ctx context.Context, delivery TokenDelivery) error {
	payload, err := json.Marshal(outboxJob{TokenDelivery: delivery, QueuedAt: o.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode mail job: %w", err)
	}

	if err := o.redis.Client.LPush(ctx, o.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to queue mail job: %w", err)
	}
	return nil
}

// Pending returns the number of queued jobs
func (o *RedisOutbox) Pending(ctx context.Context) (int64, error) {
	n, err := o.redis.Client.LLen(ctx, o.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read mail outbox: %w", err)
	}
	return n, nil
}
