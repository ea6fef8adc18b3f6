package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	errx "github.com/foxxcyber/deal-finder/internal/core/error"
	"github.com/foxxcyber/deal-finder/internal/models"
	logx "github.com/foxxcyber/deal-finder/pkg/logger"
)

// RedisPublisher appends fired alerts to a Redis list that the delivery
// workers consume
type RedisPublisher struct {
	rdb *redis.Client
	key string
}

// NewRedisPublisher creates a publisher that pushes onto key
func NewRedisPublisher(rdb *redis.Client, key string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, key: key}
}

// Publish implements alerts.Publisher
func (p *RedisPublisher) Publish(ctx context.Context, event models.AlertEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode alert %s: %w", event.NotificationID, err)
	}
	if err := p.rdb.RPush(ctx, p.key, b).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

// Pending returns how many alerts are waiting on the list
func (p *RedisPublisher) Pending(ctx context.Context) (int64, error) {
	n, err := p.rdb.LLen(ctx, p.key).Result()
	if err != nil {
		return 0, errx.WrapRedis(err)
	}
	return n, nil
}

// LogPublisher writes fired alerts to the log. It is used when no Redis is
// configured, typically in development.
type LogPublisher struct{}

// Publish implements alerts.Publisher
func (LogPublisher) Publish(_ context.Context, event models.AlertEvent) error {
	logx.Info().
		Str("notification_id", event.NotificationID).
		Str("user_id", event.UserID).
		Str("product_id", event.ProductID).
		Float64("price", event.Price).
		Time("fired_at", event.FiredAt).
		Msg("alert not dispatched: no redis configured")
	return nil
}
