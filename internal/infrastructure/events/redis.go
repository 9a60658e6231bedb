package events

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/bootcamp67/ms-transaction/internal/domain/services"
	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes events on a pub/sub channel.
type RedisPublisher struct {
	rdb     redis.UniversalClient
	channel string
}

var _ services.EventPublisher = (*RedisPublisher)(nil)

func NewRedisPublisher(rdb redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event services.TransactionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
