package events

import (
	"context"
	"fmt"
	"github.com/bootcamp67/ms-transaction/internal/domain/services"
	"github.com/redis/go-redis/v9"
	"strings"
	"time"
)

const (
	DriverKafka = "kafka"
	DriverRedis = "redis"
	DriverNone  = "none"
)

type Options struct {
	Driver       string
	KafkaBrokers []string
	Topic        string
	RedisAddr    string
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, services.TransactionEvent) error { return nil }
func (NoopPublisher) Close() error                                             { return nil }

// NewPublisher builds the publisher for the configured driver.
func NewPublisher(ctx context.Context, opts Options) (services.EventPublisher, error) {
	topic := opts.Topic
	if topic == "" {
		topic = services.DefaultEventsTopic
	}

	switch strings.ToLower(opts.Driver) {
	case DriverKafka:
		if len(opts.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka driver requires at least one broker")
		}
		return NewKafkaPublisher(opts.KafkaBrokers, topic), nil
	case DriverRedis:
		rdb := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisPublisher(rdb, topic), nil
	case DriverNone, "":
		return NoopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", opts.Driver)
	}
}
