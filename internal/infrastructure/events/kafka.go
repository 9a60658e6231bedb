package events

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/bootcamp67/ms-transaction/internal/domain/services"
	"github.com/bootcamp67/ms-transaction/pkg/log"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"time"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a topic keyed by transaction id.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zerolog.Logger
}

var _ services.EventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	l := log.GetLogger()
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			l.Debug().Msgf(msg, args...)
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			l.Error().Msgf(msg, args...)
		}),
	}
	return newKafkaPublisher(writer, topic)
}

func newKafkaPublisher(writer messageWriter, topic string) *KafkaPublisher {
	l := log.GetLogger()
	return &KafkaPublisher{writer: writer, topic: topic, logger: &l}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event services.TransactionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TransactionID),
		Value: payload,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(event.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", p.topic, err)
	}

	p.logger.Debug().
		Str("topic", p.topic).
		Str("event_type", string(event.EventType)).
		Str("transaction_id", event.TransactionID).
		Msg("Event sent")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
