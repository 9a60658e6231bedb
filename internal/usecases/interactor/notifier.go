package interactor

import (
	"context"
	"github.com/bootcamp67/ms-transaction/internal/domain/models"
	"github.com/bootcamp67/ms-transaction/internal/domain/services"
	"github.com/bootcamp67/ms-transaction/internal/metrics"
	"github.com/bootcamp67/ms-transaction/pkg/log"
	"github.com/bootcamp67/ms-transaction/pkg/worker"
	"github.com/rs/zerolog"
	"time"
)

type taskQueue interface {
	TrySubmit(f worker.Task) bool
	Pending() int
}

// EventNotifier publishes transaction events on a worker pool.
// Publish errors are logged and counted, never returned.
type EventNotifier struct {
	publisher services.EventPublisher
	queue     taskQueue
	timeout   time.Duration
	logger    *zerolog.Logger
}

func NewEventNotifier(publisher services.EventPublisher, queue taskQueue, timeout time.Duration) *EventNotifier {
	l := log.GetLogger()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &EventNotifier{publisher: publisher, queue: queue, timeout: timeout, logger: &l}
}

func (n *EventNotifier) Notify(eventType services.EventType, tx models.Transaction) {
	event := services.NewTransactionEvent(eventType, tx, time.Now().UTC())

	if !n.queue.TrySubmit(func() { n.publish(event) }) {
		metrics.EventsPublished.WithLabelValues(string(eventType), "dropped").Inc()
		n.logger.Warn().
			Str("transaction_id", tx.ID).
			Str("event_type", string(eventType)).
			Msg("Event queue full, event dropped")
	}
	metrics.WorkerQueueDepth.Set(float64(n.queue.Pending()))
}

func (n *EventNotifier) publish(event services.TransactionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	if err := n.publisher.Publish(ctx, event); err != nil {
		metrics.EventsPublished.WithLabelValues(string(event.EventType), "error").Inc()
		n.logger.Error().Err(err).
			Str("transaction_id", event.TransactionID).
			Str("event_type", string(event.EventType)).
			Msg("Failed to publish transaction event")
		return
	}

	metrics.EventsPublished.WithLabelValues(string(event.EventType), "ok").Inc()
	n.logger.Debug().Str("event_id", event.EventID).Str("transaction_id", event.TransactionID).Msg("Event published")
}
