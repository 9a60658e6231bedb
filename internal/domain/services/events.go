package services

import (
	"context"
	"github.com/bootcamp67/ms-transaction/internal/domain/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"time"
)

const DefaultEventsTopic = "transaction-events"

type EventType string

const (
	EventTransactionCompleted EventType = "TRANSACTION_COMPLETED"
	EventTransactionFailed    EventType = "TRANSACTION_FAILED"
	EventTransactionReversed  EventType = "TRANSACTION_REVERSED"
)

type TransactionEvent struct {
	EventID       string         `json:"eventId"`
	EventType     EventType      `json:"eventType"`
	TransactionID string         `json:"transactionId"`
	CustomerID    string         `json:"customerId"`
	Timestamp     time.Time      `json:"timestamp"`
	Payload       PayloadSummary `json:"payload"`
}

type PayloadSummary struct {
	TransactionID        string                 `json:"transactionId"`
	CustomerID           string                 `json:"customerId"`
	TransactionType      models.TransactionType `json:"transactionType"`
	Amount               decimal.Decimal        `json:"amount"`
	SourceAccountID      string                 `json:"sourceAccountId,omitempty"`
	DestinationAccountID string                 `json:"destinationAccountId,omitempty"`
	Status               models.Status          `json:"status"`
}

// NewTransactionEvent snapshots t into an envelope of the given type.
func NewTransactionEvent(eventType EventType, t models.Transaction, now time.Time) TransactionEvent {
	return TransactionEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		TransactionID: t.ID,
		CustomerID:    t.CustomerID,
		Timestamp:     now,
		Payload: PayloadSummary{
			TransactionID:        t.ID,
			CustomerID:           t.CustomerID,
			TransactionType:      t.TransactionType,
			Amount:               t.Amount,
			SourceAccountID:      t.SourceAccountID,
			DestinationAccountID: t.DestinationAccountID,
			Status:               t.Status,
		},
	}
}

// EventPublisher delivers events to the bus. Delivery is at most once.
type EventPublisher interface {
	Publish(ctx context.Context, event TransactionEvent) error
	Close() error
}

// Notifier hands finished records to the publisher without blocking the caller.
type Notifier interface {
	Notify(eventType EventType, t models.Transaction)
}
