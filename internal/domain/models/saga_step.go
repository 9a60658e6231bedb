package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"time"
)

type StepKind string

const (
	StepCreditDestination StepKind = "CREDIT_DESTINATION"
	StepDebitSource       StepKind = "DEBIT_SOURCE"
	StepCompensateSource  StepKind = "COMPENSATE_SOURCE"
)

type StepStatus string

const (
	StepStarted   StepStatus = "STARTED"
	StepSucceeded StepStatus = "SUCCEEDED"
	StepFailed    StepStatus = "FAILED"
)

// SagaStep is one durable entry of the step log: a balance call that was
// attempted for a transaction, and what came back.
type SagaStep struct {
	ID            string              `json:"id" db:"id"`
	TransactionID string              `json:"transactionId" db:"transaction_id"`
	Kind          StepKind            `json:"kind" db:"kind"`
	AccountID     string              `json:"accountId" db:"account_id"`
	Amount        decimal.Decimal     `json:"amount" db:"amount"`
	Status        StepStatus          `json:"status" db:"status"`
	BalanceAfter  decimal.NullDecimal `json:"balanceAfter" db:"balance_after"`
	Error         string              `json:"error,omitempty" db:"error"`
	Attempts      int                 `json:"attempts" db:"attempts"`
	CreatedAt     time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time           `json:"updatedAt" db:"updated_at"`
}

func NewSagaStep(transactionID string, kind StepKind, accountID string, amount decimal.Decimal, now time.Time) SagaStep {
	return SagaStep{
		ID:            uuid.NewString(),
		TransactionID: transactionID,
		Kind:          kind,
		AccountID:     accountID,
		Amount:        amount,
		Status:        StepStarted,
		Attempts:      1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (s SagaStep) Succeed(balance decimal.Decimal, now time.Time) SagaStep {
	s.Status = StepSucceeded
	s.BalanceAfter = decimal.NewNullDecimal(balance)
	s.Error = ""
	s.UpdatedAt = now
	return s
}

func (s SagaStep) Fail(err error, now time.Time) SagaStep {
	s.Status = StepFailed
	if err != nil {
		s.Error = err.Error()
	}
	s.UpdatedAt = now
	return s
}

// Retry puts a failed step back to STARTED and counts the attempt.
func (s SagaStep) Retry(now time.Time) SagaStep {
	s.Status = StepStarted
	s.Attempts++
	s.UpdatedAt = now
	return s
}

type Steps []SagaStep

// Latest returns the most recently updated step of the given kind.
func (s Steps) Latest(kind StepKind) (SagaStep, bool) {
	var (
		latest SagaStep
		found  bool
	)
	for _, step := range s {
		if step.Kind != kind {
			continue
		}
		if !found || !step.UpdatedAt.Before(latest.UpdatedAt) {
			latest = step
			found = true
		}
	}
	return latest, found
}
