package repositories

import (
	"context"
	"github.com/bootcamp67/ms-transaction/internal/domain/models"
)

type SagaStepRepository interface {
	InsertStep(ctx context.Context, step models.SagaStep) error
	UpdateStep(ctx context.Context, step models.SagaStep) error
	ListSteps(ctx context.Context, transactionID string) (models.Steps, error)
	// ListFailedCompensations returns FAILED compensation steps with fewer than maxAttempts attempts.
	ListFailedCompensations(ctx context.Context, maxAttempts, limit int) (models.Steps, error)
}
