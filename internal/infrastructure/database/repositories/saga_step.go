package repositories

import (
	"context"
	"fmt"
	"github.com/bootcamp67/ms-transaction/internal/domain/models"
	"github.com/bootcamp67/ms-transaction/internal/domain/repositories"
	"github.com/bootcamp67/ms-transaction/pkg/postgresql"
)

type SagaStepRepositoryImpl struct {
	db postgresql.Client
}

func NewSagaStepRepositoryImpl(db postgresql.Client) repositories.SagaStepRepository {
	return &SagaStepRepositoryImpl{db: db}
}

const stepColumns = `id, transaction_id, kind, account_id, amount, status, balance_after, error, attempts, created_at, updated_at`

func (r *SagaStepRepositoryImpl) InsertStep(ctx context.Context, s models.SagaStep) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO saga_steps (`+stepColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.TransactionID, s.Kind, s.AccountID, s.Amount, s.Status, s.BalanceAfter, nullable(s.Error), s.Attempts, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert saga step: %w", err)
	}
	return nil
}

func (r *SagaStepRepositoryImpl) UpdateStep(ctx context.Context, s models.SagaStep) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE saga_steps SET status = $2, balance_after = $3, error = $4, attempts = $5, updated_at = $6 WHERE id = $1`,
		s.ID, s.Status, s.BalanceAfter, nullable(s.Error), s.Attempts, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update saga step: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("saga step %s not found", s.ID)
	}
	return nil
}

func (r *SagaStepRepositoryImpl) ListSteps(ctx context.Context, transactionID string) (models.Steps, error) {
	return r.list(ctx, `WHERE transaction_id = $1 ORDER BY created_at`, transactionID)
}

func (r *SagaStepRepositoryImpl) ListFailedCompensations(ctx context.Context, maxAttempts, limit int) (models.Steps, error) {
	return r.list(ctx,
		`WHERE kind = 'COMPENSATE_SOURCE' AND status = 'FAILED' AND attempts < $1 ORDER BY updated_at LIMIT $2`,
		maxAttempts, limit,
	)
}

func (r *SagaStepRepositoryImpl) list(ctx context.Context, clause string, args ...interface{}) (models.Steps, error) {
	rows, err := r.db.Query(ctx, `SELECT `+stepColumns+` FROM saga_steps `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("list saga steps: %w", err)
	}
	defer rows.Close()

	steps := make(models.Steps, 0)
	for rows.Next() {
		var (
			s       models.SagaStep
			message *string
		)
		err = rows.Scan(&s.ID, &s.TransactionID, &s.Kind, &s.AccountID, &s.Amount, &s.Status, &s.BalanceAfter, &message, &s.Attempts, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan saga step: %w", err)
		}
		s.Error = deref(message)
		steps = append(steps, s)
	}

	return steps, rows.Err()
}
