package interactor

import (
	"context"
	"github.com/bootcamp67/ms-transaction/internal/domain/models"
	"github.com/bootcamp67/ms-transaction/internal/domain/repositories"
	apperrors "github.com/bootcamp67/ms-transaction/internal/errors"
	"time"
)

// QueryInteractor is the read side of the ledger.
type QueryInteractor struct {
	transactions repositories.TransactionRepository
}

func NewQueryInteractor(transactions repositories.TransactionRepository) *QueryInteractor {
	return &QueryInteractor{transactions: transactions}
}

func (q *QueryInteractor) Get(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := q.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, apperrors.NewNotFoundError(apperrors.ErrTransactionNotFound)
	}
	return tx, nil
}

func (q *QueryInteractor) ListAll(ctx context.Context) ([]models.Transaction, error) {
	return q.transactions.ListAll(ctx)
}

func (q *QueryInteractor) ListByCustomer(ctx context.Context, customerID string) ([]models.Transaction, error) {
	return q.transactions.ListByCustomer(ctx, customerID)
}

func (q *QueryInteractor) ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	return q.transactions.ListByAccount(ctx, accountID)
}

func (q *QueryInteractor) ListByCard(ctx context.Context, cardID string) ([]models.Transaction, error) {
	return q.transactions.ListByCard(ctx, cardID)
}

func (q *QueryInteractor) ListByCredit(ctx context.Context, creditID string) ([]models.Transaction, error) {
	return q.transactions.ListByCredit(ctx, creditID)
}

// ListByDateRange returns the customer's records with start <= transactionDate <= end.
func (q *QueryInteractor) ListByDateRange(ctx context.Context, customerID string, start, end time.Time) ([]models.Transaction, error) {
	if start.After(end) {
		return nil, apperrors.NewValidationError(apperrors.ErrInvalidDateRange)
	}
	return q.transactions.ListByDateRange(ctx, customerID, start, end)
}
