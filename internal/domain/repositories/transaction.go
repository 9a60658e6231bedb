package repositories

import (
	"context"
	"github.com/bootcamp67/ms-transaction/internal/domain/models"
	"time"
)

const (
	UniqueViolationError = "23505"
)

// TransactionRepository is the ledger store. Each call is atomic for a single record only.
type TransactionRepository interface {
	Insert(ctx context.Context, transaction models.Transaction) error
	// Update replaces the stored record with the same id. Returns a NotFoundError when no row matches.
	Update(ctx context.Context, transaction models.Transaction) error
	// GetByID returns nil, nil when the record does not exist.
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	ListAll(ctx context.Context) ([]models.Transaction, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Transaction, error)
	// ListByAccount matches the account on either side, newest first.
	ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error)
	ListByCard(ctx context.Context, cardID string) ([]models.Transaction, error)
	ListByCredit(ctx context.Context, creditID string) ([]models.Transaction, error)
	ListByDateRange(ctx context.Context, customerID string, start, end time.Time) ([]models.Transaction, error)
	// ListPendingBefore returns PENDING records created before the given instant, oldest first.
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]models.Transaction, error)
}
