package repositories

import (
	"context"
	"errors"
	"fmt"
	"github.com/bootcamp67/ms-transaction/internal/domain/models"
	"github.com/bootcamp67/ms-transaction/internal/domain/repositories"
	apperrors "github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/bootcamp67/ms-transaction/pkg/log"
	"github.com/bootcamp67/ms-transaction/pkg/postgresql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"time"
)

type TransactionRepositoryImpl struct {
	db     postgresql.Client
	logger *zerolog.Logger
}

// NewTransactionRepositoryImpl creates new instance of TransactionRepositoryImpl.
func NewTransactionRepositoryImpl(db postgresql.Client) repositories.TransactionRepository {
	l := log.GetLogger()
	return &TransactionRepositoryImpl{
		db:     db,
		logger: &l,
	}
}

const transactionColumns = `id, customer_id, transaction_type, amount, currency,
  source_account_id, destination_account_id, card_id, credit_id,
  description, reference, channel, status, transaction_date, completed_date,
  source_balance_before, source_balance_after, destination_balance_before, destination_balance_after,
  transaction_fee, fee_type, ip_address, device_id, location, notes,
  created_at, updated_at, created_by`

const insertTransaction = `
INSERT INTO transactions (` + transactionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)`

// Insert writes a new ledger record.
func (r *TransactionRepositoryImpl) Insert(ctx context.Context, t models.Transaction) error {
	_, err := r.db.Exec(ctx, insertTransaction,
		t.ID,
		t.CustomerID,
		t.TransactionType,
		t.Amount,
		t.Currency,
		nullable(t.SourceAccountID),
		nullable(t.DestinationAccountID),
		nullable(t.CardID),
		nullable(t.CreditID),
		nullable(t.Description),
		nullable(t.Reference),
		nullable(t.Channel),
		t.Status,
		t.TransactionDate,
		t.CompletedDate,
		t.SourceBalanceBefore,
		t.SourceBalanceAfter,
		t.DestinationBalanceBefore,
		t.DestinationBalanceAfter,
		t.TransactionFee,
		t.FeeType,
		nullable(t.IPAddress),
		nullable(t.DeviceID),
		nullable(t.Location),
		nullable(t.Notes),
		t.CreatedAt,
		t.UpdatedAt,
		t.CreatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.SQLState() == repositories.UniqueViolationError {
			return fmt.Errorf("transaction %s already exists: %w", t.ID, err)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

const updateTransaction = `
UPDATE transactions SET
  status = $2,
  completed_date = $3,
  source_balance_before = $4,
  source_balance_after = $5,
  destination_balance_before = $6,
  destination_balance_after = $7,
  notes = $8,
  updated_at = $9
WHERE id = $1`

// Update writes the mutable fields of an existing record.
func (r *TransactionRepositoryImpl) Update(ctx context.Context, t models.Transaction) error {
	tag, err := r.db.Exec(ctx, updateTransaction,
		t.ID,
		t.Status,
		t.CompletedDate,
		t.SourceBalanceBefore,
		t.SourceBalanceAfter,
		t.DestinationBalanceBefore,
		t.DestinationBalanceAfter,
		nullable(t.Notes),
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(apperrors.ErrTransactionNotFound)
	}
	return nil
}

// GetByID returns transaction by id, or nil when there is none.
// Ids that are not UUIDs cannot match a row.
func (r *TransactionRepositoryImpl) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	row := r.db.QueryRow(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = $1", id)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

func (r *TransactionRepositoryImpl) ListAll(ctx context.Context) ([]models.Transaction, error) {
	return r.list(ctx, "ORDER BY transaction_date DESC")
}

func (r *TransactionRepositoryImpl) ListByCustomer(ctx context.Context, customerID string) ([]models.Transaction, error) {
	return r.list(ctx, "WHERE customer_id = $1 ORDER BY transaction_date DESC", customerID)
}

func (r *TransactionRepositoryImpl) ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	return r.list(ctx, "WHERE source_account_id = $1 OR destination_account_id = $1 ORDER BY transaction_date DESC", accountID)
}

func (r *TransactionRepositoryImpl) ListByCard(ctx context.Context, cardID string) ([]models.Transaction, error) {
	return r.list(ctx, "WHERE card_id = $1 ORDER BY transaction_date DESC", cardID)
}

func (r *TransactionRepositoryImpl) ListByCredit(ctx context.Context, creditID string) ([]models.Transaction, error) {
	return r.list(ctx, "WHERE credit_id = $1 ORDER BY transaction_date DESC", creditID)
}

func (r *TransactionRepositoryImpl) ListByDateRange(ctx context.Context, customerID string, start, end time.Time) ([]models.Transaction, error) {
	return r.list(ctx, "WHERE customer_id = $1 AND transaction_date BETWEEN $2 AND $3 ORDER BY transaction_date DESC", customerID, start, end)
}

func (r *TransactionRepositoryImpl) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]models.Transaction, error) {
	return r.list(ctx, "WHERE status = 'PENDING' AND created_at < $1 ORDER BY created_at LIMIT $2", before, limit)
}

func (r *TransactionRepositoryImpl) list(ctx context.Context, clause string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx, "SELECT "+transactionColumns+" FROM transactions "+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}

	if err = rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("transaction rows error")
		return nil, err
	}
	return out, nil
}

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var (
		t                                            models.Transaction
		source, destination, card, credit            *string
		description, reference, channel              *string
		ipAddress, deviceID, location, notes         *string
	)
	err := row.Scan(
		&t.ID,
		&t.CustomerID,
		&t.TransactionType,
		&t.Amount,
		&t.Currency,
		&source,
		&destination,
		&card,
		&credit,
		&description,
		&reference,
		&channel,
		&t.Status,
		&t.TransactionDate,
		&t.CompletedDate,
		&t.SourceBalanceBefore,
		&t.SourceBalanceAfter,
		&t.DestinationBalanceBefore,
		&t.DestinationBalanceAfter,
		&t.TransactionFee,
		&t.FeeType,
		&ipAddress,
		&deviceID,
		&location,
		&notes,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CreatedBy,
	)
	if err != nil {
		return t, err
	}

	t.SourceAccountID = deref(source)
	t.DestinationAccountID = deref(destination)
	t.CardID = deref(card)
	t.CreditID = deref(credit)
	t.Description = deref(description)
	t.Reference = deref(reference)
	t.Channel = deref(channel)
	t.IPAddress = deref(ipAddress)
	t.DeviceID = deref(deviceID)
	t.Location = deref(location)
	t.Notes = deref(notes)
	return t, nil
}

// nullable stores empty strings as NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
