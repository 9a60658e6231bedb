package interactor

import (
	"context"
	"errors"
	"github.com/bootcamp67/ms-transaction/internal/domain/models"
	"github.com/bootcamp67/ms-transaction/internal/domain/repositories"
	"github.com/bootcamp67/ms-transaction/internal/domain/services"
	apperrors "github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/bootcamp67/ms-transaction/internal/metrics"
	"github.com/bootcamp67/ms-transaction/internal/usecases/dtos"
	"github.com/bootcamp67/ms-transaction/pkg/log"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"time"
)

const (
	opDeposit    = "deposit"
	opWithdrawal = "withdrawal"
	opTransfer   = "transfer"
	opReversal   = "reversal"
)

// Fees are the fixed charges added to the debited amount.
type Fees struct {
	Withdrawal decimal.Decimal
	Transfer   decimal.Decimal
}

func DefaultFees() Fees {
	return Fees{
		Withdrawal: decimal.RequireFromString("5.00"),
		Transfer:   decimal.RequireFromString("3.00"),
	}
}

// ReversalResult holds both records touched by a reversal.
type ReversalResult struct {
	Reversal models.Transaction
	Original models.Transaction
}

type TransactionInteractor struct {
	transactions repositories.TransactionRepository
	saga         *sagaRunner
	notifier     services.Notifier
	fees         Fees
	now          func() time.Time
	logger       *zerolog.Logger
}

func NewTransactionInteractor(
	transactions repositories.TransactionRepository,
	steps repositories.SagaStepRepository,
	balance services.BalanceClient,
	notifier services.Notifier,
	fees Fees,
) *TransactionInteractor {
	l := log.GetLogger()
	i := &TransactionInteractor{
		transactions: transactions,
		notifier:     notifier,
		fees:         fees,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       &l,
	}
	i.saga = &sagaRunner{steps: steps, balance: balance, now: i.clock, logger: &l}
	return i
}

func (i *TransactionInteractor) clock() time.Time {
	return i.now()
}

// Deposit credits the destination account.
func (i *TransactionInteractor) Deposit(ctx context.Context, dto *dtos.DepositDTO) (*models.Transaction, error) {
	tx, err := models.NewTransaction(models.TransactionParams{
		CustomerID:           dto.CustomerID,
		Type:                 models.TypeDeposit,
		Amount:               dto.Amount,
		Currency:             dto.Currency,
		DestinationAccountID: dto.AccountID,
		Description:          dto.Description,
		Reference:            dto.Reference,
		Channel:              orDefault(dto.Channel, models.ChannelBranch),
		Fee:                  decimal.Zero,
		FeeType:              models.FeeFixed,
		IPAddress:            dto.IPAddress,
		DeviceID:             dto.DeviceID,
		Location:             dto.Location,
	}, i.now())
	if err != nil {
		return nil, err
	}

	if err = i.open(ctx, opDeposit, tx); err != nil {
		return nil, err
	}

	res, err := i.saga.runLeg(ctx, tx.ID, models.StepCreditDestination, tx.DestinationAccountID, tx.Amount)
	if err != nil {
		return i.fail(ctx, opDeposit, tx, err)
	}

	return i.complete(ctx, opDeposit, tx, models.Completed{
		At:                      i.now(),
		DestinationBalanceAfter: decimal.NewNullDecimal(res.Balance),
	})
}

// Withdrawal debits amount plus the withdrawal fee from the source account.
func (i *TransactionInteractor) Withdrawal(ctx context.Context, dto *dtos.WithdrawalDTO) (*models.Transaction, error) {
	tx, err := models.NewTransaction(models.TransactionParams{
		CustomerID:      dto.CustomerID,
		Type:            models.TypeWithdrawal,
		Amount:          dto.Amount,
		Currency:        dto.Currency,
		SourceAccountID: dto.AccountID,
		Description:     dto.Description,
		Channel:         orDefault(dto.Channel, models.ChannelATM),
		Fee:             i.fees.Withdrawal,
		FeeType:         models.FeeFixed,
		IPAddress:       dto.IPAddress,
		DeviceID:        dto.DeviceID,
		Location:        dto.Location,
	}, i.now())
	if err != nil {
		return nil, err
	}

	if err = i.open(ctx, opWithdrawal, tx); err != nil {
		return nil, err
	}

	res, err := i.saga.runLeg(ctx, tx.ID, models.StepDebitSource, tx.SourceAccountID, tx.DebitAmount())
	if err != nil {
		return i.fail(ctx, opWithdrawal, tx, err)
	}

	return i.complete(ctx, opWithdrawal, tx, models.Completed{
		At:                 i.now(),
		SourceBalanceAfter: decimal.NewNullDecimal(res.Balance),
	})
}

// Transfer debits the source (amount plus fee) and then credits the destination (amount).
// When the credit fails the debit is compensated once before the record is failed.
func (i *TransactionInteractor) Transfer(ctx context.Context, dto *dtos.TransferDTO) (*models.Transaction, error) {
	tx, err := models.NewTransaction(models.TransactionParams{
		CustomerID:           dto.CustomerID,
		Type:                 models.TypeTransfer,
		Amount:               dto.Amount,
		Currency:             dto.Currency,
		SourceAccountID:      dto.SourceAccountID,
		DestinationAccountID: dto.DestinationAccountID,
		Description:          dto.Description,
		Channel:              orDefault(dto.Channel, models.ChannelWeb),
		Fee:                  i.fees.Transfer,
		FeeType:              models.FeeFixed,
		IPAddress:            dto.IPAddress,
		DeviceID:             dto.DeviceID,
		Location:             dto.Location,
	}, i.now())
	if err != nil {
		return nil, err
	}

	if err = i.open(ctx, opTransfer, tx); err != nil {
		return nil, err
	}

	debit, err := i.saga.runLeg(ctx, tx.ID, models.StepDebitSource, tx.SourceAccountID, tx.DebitAmount())
	if err != nil {
		return i.fail(ctx, opTransfer, tx, err)
	}

	credit, err := i.saga.runLeg(ctx, tx.ID, models.StepCreditDestination, tx.DestinationAccountID, tx.Amount)
	if err != nil {
		i.logger.Error().Err(err).Str("transaction_id", tx.ID).Msg("Credit failed, reversing debit")
		if note := i.compensate(ctx, tx); note != "" {
			return i.fail(ctx, opTransfer, tx, err, note)
		}
		return i.fail(ctx, opTransfer, tx, err)
	}

	return i.complete(ctx, opTransfer, tx, models.Completed{
		At:                      i.now(),
		SourceBalanceAfter:      decimal.NewNullDecimal(debit.Balance),
		DestinationBalanceAfter: decimal.NewNullDecimal(credit.Balance),
	})
}

// compensate credits back what the transfer debited. It returns a note when
// the compensation could not be completed.
func (i *TransactionInteractor) compensate(ctx context.Context, tx models.Transaction) string {
	_, err := i.saga.runLeg(ctx, tx.ID, models.StepCompensateSource, tx.SourceAccountID, tx.DebitAmount())
	if err != nil {
		metrics.CompensationsTotal.WithLabelValues("failed").Inc()
		i.logger.Error().Err(err).
			Str("transaction_id", tx.ID).
			Str("account_id", tx.SourceAccountID).
			Str("amount", tx.DebitAmount().String()).
			Msg("Compensation failed, left for recovery")
		return "Compensation failed: " + err.Error()
	}

	metrics.CompensationsTotal.WithLabelValues("succeeded").Inc()
	return ""
}

// Reverse writes a reversal record for a COMPLETED transaction and marks the
// original REVERSED. No balance call is made.
func (i *TransactionInteractor) Reverse(ctx context.Context, id, reason string) (*ReversalResult, error) {
	original, err := i.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewProcessingError(opReversal+" failed: "+err.Error(), err)
	}
	if original == nil {
		return nil, apperrors.NewNotFoundError(apperrors.ErrTransactionNotFound)
	}

	now := i.now()
	reversal, err := models.NewReversal(*original, reason, now)
	if err != nil {
		return nil, err
	}
	reversed, err := models.Apply(*original, models.Reversed{At: now, Reason: reason})
	if err != nil {
		return nil, err
	}

	if err = i.transactions.Insert(ctx, reversal); err != nil {
		i.logger.Error().Err(err).Str("transaction_id", id).Msg(apperrors.ErrFailedPersistTransaction)
		return nil, apperrors.NewProcessingError(opReversal+" failed: "+apperrors.ErrFailedPersistTransaction, err)
	}

	if err = i.transactions.Update(ctx, reversed); err != nil {
		i.logger.Error().Err(err).
			Str("transaction_id", id).
			Str("reversal_id", reversal.ID).
			Msg("Reversal record written but original not updated")
		return nil, apperrors.NewProcessingError(opReversal+" failed: "+apperrors.ErrFailedPersistTransaction, err)
	}

	i.logger.Info().Str("transaction_id", id).Str("reversal_id", reversal.ID).Msg("Transaction reversed")
	i.finish(services.EventTransactionReversed, reversed)
	return &ReversalResult{Reversal: reversal, Original: reversed}, nil
}

// open persists the PENDING record. Nothing else happens if it fails.
func (i *TransactionInteractor) open(ctx context.Context, op string, tx models.Transaction) error {
	if err := i.transactions.Insert(ctx, tx); err != nil {
		i.logger.Error().Err(err).Str("operation", op).Msg(apperrors.ErrFailedPersistTransaction)
		return apperrors.NewProcessingError(op+" failed: "+apperrors.ErrFailedPersistTransaction, err)
	}

	i.logger.Debug().
		Str("transaction_id", tx.ID).
		Str("operation", op).
		Str("amount", tx.Amount.String()).
		Msg("Transaction opened")
	return nil
}

func (i *TransactionInteractor) complete(ctx context.Context, op string, tx models.Transaction, ev models.Completed) (*models.Transaction, error) {
	done, err := models.Apply(tx, ev)
	if err != nil {
		return nil, err
	}

	if err = i.transactions.Update(ctx, done); err != nil {
		i.logger.Error().Err(err).
			Str("transaction_id", tx.ID).
			Msg("Balance moved but completion not persisted, left for recovery")
		return nil, apperrors.NewProcessingError(op+" failed: "+apperrors.ErrFailedPersistTransaction, err)
	}

	i.logger.Info().Str("transaction_id", done.ID).Str("operation", op).Msg("Transaction completed")
	i.finish(services.EventTransactionCompleted, done)
	return &done, nil
}

// fail persists the FAILED record before the cause is surfaced.
func (i *TransactionInteractor) fail(ctx context.Context, op string, tx models.Transaction, cause error, notes ...string) (*models.Transaction, error) {
	failed, err := models.Apply(tx, models.Failed{At: i.now(), Reason: cause.Error()})
	if err != nil {
		return nil, err
	}
	for _, note := range notes {
		failed, _ = models.Apply(failed, models.Noted{At: failed.UpdatedAt, Note: note})
	}

	if err = i.transactions.Update(ctx, failed); err != nil {
		i.logger.Error().Err(err).
			Str("transaction_id", tx.ID).
			AnErr("cause", cause).
			Msg("Failure not persisted, left for recovery")
		return nil, apperrors.NewProcessingError(op+" failed: "+apperrors.ErrFailedPersistTransaction+" after: "+cause.Error(), err)
	}

	i.logger.Warn().Err(cause).Str("transaction_id", tx.ID).Str("operation", op).Msg("Transaction failed")
	i.finish(services.EventTransactionFailed, failed)
	return nil, surface(op, cause)
}

func (i *TransactionInteractor) finish(eventType services.EventType, tx models.Transaction) {
	metrics.TransactionsTotal.WithLabelValues(string(tx.TransactionType), string(tx.Status)).Inc()
	if i.notifier != nil {
		i.notifier.Notify(eventType, tx)
	}
}

// surface maps a leg failure to the error returned to the caller.
// Insufficient funds is passed through unchanged.
func surface(op string, cause error) error {
	var insufficient *apperrors.InsufficientFundsError
	if errors.As(cause, &insufficient) {
		return insufficient
	}

	var unavailable *apperrors.ServiceUnavailableError
	if errors.As(cause, &unavailable) {
		return apperrors.NewServiceUnavailableError(op+" failed: "+cause.Error(), cause)
	}

	return apperrors.NewProcessingError(op+" failed: "+cause.Error(), cause)
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
