package interactor

import (
	"context"
	"errors"
	"fmt"
	"github.com/bootcamp67/ms-transaction/internal/domain/models"
	"github.com/bootcamp67/ms-transaction/internal/domain/repositories"
	"github.com/bootcamp67/ms-transaction/internal/domain/services"
	apperrors "github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/bootcamp67/ms-transaction/internal/metrics"
	"github.com/bootcamp67/ms-transaction/pkg/log"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"sync"
	"time"
)

type RecoveryConfig struct {
	StaleAfter              time.Duration
	MaxCompensationAttempts int
	BatchSize               int
}

// RecoveryInteractor settles PENDING records that no request will finish,
// using the step log to decide what happened to the money.
type RecoveryInteractor struct {
	transactions repositories.TransactionRepository
	steps        repositories.SagaStepRepository
	saga         *sagaRunner
	notifier     services.Notifier
	cfg          RecoveryConfig
	now          func() time.Time
	logger       *zerolog.Logger
	sync.Mutex
	counter int
}

// NewRecoveryInteractor creates a new RecoveryInteractor
func NewRecoveryInteractor(
	transactions repositories.TransactionRepository,
	steps repositories.SagaStepRepository,
	balance services.BalanceClient,
	notifier services.Notifier,
	cfg RecoveryConfig,
) *RecoveryInteractor {
	l := log.GetLogger()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	r := &RecoveryInteractor{
		transactions: transactions,
		steps:        steps,
		notifier:     notifier,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       &l,
	}
	r.saga = &sagaRunner{steps: steps, balance: balance, now: r.clock, logger: &l}
	return r
}

func (r *RecoveryInteractor) clock() time.Time {
	return r.now()
}

// Execute runs one sweep. An error on one record does not stop the others.
func (r *RecoveryInteractor) Execute(ctx context.Context) error {
	r.Lock()
	defer r.Unlock()

	pending, err := r.transactions.ListPendingBefore(ctx, r.now().Add(-r.cfg.StaleAfter), r.cfg.BatchSize)
	if err != nil {
		r.logger.Error().Err(err).Msg(apperrors.ErrFailedReconcileTransactions)
		return err
	}

	var errs []error
	for _, tx := range pending {
		if err = r.reconcile(ctx, tx); err != nil {
			r.logger.Error().Err(err).Str("transaction_id", tx.ID).Msg(apperrors.ErrFailedReconcileTransactions)
			errs = append(errs, err)
		}
	}

	if err = r.retryCompensations(ctx); err != nil {
		errs = append(errs, err)
	}

	r.counter++
	r.logger.Info().
		Int("pending", len(pending)).
		Int("errors", len(errs)).
		Int("iteration", r.counter).
		Msg("Recovery sweep finished")

	return errors.Join(errs...)
}

// legs lists the balance calls a record needs, in execution order.
func legs(tx models.Transaction) []models.StepKind {
	var kinds []models.StepKind
	if tx.SourceAccountID != "" {
		kinds = append(kinds, models.StepDebitSource)
	}
	if tx.DestinationAccountID != "" {
		kinds = append(kinds, models.StepCreditDestination)
	}
	return kinds
}

func (r *RecoveryInteractor) reconcile(ctx context.Context, tx models.Transaction) error {
	steps, err := r.steps.ListSteps(ctx, tx.ID)
	if err != nil {
		return fmt.Errorf("list steps: %w", err)
	}

	var (
		succeeded = map[models.StepKind]models.SagaStep{}
		reason    string
	)
	for _, kind := range legs(tx) {
		step, ok := steps.Latest(kind)
		switch {
		case !ok:
			if reason == "" {
				reason = fmt.Sprintf("abandoned: %s never started", kind)
			}
		case step.Status == models.StepStarted:
			r.unknownOutcome(tx, step)
			return nil
		case step.Status == models.StepFailed:
			if reason == "" {
				reason = fmt.Sprintf("abandoned: %s failed: %s", kind, step.Error)
			}
		default:
			succeeded[kind] = step
		}
	}

	if reason == "" {
		return r.settleCompleted(ctx, tx, succeeded)
	}

	var notes []string
	if debit, ok := succeeded[models.StepDebitSource]; ok && tx.DestinationAccountID != "" {
		comp, found := steps.Latest(models.StepCompensateSource)
		switch {
		case !found:
			if _, err = r.saga.runLeg(ctx, tx.ID, models.StepCompensateSource, debit.AccountID, debit.Amount); err != nil {
				metrics.CompensationsTotal.WithLabelValues("failed").Inc()
				notes = append(notes, "Compensation failed: "+err.Error())
			} else {
				metrics.CompensationsTotal.WithLabelValues("succeeded").Inc()
			}
		case comp.Status == models.StepStarted:
			r.unknownOutcome(tx, comp)
			return nil
		}
	}

	return r.settleFailed(ctx, tx, reason, notes)
}

func (r *RecoveryInteractor) unknownOutcome(tx models.Transaction, step models.SagaStep) {
	metrics.ReconciliationRequired.Inc()
	r.logger.Warn().
		Str("transaction_id", tx.ID).
		Str("step", string(step.Kind)).
		Str("account_id", step.AccountID).
		Str("amount", step.Amount.String()).
		Msg("Balance call outcome unknown, manual reconciliation required")
}

func (r *RecoveryInteractor) settleCompleted(ctx context.Context, tx models.Transaction, succeeded map[models.StepKind]models.SagaStep) error {
	ev := models.Completed{At: r.now()}
	if s, ok := succeeded[models.StepDebitSource]; ok {
		ev.SourceBalanceAfter = s.BalanceAfter
	}
	if s, ok := succeeded[models.StepCreditDestination]; ok {
		ev.DestinationBalanceAfter = s.BalanceAfter
	}

	done, err := models.Apply(tx, ev)
	if err != nil {
		return err
	}
	if err = r.transactions.Update(ctx, done); err != nil {
		return fmt.Errorf("%s: %w", apperrors.ErrFailedPersistTransaction, err)
	}

	r.settled(services.EventTransactionCompleted, done)
	return nil
}

func (r *RecoveryInteractor) settleFailed(ctx context.Context, tx models.Transaction, reason string, notes []string) error {
	failed, err := models.Apply(tx, models.Failed{At: r.now(), Reason: reason})
	if err != nil {
		return err
	}
	for _, note := range notes {
		failed, _ = models.Apply(failed, models.Noted{At: failed.UpdatedAt, Note: note})
	}

	if err = r.transactions.Update(ctx, failed); err != nil {
		return fmt.Errorf("%s: %w", apperrors.ErrFailedPersistTransaction, err)
	}

	r.settled(services.EventTransactionFailed, failed)
	return nil
}

func (r *RecoveryInteractor) settled(eventType services.EventType, tx models.Transaction) {
	metrics.RecoveredTotal.WithLabelValues(string(tx.Status)).Inc()
	metrics.TransactionsTotal.WithLabelValues(string(tx.TransactionType), string(tx.Status)).Inc()
	r.logger.Info().Str("transaction_id", tx.ID).Str("status", string(tx.Status)).Msg("Transaction recovered")
	if r.notifier != nil {
		r.notifier.Notify(eventType, tx)
	}
}

// retryCompensations re-issues failed compensating credits until they succeed
// or run out of attempts.
func (r *RecoveryInteractor) retryCompensations(ctx context.Context) error {
	if r.cfg.MaxCompensationAttempts <= 1 {
		return nil
	}

	steps, err := r.steps.ListFailedCompensations(ctx, r.cfg.MaxCompensationAttempts, r.cfg.BatchSize)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to list failed compensations")
		return err
	}

	for _, step := range steps {
		res, err := r.saga.retry(ctx, step)
		if err != nil {
			metrics.CompensationsTotal.WithLabelValues("failed").Inc()
			ev := r.logger.Warn()
			if step.Attempts+1 >= r.cfg.MaxCompensationAttempts {
				ev = r.logger.Error()
			}
			ev.Err(err).
				Str("transaction_id", step.TransactionID).
				Int("attempt", step.Attempts+1).
				Msg("Compensation retry failed")
			continue
		}

		metrics.CompensationsTotal.WithLabelValues("succeeded").Inc()
		r.noteCompensated(ctx, step, res.Balance)
	}

	return nil
}

func (r *RecoveryInteractor) noteCompensated(ctx context.Context, step models.SagaStep, balance decimal.Decimal) {
	tx, err := r.transactions.GetByID(ctx, step.TransactionID)
	if err != nil || tx == nil {
		r.logger.Error().Err(err).Str("transaction_id", step.TransactionID).Msg(apperrors.ErrTransactionNotFound)
		return
	}

	noted, _ := models.Apply(*tx, models.Noted{
		At:   r.now(),
		Note: fmt.Sprintf("Compensation succeeded on attempt %d, balance %s", step.Attempts+1, balance),
	})
	if err = r.transactions.Update(ctx, noted); err != nil {
		r.logger.Error().Err(err).Str("transaction_id", tx.ID).Msg(apperrors.ErrFailedPersistTransaction)
	}
}
