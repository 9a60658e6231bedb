package interactor

import (
	"context"
	"fmt"
	"github.com/bootcamp67/ms-transaction/internal/domain/models"
	"github.com/bootcamp67/ms-transaction/internal/domain/repositories"
	"github.com/bootcamp67/ms-transaction/internal/domain/services"
	apperrors "github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"time"
)

// sagaRunner executes balance calls behind the step log.
type sagaRunner struct {
	steps   repositories.SagaStepRepository
	balance services.BalanceClient
	now     func() time.Time
	logger  *zerolog.Logger
}

// runLeg writes a STARTED step, makes the balance call and records its outcome.
// When the STARTED step cannot be written the call is not made, except for a
// compensation, which is always issued.
func (s *sagaRunner) runLeg(ctx context.Context, transactionID string, kind models.StepKind, accountID string, amount decimal.Decimal) (services.BalanceResult, error) {
	step := models.NewSagaStep(transactionID, kind, accountID, amount, s.now())
	if err := s.steps.InsertStep(ctx, step); err != nil {
		s.logger.Error().Err(err).
			Str("transaction_id", transactionID).
			Str("step", string(kind)).
			Msg(apperrors.ErrFailedRecordSagaStep)
		if kind == models.StepCompensateSource {
			return s.executeUnrecorded(ctx, step)
		}
		return services.BalanceResult{}, fmt.Errorf("%s: %w", apperrors.ErrFailedRecordSagaStep, err)
	}

	return s.execute(ctx, step)
}

// retry re-issues a failed step in place.
func (s *sagaRunner) retry(ctx context.Context, step models.SagaStep) (services.BalanceResult, error) {
	step = step.Retry(s.now())
	if err := s.steps.UpdateStep(ctx, step); err != nil {
		return services.BalanceResult{}, fmt.Errorf("%s: %w", apperrors.ErrFailedRecordSagaStep, err)
	}

	return s.execute(ctx, step)
}

func (s *sagaRunner) execute(ctx context.Context, step models.SagaStep) (services.BalanceResult, error) {
	res, err := s.call(ctx, step)
	if err != nil {
		s.saveStep(ctx, step.Fail(err, s.now()))
		return res, err
	}

	s.saveStep(ctx, step.Succeed(res.Balance, s.now()))
	return res, nil
}

// executeUnrecorded makes the call for a step that has no row yet and then
// inserts the outcome, so a failed compensation still reaches the recovery sweep.
func (s *sagaRunner) executeUnrecorded(ctx context.Context, step models.SagaStep) (services.BalanceResult, error) {
	res, err := s.call(ctx, step)
	var outcome models.SagaStep
	if err != nil {
		outcome = step.Fail(err, s.now())
	} else {
		outcome = step.Succeed(res.Balance, s.now())
	}

	if insertErr := s.steps.InsertStep(ctx, outcome); insertErr != nil {
		s.logger.Error().Err(insertErr).
			Str("transaction_id", step.TransactionID).
			Str("step", string(step.Kind)).
			Str("step_status", string(outcome.Status)).
			Str("account_id", step.AccountID).
			Str("amount", step.Amount.String()).
			Msg(apperrors.ErrFailedRecordSagaStep)
	}
	return res, err
}

func (s *sagaRunner) call(ctx context.Context, step models.SagaStep) (services.BalanceResult, error) {
	if step.Kind == models.StepDebitSource {
		return s.balance.Debit(ctx, step.AccountID, step.Amount)
	}
	return s.balance.Credit(ctx, step.AccountID, step.Amount)
}

// saveStep persists a step outcome. A failure here leaves the step STARTED,
// which the recovery sweep treats as an unknown outcome.
func (s *sagaRunner) saveStep(ctx context.Context, step models.SagaStep) {
	if err := s.steps.UpdateStep(ctx, step); err != nil {
		s.logger.Error().Err(err).
			Str("transaction_id", step.TransactionID).
			Str("step", string(step.Kind)).
			Str("step_status", string(step.Status)).
			Msg(apperrors.ErrFailedRecordSagaStep)
	}
}
