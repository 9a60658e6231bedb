package errors

import (
	"errors"
	"fmt"
)

const (
	ErrFailedReconcileTransactions    = "Failed to reconcile pending transactions"
	ErrorFailedToConnectToTheDatabase = "Failed to connect to the database"
	ErrorFailedToRunMigrations        = "Failed to run database migrations"
	ErrorFailedToCreatePublisher      = "Failed to create event publisher"
	ErrorFailedToRunTheServer         = "Failed to run the server"
	ErrorFailedToShutdownTheServer    = "Failed to shutdown the server"
	ErrFailedDecodeRequestBody        = "Failed to decode request body"
	ErrInvalidRequestBody             = "Invalid request body"
	ErrFailedProcessTransaction       = "Failed to process transaction"
	ErrFailedQueryTransactions        = "Failed to query transactions"
	ErrFailedPersistTransaction       = "failed to persist transaction"
	ErrFailedRecordSagaStep           = "failed to record saga step"
	ErrTransactionNotFound            = "Transaction not found"
	ErrAccountIDRequired              = "Account ID is required"
	ErrAmountMustBePositive           = "Amount must be positive"
	ErrFeeMustNotBeNegative           = "Fee must not be negative"
	ErrAmountTooPrecise               = "Amount must have at most 2 decimal places"
	ErrFeeTooPrecise                  = "Fee must have at most 2 decimal places"
	ErrSameSourceAndDestination       = "Source and destination accounts must be different"
	ErrOnlyCompletedCanBeReversed     = "Only completed transactions can be reversed"
	ErrReasonRequired                 = "Reason is required"
	ErrInvalidDateRange               = "Start date must not be after end date"
	ErrMissingUsername                = "Missing authentication username"
	ErrMissingCustomerID              = "Missing customer ID"
	ErrMissingRole                    = "Missing role"
	ErrInvalidToken                   = "Invalid access token"
	ErrAccessDenied                   = "Access denied"
)

type BadRequestError struct {
	Message string
}

func NewBadRequestError(message string) *BadRequestError {
	return &BadRequestError{Message: message}
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("Bad request: %s", e.Message)
}

// ValidationError is returned when a request or a state change breaks a ledger rule.
// It is always raised before anything is written.
type ValidationError struct {
	Message string
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

type NotFoundError struct {
	Message string
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func (e *NotFoundError) Error() string {
	return e.Message
}

type InsufficientFundsError struct{}

func NewInsufficientFundsError() *InsufficientFundsError {
	return &InsufficientFundsError{}
}

func (e *InsufficientFundsError) Error() string {
	return "insufficient balance"
}

// Is lets errors.Is match any InsufficientFundsError value.
func (e *InsufficientFundsError) Is(target error) bool {
	_, ok := target.(*InsufficientFundsError)
	return ok
}

// ProcessingError is a generic orchestration failure: a remote call or a ledger write went wrong.
type ProcessingError struct {
	Message string
	Cause   error
}

func NewProcessingError(message string, cause error) *ProcessingError {
	return &ProcessingError{Message: message, Cause: cause}
}

func (e *ProcessingError) Error() string {
	return e.Message
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// ServiceUnavailableError is the ProcessingError raised when the balance service cannot be reached.
type ServiceUnavailableError struct {
	*ProcessingError
}

func NewServiceUnavailableError(message string, cause error) *ServiceUnavailableError {
	return &ServiceUnavailableError{ProcessingError: NewProcessingError(message, cause)}
}

func (e *ServiceUnavailableError) Unwrap() error {
	return e.ProcessingError
}

type UnauthorizedError struct {
	Message string
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

type ForbiddenError struct{}

func NewForbiddenError() *ForbiddenError {
	return &ForbiddenError{}
}

func (e *ForbiddenError) Error() string {
	return ErrAccessDenied
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func Join(errs ...error) error {
	return errors.Join(errs...)
}
