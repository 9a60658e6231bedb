package handlers

import (
	"context"
	"encoding/json"
	"github.com/bootcamp67/ms-transaction/internal/domain/models"
	"github.com/bootcamp67/ms-transaction/internal/errors"
	http2 "github.com/bootcamp67/ms-transaction/internal/infrastructure/api/http"
	"github.com/bootcamp67/ms-transaction/internal/infrastructure/api/middlewares"
	"github.com/bootcamp67/ms-transaction/internal/usecases/dtos"
	"github.com/bootcamp67/ms-transaction/internal/usecases/interactor"
	"github.com/bootcamp67/ms-transaction/pkg/log"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"net/http"
	"strings"
)

type TransactionService interface {
	Deposit(ctx context.Context, dto *dtos.DepositDTO) (*models.Transaction, error)
	Withdrawal(ctx context.Context, dto *dtos.WithdrawalDTO) (*models.Transaction, error)
	Transfer(ctx context.Context, dto *dtos.TransferDTO) (*models.Transaction, error)
	Reverse(ctx context.Context, id, reason string) (*interactor.ReversalResult, error)
}

type TransactionHandler struct {
	service TransactionService
	logger  *zerolog.Logger
}

func NewTransactionHandler(service TransactionService) *TransactionHandler {
	logger := log.GetLogger()
	return &TransactionHandler{service: service, logger: &logger}
}

func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var dto dtos.DepositDTO
	if !h.decode(w, r, &dto) {
		return
	}
	dto.AccountID = strings.TrimSpace(dto.AccountID)
	if err := validateRequest(&dto); err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	amount, err := parseAmount(dto.RawAmount)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	dto.Amount = amount
	dto.Origin = origin(r, id, dto.Origin)

	h.logger.Info().Str("customer_id", id.CustomerID).Str("username", id.Username).Msg("Processing deposit")
	tx, err := h.service.Deposit(r.Context(), &dto)
	if err != nil {
		logFailure(h.logger, err, errors.ErrFailedProcessTransaction)
		errors.HandleHTTPError(w, err)
		return
	}

	respond(w, http.StatusOK, dtos.Response{Message: "Deposit completed successfully", Data: tx})
}

func (h *TransactionHandler) Withdrawal(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var dto dtos.WithdrawalDTO
	if !h.decode(w, r, &dto) {
		return
	}
	dto.AccountID = strings.TrimSpace(dto.AccountID)
	if err := validateRequest(&dto); err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	amount, err := parseAmount(dto.RawAmount)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	dto.Amount = amount
	dto.Origin = origin(r, id, dto.Origin)

	h.logger.Info().Str("customer_id", id.CustomerID).Str("username", id.Username).Msg("Processing withdrawal")
	tx, err := h.service.Withdrawal(r.Context(), &dto)
	if err != nil {
		logFailure(h.logger, err, errors.ErrFailedProcessTransaction)
		errors.HandleHTTPError(w, err)
		return
	}

	respond(w, http.StatusOK, dtos.Response{Message: "Withdrawal completed successfully", Data: tx})
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var dto dtos.TransferDTO
	if !h.decode(w, r, &dto) {
		return
	}
	dto.SourceAccountID = strings.TrimSpace(dto.SourceAccountID)
	dto.DestinationAccountID = strings.TrimSpace(dto.DestinationAccountID)
	if err := validateRequest(&dto); err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	amount, err := parseAmount(dto.RawAmount)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	dto.Amount = amount
	dto.Origin = origin(r, id, dto.Origin)

	h.logger.Info().Str("customer_id", id.CustomerID).Str("username", id.Username).Msg("Processing transfer")
	tx, err := h.service.Transfer(r.Context(), &dto)
	if err != nil {
		logFailure(h.logger, err, errors.ErrFailedProcessTransaction)
		errors.HandleHTTPError(w, err)
		return
	}

	respond(w, http.StatusOK, dtos.Response{Message: "Transfer completed successfully", Data: tx})
}

// Reverse is mounted behind RequireAdmin.
func (h *TransactionHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, http2.TransactionIDParam)
	reason := strings.TrimSpace(r.URL.Query().Get(http2.ReasonQuery))
	if reason == "" {
		errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrReasonRequired))
		return
	}

	h.logger.Info().Str("transaction_id", txID).Msg("Reversing transaction")
	result, err := h.service.Reverse(r.Context(), txID, reason)
	if err != nil {
		logFailure(h.logger, err, errors.ErrFailedProcessTransaction)
		errors.HandleHTTPError(w, err)
		return
	}

	respond(w, http.StatusOK, dtos.Response{Message: "Transaction reversed successfully", Data: result.Original})
}

func (h *TransactionHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrFailedDecodeRequestBody)
		errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrInvalidRequestBody))
		return false
	}
	return true
}

// parseAmount accepts a JSON string or number.
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 {
		return decimal.Zero, errors.NewBadRequestError(errors.ErrAmountMustBePositive)
	}
	var amount decimal.Decimal
	if err := json.Unmarshal(raw, &amount); err != nil {
		return decimal.Zero, errors.NewBadRequestError("invalid amount")
	}
	if !amount.IsPositive() {
		return decimal.Zero, errors.NewBadRequestError(errors.ErrAmountMustBePositive)
	}
	if !models.FitsMoneyScale(amount) {
		return decimal.Zero, errors.NewBadRequestError(errors.ErrAmountTooPrecise)
	}
	return amount, nil
}

func origin(r *http.Request, id middlewares.Identity, body dtos.Origin) dtos.Origin {
	body.CustomerID = id.CustomerID
	if body.IPAddress == "" {
		body.IPAddress = clientIP(r)
	}
	return body
}
