package handlers

import (
	"context"
	"github.com/bootcamp67/ms-transaction/internal/domain/models"
	"github.com/bootcamp67/ms-transaction/internal/errors"
	http2 "github.com/bootcamp67/ms-transaction/internal/infrastructure/api/http"
	"github.com/bootcamp67/ms-transaction/pkg/log"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"net/http"
	"time"
)

type TransactionQuerier interface {
	Get(ctx context.Context, id string) (*models.Transaction, error)
	ListAll(ctx context.Context) ([]models.Transaction, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Transaction, error)
	ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error)
	ListByCard(ctx context.Context, cardID string) ([]models.Transaction, error)
	ListByCredit(ctx context.Context, creditID string) ([]models.Transaction, error)
	ListByDateRange(ctx context.Context, customerID string, start, end time.Time) ([]models.Transaction, error)
}

type QueryHandler struct {
	querier TransactionQuerier
	logger  *zerolog.Logger
}

func NewQueryHandler(querier TransactionQuerier) *QueryHandler {
	logger := log.GetLogger()
	return &QueryHandler{querier: querier, logger: &logger}
}

// ListAll is mounted behind RequireAdmin.
func (h *QueryHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, func() ([]models.Transaction, error) {
		return h.querier.ListAll(r.Context())
	})
}

func (h *QueryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	tx, err := h.querier.Get(r.Context(), chi.URLParam(r, http2.TransactionIDParam))
	if err != nil {
		logFailure(h.logger, err, errors.ErrFailedQueryTransactions)
		errors.HandleHTTPError(w, err)
		return
	}
	if !id.CanAccessCustomer(tx.CustomerID) {
		h.logger.Warn().Str("transaction_id", tx.ID).Str("username", id.Username).Msg(errors.ErrAccessDenied)
		errors.HandleHTTPError(w, errors.NewForbiddenError())
		return
	}

	respond(w, http.StatusOK, tx)
}

func (h *QueryHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.ownCustomer(w, r)
	if !ok {
		return
	}
	h.list(w, func() ([]models.Transaction, error) {
		return h.querier.ListByCustomer(r.Context(), customerID)
	})
}

func (h *QueryHandler) ListByDateRange(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.ownCustomer(w, r)
	if !ok {
		return
	}

	start, err := parseDate(r.URL.Query().Get(http2.StartDateQuery))
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	end, err := parseDate(r.URL.Query().Get(http2.EndDateQuery))
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	h.list(w, func() ([]models.Transaction, error) {
		return h.querier.ListByDateRange(r.Context(), customerID, start, end)
	})
}

func (h *QueryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	h.list(w, func() ([]models.Transaction, error) {
		return h.querier.ListByAccount(r.Context(), chi.URLParam(r, http2.AccountIDParam))
	})
}

func (h *QueryHandler) ListByCard(w http.ResponseWriter, r *http.Request) {
	h.list(w, func() ([]models.Transaction, error) {
		return h.querier.ListByCard(r.Context(), chi.URLParam(r, http2.CardIDParam))
	})
}

func (h *QueryHandler) ListByCredit(w http.ResponseWriter, r *http.Request) {
	h.list(w, func() ([]models.Transaction, error) {
		return h.querier.ListByCredit(r.Context(), chi.URLParam(r, http2.CreditIDParam))
	})
}

func (h *QueryHandler) ownCustomer(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := identity(w, r)
	if !ok {
		return "", false
	}
	customerID := chi.URLParam(r, http2.CustomerIDParam)
	if !id.CanAccessCustomer(customerID) {
		h.logger.Warn().Str("customer_id", customerID).Str("username", id.Username).Msg(errors.ErrAccessDenied)
		errors.HandleHTTPError(w, errors.NewForbiddenError())
		return "", false
	}
	return customerID, true
}

func (h *QueryHandler) list(w http.ResponseWriter, fetch func() ([]models.Transaction, error)) {
	txs, err := fetch()
	if err != nil {
		logFailure(h.logger, err, errors.ErrFailedQueryTransactions)
		errors.HandleHTTPError(w, err)
		return
	}
	respond(w, http.StatusOK, txs)
}

// parseDate accepts RFC3339, or a zone-less ISO date-time read as UTC.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.NewBadRequestError("startDate and endDate are required")
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.NewBadRequestError("invalid date: " + value)
}
