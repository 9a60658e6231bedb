package handlers

import (
	"context"
	"encoding/json"
	"github.com/bootcamp67/ms-transaction/internal/domain/models"
	"github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/bootcamp67/ms-transaction/internal/infrastructure/api/middlewares"
	"github.com/bootcamp67/ms-transaction/internal/usecases/dtos"
	"github.com/bootcamp67/ms-transaction/internal/usecases/interactor"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var customer = middlewares.Identity{Username: "jdoe", CustomerID: "C1", Role: "CUSTOMER"}
var admin = middlewares.Identity{Username: "root", CustomerID: "C0", Role: "admin"}

type fakeService struct {
	deposit    *dtos.DepositDTO
	withdrawal *dtos.WithdrawalDTO
	transfer   *dtos.TransferDTO
	reversed   string
	reason     string
	err        error
}

func (f *fakeService) result(typ models.TransactionType) (*models.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Transaction{ID: "T1", TransactionType: typ, Status: models.StatusCompleted}, nil
}

func (f *fakeService) Deposit(_ context.Context, dto *dtos.DepositDTO) (*models.Transaction, error) {
	f.deposit = dto
	return f.result(models.TypeDeposit)
}

func (f *fakeService) Withdrawal(_ context.Context, dto *dtos.WithdrawalDTO) (*models.Transaction, error) {
	f.withdrawal = dto
	return f.result(models.TypeWithdrawal)
}

func (f *fakeService) Transfer(_ context.Context, dto *dtos.TransferDTO) (*models.Transaction, error) {
	f.transfer = dto
	return f.result(models.TypeTransfer)
}

func (f *fakeService) Reverse(_ context.Context, id, reason string) (*interactor.ReversalResult, error) {
	f.reversed, f.reason = id, reason
	if f.err != nil {
		return nil, f.err
	}
	return &interactor.ReversalResult{
		Reversal: models.Transaction{ID: "R1", Reference: id, Status: models.StatusCompleted},
		Original: models.Transaction{ID: id, Status: models.StatusReversed},
	}, nil
}

func request(method, target, body string, id *middlewares.Identity, params map[string]string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.RemoteAddr = "192.0.2.10:5555"
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	if id != nil {
		ctx = middlewares.WithIdentity(ctx, *id)
	}
	return r.WithContext(ctx)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errors.HTTPError {
	t.Helper()
	var body errors.HTTPError
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestDeposit(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeService{}
		h := NewTransactionHandler(svc)
		w := httptest.NewRecorder()

		h.Deposit(w, request(http.MethodPost, "/deposit", `{"accountId":"A1","amount":"100.50","deviceId":"D1"}`, &customer, nil))

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Message string             `json:"message"`
			Data    models.Transaction `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "Deposit completed successfully", body.Message)
		assert.Equal(t, "T1", body.Data.ID)

		require.NotNil(t, svc.deposit)
		assert.True(t, svc.deposit.Amount.Equal(decimal.RequireFromString("100.50")))
		assert.Equal(t, "C1", svc.deposit.CustomerID)
		assert.Equal(t, "D1", svc.deposit.DeviceID)
		assert.Equal(t, "192.0.2.10", svc.deposit.IPAddress)
	})

	t.Run("numeric_amount", func(t *testing.T) {
		svc := &fakeService{}
		w := httptest.NewRecorder()
		NewTransactionHandler(svc).Deposit(w, request(http.MethodPost, "/deposit", `{"accountId":"A1","amount":12.5}`, &customer, nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, svc.deposit.Amount.Equal(decimal.RequireFromString("12.5")))
	})

	rejected := map[string]string{
		"zero_amount":     `{"accountId":"A1","amount":"0"}`,
		"negative_amount": `{"accountId":"A1","amount":-5}`,
		"missing_amount":  `{"accountId":"A1"}`,
		"garbage_amount":  `{"accountId":"A1","amount":"ten"}`,
		"sub_cent_amount": `{"accountId":"A1","amount":"0.004"}`,
		"third_decimal":   `{"accountId":"A1","amount":10.005}`,
		"missing_account": `{"amount":"10"}`,
		"blank_account":   `{"accountId":"  ","amount":"10"}`,
		"malformed_body":  `{"accountId":`,
	}
	for name, body := range rejected {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{}
			w := httptest.NewRecorder()
			NewTransactionHandler(svc).Deposit(w, request(http.MethodPost, "/deposit", body, &customer, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, svc.deposit)
		})
	}

	t.Run("no_identity", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewTransactionHandler(&fakeService{}).Deposit(w, request(http.MethodPost, "/deposit", `{}`, nil, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestWithdrawalErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"insufficient_funds", errors.NewInsufficientFundsError(), http.StatusBadRequest, "insufficient balance"},
		{"unavailable", errors.NewServiceUnavailableError("withdrawal failed", assert.AnError), http.StatusServiceUnavailable, ""},
		{"processing", errors.NewProcessingError("withdrawal failed", assert.AnError), http.StatusUnprocessableEntity, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{err: tc.err}
			w := httptest.NewRecorder()
			NewTransactionHandler(svc).Withdrawal(w, request(http.MethodPost, "/withdrawal", `{"accountId":"A1","amount":"20"}`, &customer, nil))

			assert.Equal(t, tc.code, w.Code)
			if tc.message != "" {
				assert.Equal(t, tc.message, decodeError(t, w).Message)
			}
		})
	}
}

func TestTransfer(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeService{}
		w := httptest.NewRecorder()
		NewTransactionHandler(svc).Transfer(w, request(http.MethodPost, "/transfer",
			`{"sourceAccountId":"A1","destinationAccountId":"A2","amount":"50.00","description":"rent"}`, &customer, nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "A1", svc.transfer.SourceAccountID)
		assert.Equal(t, "A2", svc.transfer.DestinationAccountID)
		assert.Equal(t, "rent", svc.transfer.Description)
	})

	t.Run("missing_destination", func(t *testing.T) {
		svc := &fakeService{}
		w := httptest.NewRecorder()
		NewTransactionHandler(svc).Transfer(w, request(http.MethodPost, "/transfer", `{"sourceAccountId":"A1","amount":"50"}`, &customer, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Nil(t, svc.transfer)
	})
}

func TestReverse(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeService{}
		w := httptest.NewRecorder()
		NewTransactionHandler(svc).Reverse(w, request(http.MethodPost, "/T9/reverse?reason=fraud", "", &admin, map[string]string{"id": "T9"}))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "T9", svc.reversed)
		assert.Equal(t, "fraud", svc.reason)
		assert.Contains(t, w.Body.String(), `"message":"Transaction reversed successfully"`)
		assert.Contains(t, w.Body.String(), `"id":"T9"`)
		assert.Contains(t, w.Body.String(), `"status":"REVERSED"`)
		assert.NotContains(t, w.Body.String(), `"id":"R1"`)
	})

	t.Run("reason_required", func(t *testing.T) {
		svc := &fakeService{}
		w := httptest.NewRecorder()
		NewTransactionHandler(svc).Reverse(w, request(http.MethodPost, "/T9/reverse", "", &admin, map[string]string{"id": "T9"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, svc.reversed)
	})

	t.Run("not_found", func(t *testing.T) {
		svc := &fakeService{err: errors.NewNotFoundError(errors.ErrTransactionNotFound)}
		w := httptest.NewRecorder()
		NewTransactionHandler(svc).Reverse(w, request(http.MethodPost, "/T9/reverse?reason=x", "", &admin, map[string]string{"id": "T9"}))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

type fakeQuerier struct {
	records []models.Transaction
	start   time.Time
	end     time.Time
	err     error
}

func (f *fakeQuerier) Get(_ context.Context, id string) (*models.Transaction, error) {
	for _, t := range f.records {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, errors.NewNotFoundError(errors.ErrTransactionNotFound)
}

func (f *fakeQuerier) ListAll(context.Context) ([]models.Transaction, error) {
	return f.records, f.err
}

func (f *fakeQuerier) ListByCustomer(_ context.Context, customerID string) ([]models.Transaction, error) {
	out := make([]models.Transaction, 0)
	for _, t := range f.records {
		if t.CustomerID == customerID {
			out = append(out, t)
		}
	}
	return out, f.err
}

func (f *fakeQuerier) ListByAccount(_ context.Context, accountID string) ([]models.Transaction, error) {
	out := make([]models.Transaction, 0)
	for _, t := range f.records {
		if t.InvolvesAccount(accountID) {
			out = append(out, t)
		}
	}
	return out, f.err
}

func (f *fakeQuerier) ListByCard(context.Context, string) ([]models.Transaction, error) {
	return []models.Transaction{}, f.err
}

func (f *fakeQuerier) ListByCredit(context.Context, string) ([]models.Transaction, error) {
	return []models.Transaction{}, f.err
}

func (f *fakeQuerier) ListByDateRange(ctx context.Context, customerID string, start, end time.Time) ([]models.Transaction, error) {
	f.start, f.end = start, end
	if start.After(end) {
		return nil, errors.NewValidationError(errors.ErrInvalidDateRange)
	}
	return f.ListByCustomer(ctx, customerID)
}

func newQuerier() *fakeQuerier {
	return &fakeQuerier{records: []models.Transaction{
		{ID: "T1", CustomerID: "C1", SourceAccountID: "A1"},
		{ID: "T2", CustomerID: "C2", DestinationAccountID: "A1"},
	}}
}

func TestQueryGet(t *testing.T) {
	cases := []struct {
		name string
		id   middlewares.Identity
		txID string
		code int
	}{
		{"owner", customer, "T1", http.StatusOK},
		{"other_customer", customer, "T2", http.StatusForbidden},
		{"admin", admin, "T2", http.StatusOK},
		{"missing", customer, "T404", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewQueryHandler(newQuerier()).Get(w, request(http.MethodGet, "/"+tc.txID, "", &tc.id, map[string]string{"id": tc.txID}))
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestQueryListByCustomer(t *testing.T) {
	t.Run("own_records", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewQueryHandler(newQuerier()).ListByCustomer(w, request(http.MethodGet, "/customer/C1", "", &customer, map[string]string{"customerId": "C1"}))

		require.Equal(t, http.StatusOK, w.Code)
		var txs []models.Transaction
		require.NoError(t, json.NewDecoder(w.Body).Decode(&txs))
		require.Len(t, txs, 1)
		assert.Equal(t, "T1", txs[0].ID)
	})

	t.Run("someone_else", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewQueryHandler(newQuerier()).ListByCustomer(w, request(http.MethodGet, "/customer/C2", "", &customer, map[string]string{"customerId": "C2"}))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestQueryListByAccount(t *testing.T) {
	w := httptest.NewRecorder()
	NewQueryHandler(newQuerier()).ListByAccount(w, request(http.MethodGet, "/account/A1", "", &customer, map[string]string{"accountId": "A1"}))

	require.Equal(t, http.StatusOK, w.Code)
	var txs []models.Transaction
	require.NoError(t, json.NewDecoder(w.Body).Decode(&txs))
	assert.Len(t, txs, 2)
}

func TestQueryListByDateRange(t *testing.T) {
	params := map[string]string{"customerId": "C1"}

	t.Run("rfc3339", func(t *testing.T) {
		q := newQuerier()
		w := httptest.NewRecorder()
		NewQueryHandler(q).ListByDateRange(w, request(http.MethodGet,
			"/customer/C1/date-range?startDate=2024-01-01T00:00:00Z&endDate=2024-01-31T23:59:59%2B02:00", "", &customer, params))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), q.start)
		assert.Equal(t, time.Date(2024, 1, 31, 21, 59, 59, 0, time.UTC), q.end)
	})

	t.Run("local_date_time", func(t *testing.T) {
		q := newQuerier()
		w := httptest.NewRecorder()
		NewQueryHandler(q).ListByDateRange(w, request(http.MethodGet,
			"/customer/C1/date-range?startDate=2024-01-01T00:00:00&endDate=2024-02-01T00:00:00", "", &customer, params))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), q.end)
	})

	t.Run("inverted_range", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewQueryHandler(newQuerier()).ListByDateRange(w, request(http.MethodGet,
			"/customer/C1/date-range?startDate=2024-02-01T00:00:00Z&endDate=2024-01-01T00:00:00Z", "", &customer, params))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing_dates", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewQueryHandler(newQuerier()).ListByDateRange(w, request(http.MethodGet, "/customer/C1/date-range", "", &customer, params))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestValidateRequest(t *testing.T) {
	cases := []struct {
		name    string
		payload interface{}
		message string
	}{
		{"valid", &dtos.DepositDTO{AccountID: "A1", Currency: "PEN"}, ""},
		{"account_required", &dtos.DepositDTO{}, "Bad request: " + errors.ErrAccountIDRequired},
		{"source_required", &dtos.TransferDTO{DestinationAccountID: "A2"}, "Bad request: Source account is required"},
		{"destination_required", &dtos.TransferDTO{SourceAccountID: "A1"}, "Bad request: Destination account is required"},
		{"bad_currency", &dtos.WithdrawalDTO{AccountID: "A1", Currency: "SOLES"}, "Bad request: Invalid Currency"},
		{"long_description", &dtos.WithdrawalDTO{AccountID: "A1", Description: strings.Repeat("x", 256)}, "Bad request: Description must be at most 255 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateRequest(tc.payload)
			if tc.message == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.message)
		})
	}
}
