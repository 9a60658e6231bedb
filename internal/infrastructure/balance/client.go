package balance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/bootcamp67/ms-transaction/internal/domain/services"
	apperrors "github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/bootcamp67/ms-transaction/internal/metrics"
	"github.com/bootcamp67/ms-transaction/pkg/log"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	opDebit  = "debit"
	opCredit = "credit"

	codeInsufficientFunds = "INSUFFICIENT_FUNDS"
	maxBodySize           = 1 << 20
	breakerName           = "balance-service"
)

type Config struct {
	BaseURL             string
	Timeout             time.Duration
	MaxRequests         uint32
	Interval            time.Duration
	OpenTimeout         time.Duration
	ConsecutiveFailures uint32
}

// DefaultConfig mirrors the usual settings for an internal HTTP dependency.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:             baseURL,
		Timeout:             5 * time.Second,
		MaxRequests:         3,
		Interval:            2 * time.Minute,
		OpenTimeout:         10 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Client calls the account service over HTTP behind a circuit breaker.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zerolog.Logger
}

var _ services.BalanceClient = (*Client)(nil)

func NewClient(cfg Config) *Client {
	l := log.GetLogger()
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  &l,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// only an unreachable service trips the breaker, business rejections do not
		IsSuccessful: func(err error) bool {
			var unavailable *apperrors.ServiceUnavailableError
			return !errors.As(err, &unavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			c.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	})

	return c
}

type amountRequest struct {
	Amount string `json:"amount"`
}

type accountResponse struct {
	ID      string          `json:"id"`
	Balance decimal.Decimal `json:"balance"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) Debit(ctx context.Context, accountID string, amount decimal.Decimal) (services.BalanceResult, error) {
	return c.execute(ctx, opDebit, accountID, amount)
}

func (c *Client) Credit(ctx context.Context, accountID string, amount decimal.Decimal) (services.BalanceResult, error) {
	return c.execute(ctx, opCredit, accountID, amount)
}

func (c *Client) execute(ctx context.Context, op, accountID string, amount decimal.Decimal) (services.BalanceResult, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.call(ctx, op, accountID, amount)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = apperrors.NewServiceUnavailableError("balance service unavailable (circuit breaker open)", err)
		}
		metrics.BalanceCalls.WithLabelValues(op, resultLabel(err)).Inc()
		c.logger.Error().Err(err).Str("operation", op).Str("account_id", accountID).Msg("Balance call failed")
		return services.BalanceResult{}, err
	}

	metrics.BalanceCalls.WithLabelValues(op, "ok").Inc()
	return out.(services.BalanceResult), nil
}

func (c *Client) call(ctx context.Context, op, accountID string, amount decimal.Decimal) (services.BalanceResult, error) {
	body, err := json.Marshal(amountRequest{Amount: amount.StringFixed(2)})
	if err != nil {
		return services.BalanceResult{}, apperrors.NewProcessingError("failed to encode balance request", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/accounts/%s/%s", c.baseURL, url.PathEscape(accountID), op)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return services.BalanceResult{}, apperrors.NewProcessingError("failed to build balance request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return services.BalanceResult{}, apperrors.NewServiceUnavailableError("balance service unavailable", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return services.BalanceResult{}, apperrors.NewServiceUnavailableError("balance service unavailable", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var account accountResponse
		if err = json.Unmarshal(data, &account); err != nil {
			return services.BalanceResult{}, apperrors.NewProcessingError("invalid balance service response", err)
		}
		if account.ID == "" {
			account.ID = accountID
		}
		return services.BalanceResult{AccountID: account.ID, Balance: account.Balance}, nil
	}

	return services.BalanceResult{}, classify(op, resp.StatusCode, data)
}

// classify maps a non-2xx reply to an error kind.
func classify(op string, status int, body []byte) error {
	var reply errorResponse
	_ = json.Unmarshal(body, &reply)

	detail := reply.Message
	if detail == "" {
		detail = strings.TrimSpace(string(body))
	}
	cause := fmt.Errorf("%s: status %d: %s", op, status, detail)

	switch {
	case status >= http.StatusInternalServerError:
		return apperrors.NewServiceUnavailableError("balance service unavailable", cause)
	case op == opDebit && (status == http.StatusConflict || status == http.StatusUnprocessableEntity || reply.Code == codeInsufficientFunds):
		return apperrors.NewInsufficientFundsError()
	default:
		msg := fmt.Sprintf("failed to %s account", op)
		if detail != "" {
			msg += ": " + detail
		}
		return apperrors.NewProcessingError(msg, cause)
	}
}

func resultLabel(err error) string {
	var (
		insufficient *apperrors.InsufficientFundsError
		unavailable  *apperrors.ServiceUnavailableError
	)
	switch {
	case errors.As(err, &insufficient):
		return "insufficient_funds"
	case errors.As(err, &unavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// State exposes the breaker state for health reporting.
func (c *Client) State() string {
	return c.breaker.State().String()
}
