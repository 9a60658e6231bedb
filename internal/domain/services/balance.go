package services

import (
	"context"
	"github.com/shopspring/decimal"
)

// BalanceResult is the account state reported by the balance service after a call.
type BalanceResult struct {
	AccountID string
	Balance   decimal.Decimal
}

// BalanceClient moves funds on the authoritative account store.
// Debit returns an InsufficientFundsError when the account cannot cover amount.
type BalanceClient interface {
	Debit(ctx context.Context, accountID string, amount decimal.Decimal) (BalanceResult, error)
	Credit(ctx context.Context, accountID string, amount decimal.Decimal) (BalanceResult, error)
}
