package dtos

import (
	"encoding/json"
	"github.com/shopspring/decimal"
)

// Origin carries request metadata recorded on the ledger row.
type Origin struct {
	CustomerID string `json:"-"`
	IPAddress  string `json:"ipAddress,omitempty" validate:"max=64"`
	DeviceID   string `json:"deviceId,omitempty" validate:"max=128"`
	Location   string `json:"location,omitempty" validate:"max=255"`
}

type DepositDTO struct {
	AccountID   string          `json:"accountId" validate:"required,max=64"`
	Amount      decimal.Decimal `json:"-"`
	RawAmount   json.RawMessage `json:"amount"`
	Currency    string          `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Description string          `json:"description,omitempty" validate:"max=255"`
	Channel     string          `json:"channel,omitempty" validate:"max=32"`
	Reference   string          `json:"reference,omitempty" validate:"max=64"`
	Origin
}

type WithdrawalDTO struct {
	AccountID   string          `json:"accountId" validate:"required,max=64"`
	Amount      decimal.Decimal `json:"-"`
	RawAmount   json.RawMessage `json:"amount"`
	Currency    string          `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Description string          `json:"description,omitempty" validate:"max=255"`
	Channel     string          `json:"channel,omitempty" validate:"max=32"`
	Origin
}

type TransferDTO struct {
	SourceAccountID      string          `json:"sourceAccountId" validate:"required,max=64"`
	DestinationAccountID string          `json:"destinationAccountId" validate:"required,max=64"`
	Amount               decimal.Decimal `json:"-"`
	RawAmount            json.RawMessage `json:"amount"`
	Currency             string          `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Description          string          `json:"description,omitempty" validate:"max=255"`
	Channel              string          `json:"channel,omitempty" validate:"max=32"`
	Origin
}

// Response wraps write results the way clients of the service expect.
type Response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
