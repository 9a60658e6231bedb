package models

import (
	apperrors "github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"strings"
	"time"
)

type TransactionType string

const (
	TypeDeposit       TransactionType = "DEPOSIT"
	TypeWithdrawal    TransactionType = "WITHDRAWAL"
	TypeTransfer      TransactionType = "TRANSFER"
	TypePayment       TransactionType = "PAYMENT"
	TypeCreditPayment TransactionType = "CREDIT_PAYMENT"

	reversalSuffix = "_REVERSAL"
)

var baseTypes = map[TransactionType]struct{}{
	TypeDeposit:       {},
	TypeWithdrawal:    {},
	TypeTransfer:      {},
	TypePayment:       {},
	TypeCreditPayment: {},
}

// IsValid accepts the base types and their reversal variants.
func (t TransactionType) IsValid() bool {
	_, ok := baseTypes[t.Base()]
	return ok
}

func (t TransactionType) IsReversal() bool {
	return strings.HasSuffix(string(t), reversalSuffix)
}

// Base strips the reversal suffix, if any.
func (t TransactionType) Base() TransactionType {
	return TransactionType(strings.TrimSuffix(string(t), reversalSuffix))
}

// Reversal returns the type of the record that reverses a record of type t.
func (t TransactionType) Reversal() TransactionType {
	return TransactionType(string(t.Base()) + reversalSuffix)
}

type FeeType string

const (
	FeeFixed      FeeType = "FIXED"
	FeePercentage FeeType = "PERCENTAGE"
)

const (
	ChannelBranch = "BRANCH"
	ChannelATM    = "ATM"
	ChannelWeb    = "WEB"
	ChannelSystem = "SYSTEM"

	DefaultCurrency = "PEN"
	SystemActor     = "SYSTEM"
)

// MoneyScale is the number of decimal places stored for amounts and fees.
const MoneyScale = 2

// FitsMoneyScale reports whether d has no digits past MoneyScale.
func FitsMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// Transaction is a ledger record of one monetary movement.
type Transaction struct {
	ID                       string              `json:"id" db:"id"`
	CustomerID               string              `json:"customerId" db:"customer_id"`
	TransactionType          TransactionType     `json:"transactionType" db:"transaction_type"`
	Amount                   decimal.Decimal     `json:"amount" db:"amount"`
	Currency                 string              `json:"currency" db:"currency"`
	SourceAccountID          string              `json:"sourceAccountId,omitempty" db:"source_account_id"`
	DestinationAccountID     string              `json:"destinationAccountId,omitempty" db:"destination_account_id"`
	CardID                   string              `json:"cardId,omitempty" db:"card_id"`
	CreditID                 string              `json:"creditId,omitempty" db:"credit_id"`
	Description              string              `json:"description,omitempty" db:"description"`
	Reference                string              `json:"reference,omitempty" db:"reference"`
	Channel                  string              `json:"channel" db:"channel"`
	Status                   Status              `json:"status" db:"status"`
	TransactionDate          time.Time           `json:"transactionDate" db:"transaction_date"`
	CompletedDate            *time.Time          `json:"completedDate,omitempty" db:"completed_date"`
	SourceBalanceBefore      decimal.NullDecimal `json:"sourceBalanceBefore" db:"source_balance_before"`
	SourceBalanceAfter       decimal.NullDecimal `json:"sourceBalanceAfter" db:"source_balance_after"`
	DestinationBalanceBefore decimal.NullDecimal `json:"destinationBalanceBefore" db:"destination_balance_before"`
	DestinationBalanceAfter  decimal.NullDecimal `json:"destinationBalanceAfter" db:"destination_balance_after"`
	TransactionFee           decimal.Decimal     `json:"transactionFee" db:"transaction_fee"`
	FeeType                  FeeType             `json:"feeType" db:"fee_type"`
	IPAddress                string              `json:"ipAddress,omitempty" db:"ip_address"`
	DeviceID                 string              `json:"deviceId,omitempty" db:"device_id"`
	Location                 string              `json:"location,omitempty" db:"location"`
	Notes                    string              `json:"notes,omitempty" db:"notes"`
	CreatedAt                time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt                time.Time           `json:"updatedAt" db:"updated_at"`
	CreatedBy                string              `json:"createdBy" db:"created_by"`
}

// TransactionParams carries the caller-supplied fields of a new record.
type TransactionParams struct {
	CustomerID           string
	Type                 TransactionType
	Amount               decimal.Decimal
	Currency             string
	SourceAccountID      string
	DestinationAccountID string
	CardID               string
	CreditID             string
	Description          string
	Reference            string
	Channel              string
	Fee                  decimal.Decimal
	FeeType              FeeType
	IPAddress            string
	DeviceID             string
	Location             string
	CreatedBy            string
}

// NewTransaction builds a PENDING record and checks the creation invariants.
func NewTransaction(p TransactionParams, now time.Time) (Transaction, error) {
	if !p.Type.IsValid() {
		return Transaction{}, apperrors.NewValidationError("Invalid transaction type: " + string(p.Type))
	}
	if !p.Amount.IsPositive() {
		return Transaction{}, apperrors.NewValidationError(apperrors.ErrAmountMustBePositive)
	}
	if !FitsMoneyScale(p.Amount) {
		return Transaction{}, apperrors.NewValidationError(apperrors.ErrAmountTooPrecise)
	}
	if p.Fee.IsNegative() {
		return Transaction{}, apperrors.NewValidationError(apperrors.ErrFeeMustNotBeNegative)
	}
	if !FitsMoneyScale(p.Fee) {
		return Transaction{}, apperrors.NewValidationError(apperrors.ErrFeeTooPrecise)
	}
	if err := checkAccounts(p.Type, p.SourceAccountID, p.DestinationAccountID); err != nil {
		return Transaction{}, err
	}

	currency := p.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	feeType := p.FeeType
	if feeType == "" {
		feeType = FeeFixed
	}
	createdBy := p.CreatedBy
	if createdBy == "" {
		createdBy = p.CustomerID
	}

	return Transaction{
		ID:                   uuid.NewString(),
		CustomerID:           p.CustomerID,
		TransactionType:      p.Type,
		Amount:               p.Amount,
		Currency:             currency,
		SourceAccountID:      p.SourceAccountID,
		DestinationAccountID: p.DestinationAccountID,
		CardID:               p.CardID,
		CreditID:             p.CreditID,
		Description:          p.Description,
		Reference:            p.Reference,
		Channel:              p.Channel,
		Status:               StatusPending,
		TransactionDate:      now,
		TransactionFee:       p.Fee,
		FeeType:              feeType,
		IPAddress:            p.IPAddress,
		DeviceID:             p.DeviceID,
		Location:             p.Location,
		CreatedAt:            now,
		UpdatedAt:            now,
		CreatedBy:            createdBy,
	}, nil
}

// checkAccounts enforces which account ids a movement of type t carries.
func checkAccounts(t TransactionType, source, destination string) error {
	base := t.Base()
	needSource := base == TypeWithdrawal || base == TypeTransfer
	needDestination := base == TypeDeposit || base == TypeTransfer
	if t.IsReversal() {
		needSource, needDestination = needDestination, needSource
	}

	if needSource && source == "" {
		return apperrors.NewValidationError(apperrors.ErrAccountIDRequired)
	}
	if needDestination && destination == "" {
		return apperrors.NewValidationError(apperrors.ErrAccountIDRequired)
	}
	if source != "" && source == destination {
		return apperrors.NewValidationError(apperrors.ErrSameSourceAndDestination)
	}
	return nil
}

// NewReversal builds the COMPLETED record that reverses original.
// The original must itself be COMPLETED.
func NewReversal(original Transaction, reason string, now time.Time) (Transaction, error) {
	if original.Status != StatusCompleted {
		return Transaction{}, apperrors.NewValidationError(apperrors.ErrOnlyCompletedCanBeReversed)
	}
	if original.TransactionType.IsReversal() {
		return Transaction{}, apperrors.NewValidationError("A reversal cannot be reversed")
	}

	completed := now
	return Transaction{
		ID:                   uuid.NewString(),
		CustomerID:           original.CustomerID,
		TransactionType:      original.TransactionType.Reversal(),
		Amount:               original.Amount,
		Currency:             original.Currency,
		SourceAccountID:      original.DestinationAccountID,
		DestinationAccountID: original.SourceAccountID,
		CardID:               original.CardID,
		CreditID:             original.CreditID,
		Description:          "Reversal of transaction: " + original.ID,
		Reference:            original.ID,
		Channel:              ChannelSystem,
		Status:               StatusCompleted,
		TransactionDate:      now,
		CompletedDate:        &completed,
		TransactionFee:       decimal.Zero,
		FeeType:              FeeFixed,
		Notes:                reason,
		CreatedAt:            now,
		UpdatedAt:            now,
		CreatedBy:            SystemActor,
	}, nil
}

// DebitAmount is what the source account is charged: amount plus fee.
func (t Transaction) DebitAmount() decimal.Decimal {
	return t.Amount.Add(t.TransactionFee)
}

// InvolvesAccount reports whether accountID is either side of the movement.
func (t Transaction) InvolvesAccount(accountID string) bool {
	return accountID != "" && (t.SourceAccountID == accountID || t.DestinationAccountID == accountID)
}
