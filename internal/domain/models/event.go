package models

import (
	"fmt"
	apperrors "github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/shopspring/decimal"
	"time"
)

// Event is a state change applied to a ledger record by Apply.
type Event interface {
	Target() Status
	OccurredAt() time.Time
}

// Completed marks every leg as done. Balances are the values reported by the balance service.
type Completed struct {
	At                      time.Time
	SourceBalanceAfter      decimal.NullDecimal
	DestinationBalanceAfter decimal.NullDecimal
}

func (e Completed) Target() Status        { return StatusCompleted }
func (e Completed) OccurredAt() time.Time { return e.At }

type Failed struct {
	At     time.Time
	Reason string
}

func (e Failed) Target() Status        { return StatusFailed }
func (e Failed) OccurredAt() time.Time { return e.At }

type Reversed struct {
	At     time.Time
	Reason string
}

func (e Reversed) Target() Status        { return StatusReversed }
func (e Reversed) OccurredAt() time.Time { return e.At }

// Noted appends to the notes without changing status.
type Noted struct {
	At   time.Time
	Note string
}

func (e Noted) Target() Status        { return "" }
func (e Noted) OccurredAt() time.Time { return e.At }

// IllegalTransitionError is the ValidationError returned for a move outside the transition table.
func IllegalTransitionError(from, to Status) *apperrors.ValidationError {
	return apperrors.NewValidationError(fmt.Sprintf("illegal status transition: %s -> %s", from, to))
}

// Apply returns a copy of t with e applied. t itself is never modified.
func Apply(t Transaction, e Event) (Transaction, error) {
	if n, ok := e.(Noted); ok {
		t.Notes = appendNote(t.Notes, n.Note)
		t.UpdatedAt = n.At
		return t, nil
	}

	if !CanTransition(t.Status, e.Target()) {
		return t, IllegalTransitionError(t.Status, e.Target())
	}

	switch ev := e.(type) {
	case Completed:
		at := ev.At
		t.CompletedDate = &at
		if ev.SourceBalanceAfter.Valid {
			t.SourceBalanceAfter = ev.SourceBalanceAfter
		}
		if ev.DestinationBalanceAfter.Valid {
			t.DestinationBalanceAfter = ev.DestinationBalanceAfter
		}
	case Failed:
		t.Notes = appendNote(t.Notes, "Error: "+ev.Reason)
	case Reversed:
		t.Notes = appendNote(t.Notes, "Reversed: "+ev.Reason)
	default:
		return t, apperrors.NewValidationError(fmt.Sprintf("unknown event %T", e))
	}

	t.Status = e.Target()
	t.UpdatedAt = e.OccurredAt()
	return t, nil
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "; " + note
}
