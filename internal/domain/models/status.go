package models

// Status is the lifecycle state of a ledger record.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusReversed  Status = "REVERSED"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusCompleted, StatusFailed},
	StatusCompleted: {StatusReversed},
	StatusFailed:    {},
	StatusReversed:  {},
}

func (s Status) String() string {
	return string(s)
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transition is possible from s.
func (s Status) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// CanTransition is the table lookup used by Apply.
func CanTransition(from, to Status) bool {
	return from.CanTransitionTo(to)
}
