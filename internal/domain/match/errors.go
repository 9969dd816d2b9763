package match

import (
	"errors"
	"fmt"
)

// ErrAlreadyExists is returned when a graph for the same match id is already stored.
var ErrAlreadyExists = errors.New("match already exists")

// ConstraintError reports a store constraint violation and the row that caused it.
type ConstraintError struct {
	Table      string
	Constraint string
	Key        string
	Code       string
	Detail     string
	Err        error
}

func (e *ConstraintError) Error() string {
	msg := fmt.Sprintf("constraint %s violated on %s", e.Constraint, e.Table)
	if e.Key != "" {
		msg += " (" + e.Key + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// InvariantError is a graph that does not add up: totals, wickets or keys.
type InvariantError struct {
	Field  string
	Reason string
}

func (e *InvariantError) Error() string {
	return e.Field + ": " + e.Reason
}

func invariantf(field, format string, args ...any) *InvariantError {
	return &InvariantError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
