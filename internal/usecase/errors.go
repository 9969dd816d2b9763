package usecase

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/cricbase/internal/domain/profile"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrOutOfScope            = errors.New("out of scope")
	ErrAlreadyIngested       = errors.New("already ingested")
	ErrQuarantined           = errors.New("quarantined")
)

// ValidationError rejects a document. Field names the offending part of the
// document in the source's own terms.
type ValidationError struct {
	DocumentKey string
	Field       string
	Reason      string
	Err         error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("document %s: invalid %s: %s", e.DocumentKey, e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidInput}
	}
	return []error{ErrInvalidInput, e.Err}
}

type UnresolvedName struct {
	Kind       profile.Kind
	Name       string
	Scope      string
	Key        string
	Candidates []string
}

func (n UnresolvedName) String() string {
	return string(n.Kind) + ":" + n.Name
}

// UnresolvedError quarantines a document until every listed name is curated.
type UnresolvedError struct {
	DocumentKey string
	Names       []UnresolvedName
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("document %s: %d unresolved names: %s", e.DocumentKey, len(e.Names), strings.Join(e.NameStrings(), ", "))
}

func (e *UnresolvedError) Unwrap() error {
	return ErrQuarantined
}

// NameStrings returns "kind:name" pairs in sorted order.
func (e *UnresolvedError) NameStrings() []string {
	out := make([]string, 0, len(e.Names))
	for _, n := range e.Names {
		out = append(out, n.String())
	}
	sort.Strings(out)
	return out
}
