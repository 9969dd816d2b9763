package profile

import (
	"time"
)

type Method string

const (
	MethodExact      Method = "exact"
	MethodAlias      Method = "alias"
	MethodContext    Method = "context"
	MethodUnresolved Method = "unresolved"
)

// Hints carry the document context a name appeared in.
type Hints struct {
	Key    string
	Scope  string
	TeamID string
	Date   time.Time
}

type Resolution struct {
	ID         string
	Method     Method
	Candidates []string
}

func (r Resolution) Resolved() bool {
	return r.Method != MethodUnresolved && r.ID != ""
}

// Resolve maps a raw name to a stable id. The order is fixed: registry key or
// unique canonical name, then alias (scoped before unscoped), then the run memo.
// The same inputs always produce the same result.
func Resolve(s *Snapshot, memo *RunMemo, kind Kind, rawName string, hints Hints) Resolution {
	name := NormalizeName(rawName)
	scope := NormalizeName(hints.Scope)
	if s == nil || name == "" {
		return Resolution{Method: MethodUnresolved}
	}

	if hints.Key != "" {
		if id, ok := s.lookupKey(kind, hints.Key); ok {
			return Resolution{ID: id, Method: MethodExact}
		}
	}

	candidates := s.lookupName(kind, name, scope)
	if len(candidates) == 1 {
		return Resolution{ID: candidates[0], Method: MethodExact}
	}

	if scope != "" {
		if id, ok := s.lookupAlias(kind, name, scope); ok {
			return Resolution{ID: id, Method: MethodAlias}
		}
	}
	if id, ok := s.lookupAlias(kind, name, ""); ok {
		return Resolution{ID: id, Method: MethodAlias}
	}

	if id, ok := memo.Lookup(kind, name, hints.TeamID, hints.Date, candidates); ok {
		return Resolution{ID: id, Method: MethodContext}
	}

	return Resolution{Method: MethodUnresolved, Candidates: candidates}
}
