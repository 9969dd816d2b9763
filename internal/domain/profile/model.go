package profile

import (
	"strings"
	"time"
)

type Kind string

const (
	KindPlayer   Kind = "player"
	KindOfficial Kind = "official"
	KindTeam     Kind = "team"
	KindVenue    Kind = "venue"
)

func ParseKind(raw string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindPlayer, KindOfficial, KindTeam, KindVenue:
		return k, true
	default:
		return "", false
	}
}

// Namespace groups kinds that share identifiers. Players and officials are
// both people and resolve against the same registry.
func (k Kind) Namespace() string {
	switch k {
	case KindPlayer, KindOfficial:
		return "person"
	default:
		return string(k)
	}
}

// Entity is a curated profile. Scope narrows name matches: teams are scoped
// by gender, venues by city, people are unscoped.
type Entity struct {
	Kind        Kind
	ID          string
	NaturalKey  string
	RegistryKey string
	Name        string
	AltNames    []string
	Scope       string
	Attributes  map[string]string
}

// Names returns the canonical names an exact match may hit.
func (e Entity) Names() []string {
	out := make([]string, 0, 1+len(e.AltNames))
	if e.Name != "" {
		out = append(out, e.Name)
	}
	for _, n := range e.AltNames {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Alias maps a historical rendering of a name to a stable id. An empty Scope
// applies to every scope.
type Alias struct {
	Kind     Kind
	Name     string
	Scope    string
	EntityID string
	Note     string
}

const (
	CandidatePending  = "pending"
	CandidateAccepted = "accepted"
	CandidateRejected = "rejected"
)

// Candidate is an unresolved name waiting for curation.
type Candidate struct {
	Kind      Kind
	RawName   string
	Scope     string
	HintKey   string
	MatchID   string
	Status    string
	SeenCount int
	SeenAt    time.Time
}

// NormalizeName lowercases, drops dots and collapses whitespace so
// "M.S. Dhoni" and "MS  Dhoni" compare equal.
func NormalizeName(raw string) string {
	raw = strings.ReplaceAll(raw, ".", "")
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}
