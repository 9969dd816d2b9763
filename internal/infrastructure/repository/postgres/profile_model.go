package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// profileEntityRow is the common shape of people, teams and venues rows as
// selected by ListEntities.
type profileEntityRow struct {
	Kind        string         `db:"kind"`
	ID          string         `db:"id"`
	NaturalKey  string         `db:"natural_key"`
	RegistryKey sql.NullString `db:"registry_key"`
	Name        string         `db:"name"`
	AltNames    pq.StringArray `db:"alt_names"`
	Scope       string         `db:"scope"`
	Attributes  []byte         `db:"attributes"`
}

type personInsertModel struct {
	ID          string         `db:"id"`
	Kind        string         `db:"kind"`
	NaturalKey  string         `db:"natural_key"`
	RegistryKey *string        `db:"registry_key"`
	Name        string         `db:"name"`
	AltNames    pq.StringArray `db:"alt_names"`
	Attributes  string         `db:"attributes"`
}

type teamInsertModel struct {
	ID         string         `db:"id"`
	NaturalKey string         `db:"natural_key"`
	Name       string         `db:"name"`
	AltNames   pq.StringArray `db:"alt_names"`
	Gender     string         `db:"gender"`
	Attributes string         `db:"attributes"`
}

type venueInsertModel struct {
	ID         string         `db:"id"`
	NaturalKey string         `db:"natural_key"`
	Name       string         `db:"name"`
	AltNames   pq.StringArray `db:"alt_names"`
	City       string         `db:"city"`
	Attributes string         `db:"attributes"`
}

type aliasTableModel struct {
	Namespace string `db:"namespace"`
	NameNorm  string `db:"name_norm"`
	ScopeNorm string `db:"scope_norm"`
	Kind      string `db:"kind"`
	RawName   string `db:"raw_name"`
	Scope     string `db:"scope"`
	EntityID  string `db:"entity_id"`
	Note      string `db:"note"`
}

type candidateInsertModel struct {
	Namespace  string    `db:"namespace"`
	NameNorm   string    `db:"name_norm"`
	ScopeNorm  string    `db:"scope_norm"`
	Kind       string    `db:"kind"`
	RawName    string    `db:"raw_name"`
	Scope      string    `db:"scope"`
	HintKey    string    `db:"hint_key"`
	MatchID    string    `db:"match_id"`
	Status     string    `db:"status"`
	SeenCount  int       `db:"seen_count"`
	FirstSeen  time.Time `db:"first_seen_at"`
	LastSeenAt time.Time `db:"last_seen_at"`
}

type candidateTableModel struct {
	Kind       string    `db:"kind"`
	RawName    string    `db:"raw_name"`
	Scope      string    `db:"scope"`
	HintKey    string    `db:"hint_key"`
	MatchID    string    `db:"match_id"`
	Status     string    `db:"status"`
	SeenCount  int       `db:"seen_count"`
	LastSeenAt time.Time `db:"last_seen_at"`
}
