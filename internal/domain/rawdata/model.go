package rawdata

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const (
	SourceCricsheet = "cricsheet"
	SourceSchedule  = "schedule"

	EntityMatchDocument = "match_document"
	EntitySchedulePage  = "schedule_page"
)

// Payload is an unparsed source document kept for audit and replays.
type Payload struct {
	Source      string
	EntityType  string
	EntityKey   string
	PayloadJSON string
	PayloadHash string
	FetchedAt   time.Time
}

func NewPayload(source, entityType, entityKey string, raw []byte, fetchedAt time.Time) Payload {
	sum := sha256.Sum256(raw)
	return Payload{
		Source:      source,
		EntityType:  entityType,
		EntityKey:   entityKey,
		PayloadJSON: string(raw),
		PayloadHash: hex.EncodeToString(sum[:]),
		FetchedAt:   fetchedAt.UTC(),
	}
}

func (p Payload) IsZero() bool {
	return p.EntityKey == "" && p.PayloadJSON == ""
}
