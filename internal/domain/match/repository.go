package match

import (
	"context"
	"time"
)

// Key is the reconciliation identity of a stored match.
type Key struct {
	MatchID  string
	Category Category
	Date     time.Time
	Team1ID  string
	Team2ID  string
}

type KeyFilter struct {
	Category Category
	From     time.Time
	To       time.Time
}

type IntegrityIssue struct {
	MatchID string
	Innings int
	Check   string
	Detail  string
}

// Repository persists complete match graphs. InsertGraph is atomic: either
// every row of the graph is stored or none is.
type Repository interface {
	InsertGraph(ctx context.Context, graph Graph) error
	Exists(ctx context.Context, matchID string) (bool, error)
	ListKeys(ctx context.Context, filter KeyFilter) ([]Key, error)
	IntegrityIssues(ctx context.Context) ([]IntegrityIssue, error)
}

type Disposition string

const (
	DispositionQuarantined Disposition = "quarantined"
	DispositionRejected    Disposition = "rejected"
)

// IngestFailure is the latest reason a document was held back. It is cleared
// when the document is ingested.
type IngestFailure struct {
	DocumentKey string
	SourcePath  string
	Disposition Disposition
	Field       string
	Reason      string
	Unresolved  []string
	SeenAt      time.Time
}

type FailureRepository interface {
	RecordFailure(ctx context.Context, failure IngestFailure) error
	ListFailures(ctx context.Context, disposition Disposition) ([]IngestFailure, error)
}
