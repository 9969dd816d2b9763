package missingmatch

import (
	"strings"
	"time"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/domain/rawdata"
)

type Status string

const (
	StatusUnreviewed         Status = "unreviewed"
	StatusConfirmedMissing   Status = "confirmed_missing"
	StatusConfirmedDuplicate Status = "confirmed_duplicate"
	StatusFalsePositive      Status = "false_positive"
)

func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(strings.ReplaceAll(raw, "-", "_"))))
	switch s {
	case StatusUnreviewed, StatusConfirmedMissing, StatusConfirmedDuplicate, StatusFalsePositive:
		return s, true
	default:
		return "", false
	}
}

// Reviewed reports whether a human has set the status.
func (s Status) Reviewed() bool {
	return s == StatusConfirmedMissing || s == StatusConfirmedDuplicate || s == StatusFalsePositive
}

// Record is a schedule entry with no stored match.
type Record struct {
	ScheduleID string
	Category   match.Category
	Date       time.Time
	Team1Name  string
	Team2Name  string
	Team1ID    string
	Team2ID    string
	Venue      string
	Status     Status
	RunID      string
	DetectedAt time.Time
}

// Review is one entry of a record's append-only review history.
type Review struct {
	ScheduleID string
	Previous   Status
	Status     Status
	Reviewer   string
	Note       string
	ReviewedAt time.Time
}

// Page is the unit committed by one reconciliation step.
type Page struct {
	RunID    string
	Category match.Category
	Window   string
	Number   int
	Records  []Record
	Raw      rawdata.Payload
}

type ListFilter struct {
	Category match.Category
	Status   Status
}
