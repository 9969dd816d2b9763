package missingmatch

import (
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/cricbase/internal/domain/match"
)

const dateLayout = "2006-01-02"

// Key identifies a fixture independent of source: category, local date and
// the unordered pair of teams.
func Key(category match.Category, date time.Time, teamA, teamB string) string {
	teams := []string{strings.ToLower(strings.TrimSpace(teamA)), strings.ToLower(strings.TrimSpace(teamB))}
	sort.Strings(teams)
	return category.String() + "|" + date.Format(dateLayout) + "|" + teams[0] + "|" + teams[1]
}

func KeyOfMatch(k match.Key) string {
	return Key(k.Category, k.Date, k.Team1ID, k.Team2ID)
}

// Entry is a schedule entry with its teams resolved where possible. TeamXKey
// is the resolved id, or the normalized name when the team is unknown.
type Entry struct {
	ScheduleID string
	Category   match.Category
	Date       time.Time
	Team1Name  string
	Team2Name  string
	Team1ID    string
	Team2ID    string
	Team1Key   string
	Team2Key   string
	Venue      string
}

func (e Entry) Key() string {
	return Key(e.Category, e.Date, e.Team1Key, e.Team2Key)
}

type DiffResult struct {
	New        []Record
	Unchanged  []string
	Suppressed []string
	Matched    []string
}

// Diff splits schedule entries into matched, already-known and new gaps.
// Existing records are never modified: unreviewed ones count as unchanged,
// reviewed ones are suppressed.
func Diff(entries []Entry, stored map[string]struct{}, existing map[string]Record, runID string, now time.Time) DiffResult {
	var out DiffResult
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.ScheduleID]; dup {
			continue
		}
		seen[e.ScheduleID] = struct{}{}

		if _, ok := stored[e.Key()]; ok {
			out.Matched = append(out.Matched, e.ScheduleID)
			continue
		}
		if rec, ok := existing[e.ScheduleID]; ok {
			if rec.Status.Reviewed() {
				out.Suppressed = append(out.Suppressed, e.ScheduleID)
			} else {
				out.Unchanged = append(out.Unchanged, e.ScheduleID)
			}
			continue
		}
		out.New = append(out.New, Record{
			ScheduleID: e.ScheduleID,
			Category:   e.Category,
			Date:       e.Date,
			Team1Name:  e.Team1Name,
			Team2Name:  e.Team2Name,
			Team1ID:    e.Team1ID,
			Team2ID:    e.Team2ID,
			Venue:      e.Venue,
			Status:     StatusUnreviewed,
			RunID:      runID,
			DetectedAt: now,
		})
	}
	return out
}
