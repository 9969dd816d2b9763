package schedule

import (
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
)

type scheduleEnvelope struct {
	Data scheduleData `json:"data"`
}

type scheduleData struct {
	Matches    []scheduleMatch `json:"matches"`
	TotalPages int             `json:"total_pages"`
}

type scheduleMatch struct {
	MatchID        flexString `json:"match_id"`
	MatchDateLocal string     `json:"match_date_local"`
	CompTypeID     flexString `json:"comp_type_id"`
	CompType       string     `json:"comp_type"`
	TeamAID        flexString `json:"teama_id"`
	TeamA          string     `json:"teama"`
	TeamBID        flexString `json:"teamb_id"`
	TeamB          string     `json:"teamb"`
	Venue          string     `json:"venue"`
	City           string     `json:"city"`
	Country        string     `json:"country"`
	MatchStatus    string     `json:"match_status"`
	MatchResult    string     `json:"match_result"`
}

// flexString accepts ids the feed sends either quoted or as bare numbers.
type flexString string

func (s *flexString) UnmarshalJSON(raw []byte) error {
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var v string
		if err := sonic.Unmarshal(raw, &v); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(v))
		return nil
	}
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return err
	}
	*s = flexString(text)
	return nil
}

var localDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"01/02/2006",
}

// parseLocalDate keeps the calendar date of the venue-local kick-off time.
func parseLocalDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	for _, layout := range localDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
