package postgres

import (
	"database/sql"
	"time"
)

type missingMatchTableModel struct {
	ScheduleID string         `db:"schedule_id"`
	Gender     string         `db:"gender"`
	Format     string         `db:"format"`
	MatchDate  time.Time      `db:"match_date"`
	Team1Name  string         `db:"team1_name"`
	Team2Name  string         `db:"team2_name"`
	Team1ID    sql.NullString `db:"team1_id"`
	Team2ID    sql.NullString `db:"team2_id"`
	Venue      string         `db:"venue"`
	Status     string         `db:"status"`
	RunID      string         `db:"run_id"`
	DetectedAt time.Time      `db:"detected_at"`
}

type missingMatchInsertModel struct {
	ScheduleID string    `db:"schedule_id"`
	Gender     string    `db:"gender"`
	Format     string    `db:"format"`
	MatchDate  time.Time `db:"match_date"`
	Team1Name  string    `db:"team1_name"`
	Team2Name  string    `db:"team2_name"`
	Team1ID    *string   `db:"team1_id"`
	Team2ID    *string   `db:"team2_id"`
	Venue      string    `db:"venue"`
	Status     string    `db:"status"`
	RunID      string    `db:"run_id"`
	DetectedAt time.Time `db:"detected_at"`
}

type missingMatchReviewModel struct {
	ScheduleID     string    `db:"schedule_id"`
	PreviousStatus string    `db:"previous_status"`
	Status         string    `db:"status"`
	Reviewer       string    `db:"reviewer"`
	Note           string    `db:"note"`
	ReviewedAt     time.Time `db:"reviewed_at"`
}

var missingMatchColumns = []string{
	"schedule_id", "gender", "format", "match_date", "team1_name", "team2_name",
	"team1_id::text AS team1_id", "team2_id::text AS team2_id", "venue", "status", "run_id", "detected_at",
}
