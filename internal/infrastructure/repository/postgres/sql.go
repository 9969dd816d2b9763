package postgres

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/riskibarqy/cricbase/internal/domain/match"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// asConstraintError maps an integrity violation (SQLSTATE class 23) to a
// match.ConstraintError. Other errors are returned unchanged.
func asConstraintError(err error, key string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	if pqErr.Code.Class() != "23" {
		return err
	}
	return &match.ConstraintError{
		Table:      pqErr.Table,
		Constraint: pqErr.Constraint,
		Key:        key,
		Code:       string(pqErr.Code),
		Detail:     pqErr.Detail,
		Err:        err,
	}
}

func nullableString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func nullStringValue(value sql.NullString) string {
	if !value.Valid {
		return ""
	}
	return value.String
}

func dateOnly(value time.Time) time.Time {
	value = value.UTC()
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
