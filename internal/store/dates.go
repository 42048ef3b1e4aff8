package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorely/internal/recurrence"
)

// Dates are stored as YYYY-MM-DD text so range queries compare lexically.

func dayArg(d recurrence.Day) string {
	return d.String()
}

func nullDayArg(d *recurrence.Day) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDay(s sql.NullString) (*recurrence.Day, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := recurrence.ParseDay(s.String)
	if err != nil {
		return nil, fmt.Errorf("parse stored date: %w", err)
	}
	return &d, nil
}

func boolArg(b bool) int {
	if b {
		return 1
	}
	return 0
}
