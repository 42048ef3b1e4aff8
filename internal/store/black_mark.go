package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
)

type BlackMarkStore struct {
	db *sql.DB
}

func NewBlackMarkStore(db *sql.DB) *BlackMarkStore {
	return &BlackMarkStore{db: db}
}

func scanBlackMark(scanner interface{ Scan(...any) error }) (*model.BlackMark, error) {
	var m model.BlackMark
	var missed string
	if err := scanner.Scan(&m.ID, &m.PersonID, &m.TaskInstanceID, &missed); err != nil {
		return nil, err
	}
	d, err := recurrence.ParseDay(missed)
	if err != nil {
		return nil, fmt.Errorf("black mark %d missed date: %w", m.ID, err)
	}
	m.MissedDate = d
	return &m, nil
}

const blackMarkCols = `id, person_id, task_instance_id, missed_date`

// RecordIfAbsent stores a mark for the missed instance. An instance carries at
// most one mark; recorded is false when it already had one.
func (s *BlackMarkStore) RecordIfAbsent(ctx context.Context, personID, instanceID int64, missed recurrence.Day) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO black_marks (person_id, task_instance_id, missed_date) VALUES (?, ?, ?)
		 ON CONFLICT (task_instance_id) DO NOTHING`,
		personID, instanceID, dayArg(missed),
	)
	if err != nil {
		return false, fmt.Errorf("insert black mark: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *BlackMarkStore) ListByPerson(ctx context.Context, personID int64) ([]model.BlackMark, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+blackMarkCols+` FROM black_marks WHERE person_id = ? ORDER BY missed_date DESC, id DESC`,
		personID,
	)
	if err != nil {
		return nil, fmt.Errorf("list black marks: %w", err)
	}
	defer rows.Close()

	var marks []model.BlackMark
	for rows.Next() {
		m, err := scanBlackMark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan black mark: %w", err)
		}
		marks = append(marks, *m)
	}
	return marks, rows.Err()
}
