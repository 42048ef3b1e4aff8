package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorely/internal/model"
)

type PersonStore struct {
	db *sql.DB
}

func NewPersonStore(db *sql.DB) *PersonStore {
	return &PersonStore{db: db}
}

func scanPerson(scanner interface{ Scan(...any) error }) (*model.Person, error) {
	var p model.Person
	var isAdmin int
	var lastCompleted sql.NullString

	err := scanner.Scan(
		&p.ID, &p.HouseholdID, &p.Nickname, &p.Avatar, &isAdmin, &p.HasPIN,
		&p.TotalPoints, &p.CurrentStreak, &lastCompleted, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.IsAdmin = isAdmin != 0
	if p.LastCompletedOn, err = parseNullDay(lastCompleted); err != nil {
		return nil, err
	}
	return &p, nil
}

const personCols = `id, household_id, nickname, avatar, is_admin, pin IS NOT NULL, total_points, current_streak, last_completed_on, created_at`

// Create inserts a household member. pinHash may be empty for a member
// without a PIN.
func (s *PersonStore) Create(ctx context.Context, householdID int64, nickname, avatar, pinHash string, isAdmin bool) (*model.Person, error) {
	if avatar == "" {
		avatar = "default"
	}
	var pin sql.NullString
	if pinHash != "" {
		pin = sql.NullString{String: pinHash, Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO people (household_id, nickname, avatar, pin, is_admin) VALUES (?, ?, ?, ?, ?)`,
		householdID, nickname, avatar, pin, boolArg(isAdmin),
	)
	if err != nil {
		return nil, fmt.Errorf("insert person: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *PersonStore) GetByID(ctx context.Context, id int64) (*model.Person, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+personCols+` FROM people WHERE id = ?`, id)
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

func (s *PersonStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.Person, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+personCols+` FROM people WHERE household_id = ? ORDER BY is_admin DESC, nickname ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	var people []model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}

// GetPINHash returns the bcrypt PIN hash, or "" when no PIN is set.
func (s *PersonStore) GetPINHash(ctx context.Context, id int64) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT pin FROM people WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get pin hash: %w", err)
	}
	return hash.String, nil
}

func (s *PersonStore) SetPIN(ctx context.Context, id int64, pinHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE people SET pin = ? WHERE id = ?`, pinHash, id)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}
