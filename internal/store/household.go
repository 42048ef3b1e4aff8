package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/chorely/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name, &h.Email, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `id, name, email, created_at`

// Create inserts a household. passwordHash must already be a bcrypt hash.
func (s *HouseholdStore) Create(ctx context.Context, name, email, passwordHash string) (*model.Household, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO households (name, email, password_hash) VALUES (?, ?, ?)`,
		name, normalizeEmail(email), passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *HouseholdStore) GetByID(ctx context.Context, id int64) (*model.Household, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

// GetCredentials returns the household registered under email together with
// its password hash, or nil if there is none.
func (s *HouseholdStore) GetCredentials(ctx context.Context, email string) (*model.Household, string, error) {
	var h model.Household
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT `+householdCols+`, password_hash FROM households WHERE email = ?`,
		normalizeEmail(email),
	).Scan(&h.ID, &h.Name, &h.Email, &h.CreatedAt, &hash)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("get household credentials: %w", err)
	}
	return &h, hash, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
