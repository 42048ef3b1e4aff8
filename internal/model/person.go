package model

import (
	"time"

	"github.com/dukerupert/chorely/internal/recurrence"
)

// Person is a household member who picks a profile with a PIN and completes
// chores. The PIN hash never leaves the store.
type Person struct {
	ID              int64           `json:"id"`
	HouseholdID     int64           `json:"household_id"`
	Nickname        string          `json:"nickname"`
	Avatar          string          `json:"avatar"`
	IsAdmin         bool            `json:"is_admin"`
	HasPIN          bool            `json:"has_pin"`
	TotalPoints     int             `json:"total_points"`
	CurrentStreak   int             `json:"current_streak"`
	LastCompletedOn *recurrence.Day `json:"last_completed_on"`
	CreatedAt       time.Time       `json:"created_at"`
}
