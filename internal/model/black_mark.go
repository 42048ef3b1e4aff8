package model

import "github.com/dukerupert/chorely/internal/recurrence"

// BlackMark records that a person let an instance go overdue.
type BlackMark struct {
	ID             int64          `json:"id"`
	PersonID       int64          `json:"person_id"`
	TaskInstanceID int64          `json:"task_instance_id"`
	MissedDate     recurrence.Day `json:"missed_date"`
}
