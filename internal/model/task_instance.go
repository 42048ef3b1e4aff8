package model

import (
	"time"

	"github.com/dukerupert/chorely/internal/recurrence"
)

// TaskInstance is one dated, completable occurrence of a Task for one
// assignee. Completion is one-way.
type TaskInstance struct {
	ID              int64          `json:"id"`
	TaskID          int64          `json:"task_id"`
	AssignedTo      int64          `json:"assigned_to"`
	IsSecondary     bool           `json:"is_secondary"`
	DueDate         recurrence.Day `json:"due_date"`
	CompletedAt     *time.Time     `json:"completed_at"`
	IsCompleted     bool           `json:"is_completed"`
	PointsEarned    int            `json:"points_earned"`
	CurrentPriority int            `json:"current_priority"`
}

// InstanceKey identifies one logical occurrence; storage keeps it unique.
type InstanceKey struct {
	TaskID     int64
	AssignedTo int64
	DueDate    string
}

func (i TaskInstance) Key() InstanceKey {
	return InstanceKey{TaskID: i.TaskID, AssignedTo: i.AssignedTo, DueDate: i.DueDate.String()}
}

// Completion is the set of mutations applied atomically when an instance is
// completed: the instance transition plus the completer's point and streak
// credit.
type Completion struct {
	InstanceID   int64
	PersonID     int64
	CompletedAt  time.Time
	CompletedOn  recurrence.Day
	PointsEarned int
	Streak       int
}
