package model

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/dukerupert/chorely/internal/recurrence"
)

const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// Task is a chore definition. Instances are materialized from its schedule.
type Task struct {
	ID                 int64           `json:"id"`
	HouseholdID        int64           `json:"household_id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	EstimatedMinutes   int             `json:"estimated_minutes"`
	Points             int             `json:"points"`
	AssignedTo         int64           `json:"assigned_to"`
	SecondaryAssignees []int64         `json:"secondary_assignees"`
	Active             bool            `json:"active"`
	Recurrence         recurrence.Rule `json:"-"`
	StartDate          recurrence.Day  `json:"start_date"`
	EndDate            *recurrence.Day `json:"end_date"`
	DueDate            *recurrence.Day `json:"due_date"`
	Priority           int             `json:"priority"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (t Task) Schedule() recurrence.Schedule {
	return recurrence.Schedule{
		Rule:  t.Recurrence,
		Start: t.StartDate,
		End:   t.EndDate,
		On:    t.DueDate,
	}
}

func (t Task) IsRecurring() bool {
	if t.Recurrence == nil {
		return false
	}
	return t.Recurrence.Kind() != recurrence.KindNone
}

func (t Task) HasSecondary(personID int64) bool {
	return slices.Contains(t.SecondaryAssignees, personID)
}

func (t Task) MarshalJSON() ([]byte, error) {
	type alias Task
	kind, interval := recurrence.KindNone, 0
	if t.Recurrence != nil {
		kind, interval = t.Recurrence.Kind(), t.Recurrence.Interval()
	}
	secondary := t.SecondaryAssignees
	if secondary == nil {
		secondary = []int64{}
	}
	a := alias(t)
	a.SecondaryAssignees = secondary
	return json.Marshal(struct {
		alias
		RecurrenceKind     recurrence.Kind `json:"recurrence_kind"`
		RecurrenceInterval int             `json:"recurrence_interval"`
		RecurrenceText     string          `json:"recurrence_text"`
	}{
		alias:              a,
		RecurrenceKind:     kind,
		RecurrenceInterval: interval,
		RecurrenceText:     t.Schedule().Describe(),
	})
}
