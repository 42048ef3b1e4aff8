package chore

import (
	"time"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
)

// Classification describes where an instance stands relative to today.
// PeriodsMissed counts the task's occurrences that have come due since the
// instance's due date.
type Classification struct {
	Status        Status          `json:"status"`
	IsOverdue     bool            `json:"is_overdue"`
	DaysOverdue   int             `json:"days_overdue"`
	PeriodsMissed int             `json:"periods_missed"`
	PreviousDue   *recurrence.Day `json:"previous_due"`
}

// Classifier decides overdue status in the household's time zone.
type Classifier struct {
	loc *time.Location
}

func NewClassifier(loc *time.Location) *Classifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Classifier{loc: loc}
}

// Today returns the calendar date of now in the household's zone.
func (c *Classifier) Today(now time.Time) recurrence.Day {
	return recurrence.DayOf(now.In(c.loc))
}

// Classify reports whether inst is overdue as of now. Completed instances are
// never overdue; an incomplete one is overdue once its due date has passed.
func (c *Classifier) Classify(inst model.TaskInstance, task model.Task, now time.Time) Classification {
	sched := task.Schedule()
	cl := Classification{
		Status:      StatusPending,
		PreviousDue: sched.Previous(inst.DueDate),
	}
	if inst.IsCompleted {
		cl.Status = StatusCompleted
		return cl
	}
	if !task.StartDate.IsZero() && inst.DueDate.Before(task.StartDate) {
		return cl
	}

	today := c.Today(now)
	if !inst.DueDate.Before(today) {
		return cl
	}
	cl.Status = StatusOverdue
	cl.IsOverdue = true
	cl.DaysOverdue = recurrence.DaysBetween(inst.DueDate, today)
	cl.PeriodsMissed = sched.PeriodsBetween(inst.DueDate, today)
	return cl
}

// EffectivePriority bumps an overdue instance one level, capped at high.
func EffectivePriority(inst model.TaskInstance, cl Classification) int {
	p := inst.CurrentPriority
	if p < model.PriorityLow {
		p = model.PriorityLow
	}
	if cl.IsOverdue {
		p++
	}
	return min(p, model.PriorityHigh)
}
