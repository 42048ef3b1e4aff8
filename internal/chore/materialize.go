package chore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/chorely/internal/metrics"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
)

// MaxRangeDays caps how many dates a single materialization or dashboard
// request may span.
const MaxRangeDays = 62

// Materializer turns task schedules into concrete instances. It is safe to call
// repeatedly and concurrently for the same dates; storage uniqueness on
// (task, assignee, due date) makes every caller converge on one row.
type Materializer struct {
	instances InstanceStore
	onCreate  func(householdID int64, inst model.TaskInstance)
	logger    *slog.Logger
}

func NewMaterializer(instances InstanceStore, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{instances: instances, logger: logger.With("component", "materializer")}
}

// OnCreate registers fn to run after each instance this materializer inserts.
// Instances found already in storage do not trigger it.
func (m *Materializer) OnCreate(fn func(householdID int64, inst model.TaskInstance)) {
	m.onCreate = fn
}

// EnsureInstances returns the instances due on date for every active task,
// creating any that do not exist yet. Each task yields one primary instance
// plus one per secondary assignee.
func (m *Materializer) EnsureInstances(ctx context.Context, tasks []model.Task, date recurrence.Day) ([]model.TaskInstance, error) {
	var out []model.TaskInstance
	for _, t := range tasks {
		if !t.Active || !t.Schedule().IsDue(date) {
			continue
		}
		for _, a := range assignees(t) {
			inst, err := m.ensure(ctx, t, a.personID, a.secondary, date)
			if err != nil {
				return out, err
			}
			out = append(out, *inst)
		}
	}
	return out, nil
}

// EnsureRange materializes every date in [from, to]. An instance appears once
// in the result even if it was reached through several dates.
func (m *Materializer) EnsureRange(ctx context.Context, tasks []model.Task, from, to recurrence.Day) ([]model.TaskInstance, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}

	seen := make(map[model.InstanceKey]bool)
	var out []model.TaskInstance
	for d := from; !d.After(to); d = d.AddDays(1) {
		instances, err := m.EnsureInstances(ctx, tasks, d)
		if err != nil {
			return out, err
		}
		for _, inst := range instances {
			if seen[inst.Key()] {
				continue
			}
			seen[inst.Key()] = true
			out = append(out, inst)
		}
	}
	return out, nil
}

func (m *Materializer) ensure(ctx context.Context, t model.Task, personID int64, secondary bool, date recurrence.Day) (*model.TaskInstance, error) {
	candidate := model.TaskInstance{
		TaskID:          t.ID,
		AssignedTo:      personID,
		IsSecondary:     secondary,
		DueDate:         date,
		CurrentPriority: t.Priority,
	}

	existing, err := m.instances.GetByKey(ctx, candidate.Key())
	if err != nil {
		return nil, storageErr("look up instance", err)
	}
	if existing != nil {
		return existing, nil
	}

	inst, created, err := m.instances.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return nil, storageErr("create instance", err)
	}
	if created {
		metrics.InstancesMaterialized.Inc()
		m.logger.Debug("instance materialized",
			"task_id", t.ID, "instance_id", inst.ID, "assigned_to", personID,
			"secondary", secondary, "due_date", date.String())
		if m.onCreate != nil {
			m.onCreate(t.HouseholdID, *inst)
		}
	}
	return inst, nil
}

type assignee struct {
	personID  int64
	secondary bool
}

// assignees lists the primary assignee first, then each distinct secondary
// assignee other than the primary.
func assignees(t model.Task) []assignee {
	out := []assignee{{personID: t.AssignedTo}}
	seen := map[int64]bool{t.AssignedTo: true}
	for _, id := range t.SecondaryAssignees {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, assignee{personID: id, secondary: true})
	}
	return out
}

func checkRange(from, to recurrence.Day) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: both ends are required", ErrInvalidRange)
	}
	if to.Before(from) {
		return fmt.Errorf("%w: %s is before %s", ErrInvalidRange, to, from)
	}
	if n := recurrence.DaysBetween(from, to) + 1; n > MaxRangeDays {
		return fmt.Errorf("%w: %d days exceeds the limit of %d", ErrInvalidRange, n, MaxRangeDays)
	}
	return nil
}
