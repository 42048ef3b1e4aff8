package chore

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dukerupert/chorely/internal/metrics"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
)

// OverdueLookbackDays is how far before the requested range the dashboard
// looks for incomplete instances to carry over.
const OverdueLookbackDays = 7

type Query struct {
	HouseholdID int64
	From        recurrence.Day
	To          recurrence.Day
	// PersonID restricts the result to one assignee when set.
	PersonID *int64
}

type DashboardInstance struct {
	model.TaskInstance
	Classification
	TaskTitle         string `json:"task_title"`
	TaskDescription   string `json:"task_description"`
	EstimatedMinutes  int    `json:"estimated_minutes"`
	Points            int    `json:"points"`
	RecurrenceText    string `json:"recurrence_text"`
	AssigneeNickname  string `json:"assignee_nickname"`
	EffectivePriority int    `json:"effective_priority"`
}

type Dashboard struct {
	People    []model.Person      `json:"people"`
	Instances []DashboardInstance `json:"task_instances"`
	From      recurrence.Day      `json:"from"`
	To        recurrence.Day      `json:"to"`
	Today     recurrence.Day      `json:"today"`
}

type Assembler struct {
	tasks        TaskStore
	instances    InstanceStore
	people       PersonStore
	marks        MarkStore
	materializer *Materializer
	classifier   *Classifier
	logger       *slog.Logger
}

func NewAssembler(tasks TaskStore, instances InstanceStore, people PersonStore, marks MarkStore, materializer *Materializer, classifier *Classifier, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		tasks:        tasks,
		instances:    instances,
		people:       people,
		marks:        marks,
		materializer: materializer,
		classifier:   classifier,
		logger:       logger.With("component", "dashboard"),
	}
}

// Assemble builds the household's view of [q.From, q.To]. Instances are
// materialized for the range first; when the range covers today, incomplete
// instances from the preceding OverdueLookbackDays days are carried in as
// well. Every overdue instance gets a missed-chore mark.
func (a *Assembler) Assemble(ctx context.Context, q Query, now time.Time) (*Dashboard, error) {
	if err := checkRange(q.From, q.To); err != nil {
		return nil, err
	}

	people, err := a.people.ListByHousehold(ctx, q.HouseholdID)
	if err != nil {
		return nil, storageErr("list people", err)
	}
	nicknames := make(map[int64]string, len(people))
	for _, p := range people {
		nicknames[p.ID] = p.Nickname
	}
	if q.PersonID != nil {
		if _, ok := nicknames[*q.PersonID]; !ok {
			return nil, fmt.Errorf("person %d: %w", *q.PersonID, ErrNotFound)
		}
	}

	tasks, err := a.tasks.ListByHousehold(ctx, q.HouseholdID)
	if err != nil {
		return nil, storageErr("list tasks", err)
	}
	byID := make(map[int64]model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	materialized, err := a.materializer.EnsureRange(ctx, tasks, q.From, q.To)
	if err != nil {
		return nil, err
	}
	persisted, err := a.instances.ListByHousehold(ctx, q.HouseholdID, q.From, q.To)
	if err != nil {
		return nil, storageErr("list instances", err)
	}
	all := append(materialized, persisted...)

	today := a.classifier.Today(now)
	if !today.Before(q.From) && !today.After(q.To) {
		carried, err := a.instances.ListIncompleteBefore(ctx, q.HouseholdID, q.From.AddDays(-OverdueLookbackDays), q.From)
		if err != nil {
			return nil, storageErr("list carried-over instances", err)
		}
		all = append(all, carried...)
	}

	seen := make(map[int64]bool, len(all))
	var out []DashboardInstance
	for _, inst := range all {
		if seen[inst.ID] {
			continue
		}
		seen[inst.ID] = true
		if q.PersonID != nil && inst.AssignedTo != *q.PersonID {
			continue
		}
		task, ok := byID[inst.TaskID]
		if !ok {
			continue
		}

		cl := a.classifier.Classify(inst, task, now)
		if cl.IsOverdue {
			recorded, err := a.marks.RecordIfAbsent(ctx, inst.AssignedTo, inst.ID, inst.DueDate)
			if err != nil {
				return nil, storageErr("record missed chore", err)
			}
			if recorded {
				metrics.MissedChores.Inc()
				a.logger.Info("missed chore recorded",
					"instance_id", inst.ID, "person_id", inst.AssignedTo, "due_date", inst.DueDate.String())
			}
		}

		out = append(out, DashboardInstance{
			TaskInstance:      inst,
			Classification:    cl,
			TaskTitle:         task.Title,
			TaskDescription:   task.Description,
			EstimatedMinutes:  task.EstimatedMinutes,
			Points:            task.Points,
			RecurrenceText:    task.Schedule().Describe(),
			AssigneeNickname:  nicknames[inst.AssignedTo],
			EffectivePriority: EffectivePriority(inst, cl),
		})
	}
	SortInstances(out)

	if people == nil {
		people = []model.Person{}
	}
	if out == nil {
		out = []DashboardInstance{}
	}
	return &Dashboard{People: people, Instances: out, From: q.From, To: q.To, Today: today}, nil
}

// SortInstances orders the dashboard: overdue first (most days overdue at the
// top), then incomplete before completed, higher effective priority, primary
// before secondary, earlier due date, title and finally id.
func SortInstances(items []DashboardInstance) {
	slices.SortStableFunc(items, func(a, b DashboardInstance) int {
		if c := cmp.Compare(boolRank(b.IsOverdue), boolRank(a.IsOverdue)); c != 0 {
			return c
		}
		if c := cmp.Compare(b.DaysOverdue, a.DaysOverdue); c != 0 {
			return c
		}
		if c := cmp.Compare(boolRank(a.IsCompleted), boolRank(b.IsCompleted)); c != 0 {
			return c
		}
		if c := cmp.Compare(b.EffectivePriority, a.EffectivePriority); c != 0 {
			return c
		}
		if c := cmp.Compare(boolRank(a.IsSecondary), boolRank(b.IsSecondary)); c != 0 {
			return c
		}
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		if c := cmp.Compare(a.TaskTitle, b.TaskTitle); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
