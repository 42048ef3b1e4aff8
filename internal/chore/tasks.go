package chore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
)

// TaskInput carries the editable fields of a task. Zero Priority means low.
type TaskInput struct {
	HouseholdID        int64
	Title              string
	Description        string
	EstimatedMinutes   int
	Points             int
	AssignedTo         int64
	SecondaryAssignees []int64
	RecurrenceKind     string
	RecurrenceInterval int
	StartDate          recurrence.Day
	EndDate            *recurrence.Day
	DueDate            *recurrence.Day
	Priority           int
}

// Tasks is the administrative side of task definitions.
type Tasks struct {
	tasks  TaskStore
	people PersonStore
	logger *slog.Logger
}

func NewTasks(tasks TaskStore, people PersonStore, logger *slog.Logger) *Tasks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tasks{tasks: tasks, people: people, logger: logger.With("component", "tasks")}
}

func (s *Tasks) Create(ctx context.Context, in TaskInput) (*model.Task, error) {
	t, err := s.build(ctx, in)
	if err != nil {
		return nil, err
	}
	t.Active = true

	created, err := s.tasks.Create(ctx, *t)
	if err != nil {
		return nil, storageErr("create task", err)
	}
	s.logger.Info("task created", "task_id", created.ID, "household_id", created.HouseholdID, "title", created.Title)
	return created, nil
}

// Update replaces the task's definition. Instances already materialized keep
// their due dates and completion state.
func (s *Tasks) Update(ctx context.Context, id int64, in TaskInput) (*model.Task, error) {
	existing, err := s.get(ctx, in.HouseholdID, id)
	if err != nil {
		return nil, err
	}
	t, err := s.build(ctx, in)
	if err != nil {
		return nil, err
	}
	t.ID = existing.ID
	t.Active = existing.Active

	updated, err := s.tasks.Update(ctx, *t)
	if err != nil {
		return nil, storageErr("update task", err)
	}
	s.logger.Info("task updated", "task_id", updated.ID)
	return updated, nil
}

// Deactivate stops a task from producing new instances. History stays.
func (s *Tasks) Deactivate(ctx context.Context, householdID, id int64) error {
	if _, err := s.get(ctx, householdID, id); err != nil {
		return err
	}
	if err := s.tasks.SetActive(ctx, id, false); err != nil {
		return storageErr("deactivate task", err)
	}
	s.logger.Info("task deactivated", "task_id", id)
	return nil
}

func (s *Tasks) List(ctx context.Context, householdID int64) ([]model.Task, error) {
	tasks, err := s.tasks.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, storageErr("list tasks", err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (s *Tasks) get(ctx context.Context, householdID, id int64) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get task", err)
	}
	if t == nil || t.HouseholdID != householdID {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return t, nil
}

func (s *Tasks) build(ctx context.Context, in TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Points < 0 {
		return nil, fmt.Errorf("%w: points must not be negative", ErrInvalidInput)
	}
	if in.EstimatedMinutes < 0 {
		return nil, fmt.Errorf("%w: estimated minutes must not be negative", ErrInvalidInput)
	}
	priority := in.Priority
	if priority == 0 {
		priority = model.PriorityLow
	}
	if priority < model.PriorityLow || priority > model.PriorityHigh {
		return nil, fmt.Errorf("%w: priority must be between %d and %d", ErrInvalidInput, model.PriorityLow, model.PriorityHigh)
	}

	rule, err := recurrence.Parse(in.RecurrenceKind, in.RecurrenceInterval)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecurrence, err)
	}
	start := in.StartDate
	if start.IsZero() && rule.Kind() == recurrence.KindNone && in.DueDate != nil {
		start = *in.DueDate
	}
	t := &model.Task{
		HouseholdID:      in.HouseholdID,
		Title:            title,
		Description:      strings.TrimSpace(in.Description),
		EstimatedMinutes: in.EstimatedMinutes,
		Points:           in.Points,
		AssignedTo:       in.AssignedTo,
		Recurrence:       rule,
		StartDate:        start,
		EndDate:          in.EndDate,
		DueDate:          in.DueDate,
		Priority:         priority,
	}
	if err := t.Schedule().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecurrence, err)
	}

	members, err := s.people.ListByHousehold(ctx, in.HouseholdID)
	if err != nil {
		return nil, storageErr("list people", err)
	}
	inHousehold := make(map[int64]bool, len(members))
	for _, p := range members {
		inHousehold[p.ID] = true
	}
	if !inHousehold[in.AssignedTo] {
		return nil, fmt.Errorf("assignee %d: %w", in.AssignedTo, ErrNotFound)
	}

	seen := map[int64]bool{in.AssignedTo: true}
	for _, id := range in.SecondaryAssignees {
		if seen[id] {
			continue
		}
		if !inHousehold[id] {
			return nil, fmt.Errorf("secondary assignee %d: %w", id, ErrNotFound)
		}
		seen[id] = true
		t.SecondaryAssignees = append(t.SecondaryAssignees, id)
	}
	return t, nil
}
