package chore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/chorely/internal/metrics"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
)

type CompletionResult struct {
	Instance     *model.TaskInstance `json:"instance"`
	PointsEarned int                 `json:"points_earned"`
	TaskTitle    string              `json:"task_title"`
	Person       *model.Person       `json:"person"`
}

// Processor completes task instances and credits the completer.
type Processor struct {
	tasks        TaskStore
	instances    InstanceStore
	people       PersonStore
	materializer *Materializer
	classifier   *Classifier
	logger       *slog.Logger
}

func NewProcessor(tasks TaskStore, instances InstanceStore, people PersonStore, materializer *Materializer, classifier *Classifier, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		tasks:        tasks,
		instances:    instances,
		people:       people,
		materializer: materializer,
		classifier:   classifier,
		logger:       logger.With("component", "completion"),
	}
}

// Complete marks the instance done on behalf of personID. A secondary instance
// can only be completed once every primary instance the person has on that
// instance's due date is complete. Secondary completions earn half points,
// rounded down.
func (p *Processor) Complete(ctx context.Context, instanceID, personID int64, now time.Time) (*CompletionResult, error) {
	result, err := p.complete(ctx, instanceID, personID, now)
	if err != nil {
		metrics.CompletionRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}
	return result, nil
}

func (p *Processor) complete(ctx context.Context, instanceID, personID int64, now time.Time) (*CompletionResult, error) {
	inst, err := p.instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, storageErr("get instance", err)
	}
	if inst == nil {
		return nil, fmt.Errorf("task instance %d: %w", instanceID, ErrNotFound)
	}
	if inst.IsCompleted {
		return nil, fmt.Errorf("task instance %d: %w", instanceID, ErrAlreadyCompleted)
	}

	task, err := p.tasks.GetByID(ctx, inst.TaskID)
	if err != nil {
		return nil, storageErr("get task", err)
	}
	if task == nil {
		return nil, fmt.Errorf("task %d: %w", inst.TaskID, ErrNotFound)
	}

	person, err := p.people.GetByID(ctx, personID)
	if err != nil {
		return nil, storageErr("get person", err)
	}
	if person == nil || person.HouseholdID != task.HouseholdID {
		return nil, fmt.Errorf("person %d: %w", personID, ErrNotFound)
	}
	if !mayComplete(*inst, *task, personID) {
		return nil, fmt.Errorf("person %d on instance %d: %w", personID, instanceID, ErrNotAuthorized)
	}

	if inst.IsSecondary {
		if err := p.checkPrimaries(ctx, task.HouseholdID, personID, inst.DueDate); err != nil {
			return nil, err
		}
	}

	points := task.Points
	if inst.IsSecondary {
		points = task.Points / 2
	}
	today := p.classifier.Today(now)
	completion := model.Completion{
		InstanceID:   inst.ID,
		PersonID:     personID,
		CompletedAt:  now,
		CompletedOn:  today,
		PointsEarned: points,
		Streak:       NextStreak(person.CurrentStreak, person.LastCompletedOn, today),
	}

	applied, err := p.instances.Complete(ctx, completion)
	if err != nil {
		return nil, storageErr("complete instance", err)
	}
	if !applied {
		return nil, fmt.Errorf("task instance %d: %w", instanceID, ErrAlreadyCompleted)
	}

	assignment := "primary"
	if inst.IsSecondary {
		assignment = "secondary"
	}
	metrics.Completions.WithLabelValues(assignment).Inc()
	p.logger.Info("task instance completed",
		"instance_id", inst.ID, "task_id", task.ID, "person_id", personID,
		"assignment", assignment, "points", points, "streak", completion.Streak)

	done, err := p.instances.GetByID(ctx, inst.ID)
	if err != nil {
		return nil, storageErr("reload instance", err)
	}
	credited, err := p.people.GetByID(ctx, personID)
	if err != nil {
		return nil, storageErr("reload person", err)
	}
	return &CompletionResult{
		Instance:     done,
		PointsEarned: points,
		TaskTitle:    task.Title,
		Person:       credited,
	}, nil
}

// checkPrimaries materializes the person's primary instances for date and
// fails unless all of them are complete. Instances already stored for the
// person count too, even when their task has since been deactivated.
func (p *Processor) checkPrimaries(ctx context.Context, householdID, personID int64, date recurrence.Day) error {
	tasks, err := p.tasks.ListActiveByHousehold(ctx, householdID)
	if err != nil {
		return storageErr("list tasks", err)
	}
	var own []model.Task
	for _, t := range tasks {
		if t.AssignedTo == personID {
			own = append(own, t)
		}
	}

	materialized, err := p.materializer.EnsureInstances(ctx, own, date)
	if err != nil {
		return err
	}
	stored, err := p.instances.ListForAssignee(ctx, personID, date)
	if err != nil {
		return storageErr("list assignee instances", err)
	}

	pending := make(map[int64]struct{})
	for _, inst := range append(materialized, stored...) {
		if inst.AssignedTo == personID && !inst.IsSecondary && !inst.IsCompleted {
			pending[inst.ID] = struct{}{}
		}
	}
	if len(pending) > 0 {
		return fmt.Errorf("%d primary task(s) due %s still open: %w", len(pending), date, ErrPrimaryIncomplete)
	}
	return nil
}

// mayComplete allows the instance's own assignee, and for secondary instances
// any person listed as a secondary assignee of the task.
func mayComplete(inst model.TaskInstance, task model.Task, personID int64) bool {
	if inst.AssignedTo == personID {
		return true
	}
	return inst.IsSecondary && task.HasSecondary(personID)
}

// NextStreak returns the streak after a completion on today. A second
// completion on the same day leaves it unchanged, a completion the day after
// the last one extends it, and anything else starts a new streak.
func NextStreak(current int, last *recurrence.Day, today recurrence.Day) int {
	if last == nil {
		return 1
	}
	switch recurrence.DaysBetween(*last, today) {
	case 0:
		return max(current, 1)
	case 1:
		return current + 1
	}
	return 1
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrPrimaryIncomplete):
		return "primary_incomplete"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	}
	return "other"
}
