package chore

import (
	"context"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
)

// Stores return (nil, nil) for rows that do not exist.

type TaskStore interface {
	Create(ctx context.Context, t model.Task) (*model.Task, error)
	Update(ctx context.Context, t model.Task) (*model.Task, error)
	SetActive(ctx context.Context, id int64, active bool) error
	GetByID(ctx context.Context, id int64) (*model.Task, error)
	ListByHousehold(ctx context.Context, householdID int64) ([]model.Task, error)
	ListActiveByHousehold(ctx context.Context, householdID int64) ([]model.Task, error)
}

type InstanceStore interface {
	GetByID(ctx context.Context, id int64) (*model.TaskInstance, error)
	GetByKey(ctx context.Context, key model.InstanceKey) (*model.TaskInstance, error)
	CreateIfAbsent(ctx context.Context, inst model.TaskInstance) (*model.TaskInstance, bool, error)
	ListByHousehold(ctx context.Context, householdID int64, from, to recurrence.Day) ([]model.TaskInstance, error)
	ListIncompleteBefore(ctx context.Context, householdID int64, from, before recurrence.Day) ([]model.TaskInstance, error)
	ListForAssignee(ctx context.Context, personID int64, date recurrence.Day) ([]model.TaskInstance, error)
	// Complete applies the completion atomically and reports false, writing
	// nothing, when the instance was already completed.
	Complete(ctx context.Context, c model.Completion) (bool, error)
}

type PersonStore interface {
	GetByID(ctx context.Context, id int64) (*model.Person, error)
	ListByHousehold(ctx context.Context, householdID int64) ([]model.Person, error)
}

type MarkStore interface {
	RecordIfAbsent(ctx context.Context, personID, instanceID int64, missed recurrence.Day) (bool, error)
}
