package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
)

type InstanceStore struct {
	db *sql.DB
}

func NewInstanceStore(db *sql.DB) *InstanceStore {
	return &InstanceStore{db: db}
}

func scanInstance(scanner interface{ Scan(...any) error }) (*model.TaskInstance, error) {
	var inst model.TaskInstance
	var isSecondary, isCompleted int
	var due string
	var completedAt sql.NullTime

	err := scanner.Scan(
		&inst.ID, &inst.TaskID, &inst.AssignedTo, &isSecondary, &due,
		&completedAt, &isCompleted, &inst.PointsEarned, &inst.CurrentPriority,
	)
	if err != nil {
		return nil, err
	}

	inst.IsSecondary = isSecondary != 0
	inst.IsCompleted = isCompleted != 0
	if completedAt.Valid {
		t := completedAt.Time
		inst.CompletedAt = &t
	}
	if inst.DueDate, err = recurrence.ParseDay(due); err != nil {
		return nil, fmt.Errorf("instance %d due date: %w", inst.ID, err)
	}
	return &inst, nil
}

const instanceCols = `ti.id, ti.task_id, ti.assigned_to, ti.is_secondary, ti.due_date, ti.completed_at, ti.is_completed, ti.points_earned, ti.current_priority`

func (s *InstanceStore) GetByID(ctx context.Context, id int64) (*model.TaskInstance, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+instanceCols+` FROM task_instances ti WHERE ti.id = ?`, id)
	inst, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task instance: %w", err)
	}
	return inst, nil
}

func (s *InstanceStore) GetByKey(ctx context.Context, key model.InstanceKey) (*model.TaskInstance, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+instanceCols+` FROM task_instances ti WHERE ti.task_id = ? AND ti.assigned_to = ? AND ti.due_date = ?`,
		key.TaskID, key.AssignedTo, key.DueDate,
	)
	inst, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task instance by key: %w", err)
	}
	return inst, nil
}

// CreateIfAbsent inserts the instance unless one with the same key already
// exists, and returns the stored row either way. created reports whether this
// call inserted it.
func (s *InstanceStore) CreateIfAbsent(ctx context.Context, inst model.TaskInstance) (*model.TaskInstance, bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO task_instances (task_id, assigned_to, is_secondary, due_date, is_completed, points_earned, current_priority)
		 VALUES (?, ?, ?, ?, 0, 0, ?)
		 ON CONFLICT (task_id, assigned_to, due_date) DO NOTHING`,
		inst.TaskID, inst.AssignedTo, boolArg(inst.IsSecondary), dayArg(inst.DueDate), inst.CurrentPriority,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert task instance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	stored, err := s.GetByKey(ctx, inst.Key())
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("task instance %v vanished after insert", inst.Key())
	}
	return stored, n > 0, nil
}

// ListByHousehold returns instances of the household's tasks due within
// [from, to], inactive tasks included.
func (s *InstanceStore) ListByHousehold(ctx context.Context, householdID int64, from, to recurrence.Day) ([]model.TaskInstance, error) {
	return s.query(ctx,
		`SELECT `+instanceCols+` FROM task_instances ti
		 JOIN tasks t ON t.id = ti.task_id
		 WHERE t.household_id = ? AND ti.due_date >= ? AND ti.due_date <= ?
		 ORDER BY ti.due_date, ti.id`,
		householdID, dayArg(from), dayArg(to),
	)
}

// ListIncompleteBefore returns incomplete instances of the household due on
// or after from and strictly before before.
func (s *InstanceStore) ListIncompleteBefore(ctx context.Context, householdID int64, from, before recurrence.Day) ([]model.TaskInstance, error) {
	return s.query(ctx,
		`SELECT `+instanceCols+` FROM task_instances ti
		 JOIN tasks t ON t.id = ti.task_id
		 WHERE t.household_id = ? AND ti.is_completed = 0 AND ti.due_date >= ? AND ti.due_date < ?
		 ORDER BY ti.due_date, ti.id`,
		householdID, dayArg(from), dayArg(before),
	)
}

// ListForAssignee returns every instance assigned to the person on date.
func (s *InstanceStore) ListForAssignee(ctx context.Context, personID int64, date recurrence.Day) ([]model.TaskInstance, error) {
	return s.query(ctx,
		`SELECT `+instanceCols+` FROM task_instances ti
		 WHERE ti.assigned_to = ? AND ti.due_date = ?
		 ORDER BY ti.id`,
		personID, dayArg(date),
	)
}

func (s *InstanceStore) query(ctx context.Context, query string, args ...any) ([]model.TaskInstance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list task instances: %w", err)
	}
	defer rows.Close()

	var instances []model.TaskInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task instance: %w", err)
		}
		instances = append(instances, *inst)
	}
	return instances, rows.Err()
}

// Complete marks the instance completed and credits the person in a single
// transaction. The instance update only applies while the row is still
// incomplete; applied is false when another completion got there first, in
// which case nothing is written.
func (s *InstanceStore) Complete(ctx context.Context, c model.Completion) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE task_instances SET is_completed = 1, completed_at = ?, points_earned = ?
		 WHERE id = ? AND is_completed = 0`,
		c.CompletedAt.UTC(), c.PointsEarned, c.InstanceID,
	)
	if err != nil {
		return false, fmt.Errorf("complete task instance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE people SET total_points = total_points + ?, current_streak = ?, last_completed_on = ?
		 WHERE id = ?`,
		c.PointsEarned, c.Streak, dayArg(c.CompletedOn), c.PersonID,
	)
	if err != nil {
		return false, fmt.Errorf("credit person: %w", err)
	}
	if n, err = result.RowsAffected(); err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, fmt.Errorf("credit person %d: no such person", c.PersonID)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit completion: %w", err)
	}
	return true, nil
}
