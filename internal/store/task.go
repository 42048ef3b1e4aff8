package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var active int
	var kind string
	var interval int
	var start string
	var end, due sql.NullString

	err := scanner.Scan(
		&t.ID, &t.HouseholdID, &t.Title, &t.Description, &t.EstimatedMinutes,
		&t.Points, &t.AssignedTo, &active, &kind, &interval,
		&start, &end, &due, &t.Priority, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Active = active != 0
	if t.Recurrence, err = recurrence.Parse(kind, interval); err != nil {
		return nil, fmt.Errorf("task %d: %w", t.ID, err)
	}
	if t.StartDate, err = recurrence.ParseDay(start); err != nil {
		return nil, fmt.Errorf("task %d start date: %w", t.ID, err)
	}
	if t.EndDate, err = parseNullDay(end); err != nil {
		return nil, err
	}
	if t.DueDate, err = parseNullDay(due); err != nil {
		return nil, err
	}
	return &t, nil
}

const taskCols = `id, household_id, title, description, estimated_minutes, points, assigned_to, active, recurrence_kind, recurrence_interval, start_date, end_date, due_date, priority, created_at, updated_at`

func recurrenceArgs(r recurrence.Rule) (string, int) {
	if r == nil {
		return string(recurrence.KindNone), 0
	}
	return string(r.Kind()), r.Interval()
}

// Create inserts the task and its secondary assignees in one transaction.
func (s *TaskStore) Create(ctx context.Context, t model.Task) (*model.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	kind, interval := recurrenceArgs(t.Recurrence)
	result, err := tx.ExecContext(ctx,
		`INSERT INTO tasks (household_id, title, description, estimated_minutes, points, assigned_to, active, recurrence_kind, recurrence_interval, start_date, end_date, due_date, priority)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.HouseholdID, t.Title, t.Description, t.EstimatedMinutes, t.Points, t.AssignedTo,
		boolArg(t.Active), kind, interval, dayArg(t.StartDate), nullDayArg(t.EndDate), nullDayArg(t.DueDate), t.Priority,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := replaceSecondaries(ctx, tx, id, t.SecondaryAssignees); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit task: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Update rewrites every editable column of the task, including its secondary
// assignees. The household never changes.
func (s *TaskStore) Update(ctx context.Context, t model.Task) (*model.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	kind, interval := recurrenceArgs(t.Recurrence)
	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, estimated_minutes = ?, points = ?, assigned_to = ?, active = ?,
		 recurrence_kind = ?, recurrence_interval = ?, start_date = ?, end_date = ?, due_date = ?, priority = ?
		 WHERE id = ?`,
		t.Title, t.Description, t.EstimatedMinutes, t.Points, t.AssignedTo, boolArg(t.Active),
		kind, interval, dayArg(t.StartDate), nullDayArg(t.EndDate), nullDayArg(t.DueDate), t.Priority,
		t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if err := replaceSecondaries(ctx, tx, t.ID, t.SecondaryAssignees); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit task: %w", err)
	}
	return s.GetByID(ctx, t.ID)
}

// SetActive toggles the soft-delete flag. Tasks are never hard-deleted since
// instances keep referencing them.
func (s *TaskStore) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE tasks SET active = ? WHERE id = ?`, boolArg(active), id)
	if err != nil {
		return fmt.Errorf("set task active: %w", err)
	}
	return nil
}

func (s *TaskStore) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	secondaries, err := s.secondaries(ctx, `WHERE task_id = ?`, id)
	if err != nil {
		return nil, err
	}
	t.SecondaryAssignees = secondaries[id]
	return t, nil
}

// ListByHousehold returns every task of the household, inactive ones included.
func (s *TaskStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.Task, error) {
	return s.list(ctx, `WHERE household_id = ?`, householdID)
}

func (s *TaskStore) ListActiveByHousehold(ctx context.Context, householdID int64) ([]model.Task, error) {
	return s.list(ctx, `WHERE household_id = ? AND active = 1`, householdID)
}

func (s *TaskStore) list(ctx context.Context, where string, householdID int64) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskCols+` FROM tasks `+where+` ORDER BY priority DESC, title ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	secondaries, err := s.secondaries(ctx,
		`WHERE task_id IN (SELECT id FROM tasks WHERE household_id = ?)`, householdID)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].SecondaryAssignees = secondaries[tasks[i].ID]
	}
	return tasks, nil
}

func (s *TaskStore) secondaries(ctx context.Context, where string, arg int64) (map[int64][]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, person_id FROM task_secondary_assignees `+where+` ORDER BY task_id, person_id`,
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("list secondary assignees: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]int64)
	for rows.Next() {
		var taskID, personID int64
		if err := rows.Scan(&taskID, &personID); err != nil {
			return nil, fmt.Errorf("scan secondary assignee: %w", err)
		}
		out[taskID] = append(out[taskID], personID)
	}
	return out, rows.Err()
}

func replaceSecondaries(ctx context.Context, tx *sql.Tx, taskID int64, personIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_secondary_assignees WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("clear secondary assignees: %w", err)
	}
	if len(personIDs) == 0 {
		return nil
	}

	placeholders := make([]string, len(personIDs))
	args := make([]any, 0, 2*len(personIDs))
	for i, id := range personIDs {
		placeholders[i] = "(?, ?)"
		args = append(args, taskID, id)
	}
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO task_secondary_assignees (task_id, person_id) VALUES `+strings.Join(placeholders, ", "),
		args...,
	)
	if err != nil {
		return fmt.Errorf("insert secondary assignees: %w", err)
	}
	return nil
}
