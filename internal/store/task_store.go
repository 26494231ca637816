package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/duetask/internal/model"
)

// taskColumns selects a task row in the shape model.Task scans from.
const taskColumns = `id, title, COALESCE(notes, '') AS notes, assignee,
	due_date, is_complete, created_at`

// ActiveTasksOn returns every task due on date that is not complete,
// oldest first.
func (s *SQLStore) ActiveTasksOn(ctx context.Context, date model.Date) ([]model.Task, error) {
	query := s.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks
		WHERE due_date = ? AND is_complete = ?
		ORDER BY created_at, id`)

	var tasks []model.Task
	if err := s.db.SelectContext(ctx, &tasks, query, date, false); err != nil {
		return nil, fmt.Errorf("querying tasks due %s: %w", date, err)
	}
	return tasks, nil
}

// GetTask retrieves a single task by ID.
func (s *SQLStore) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	return getTask(ctx, s.db, id)
}

// SaveTask inserts or replaces a task and returns the change event the
// database trigger layer would have emitted for the write.
func (s *SQLStore) SaveTask(ctx context.Context, task model.Task) (model.ChangeEvent, error) {
	if strings.TrimSpace(task.Title) == "" {
		return model.ChangeEvent{}, fmt.Errorf("task title must not be empty")
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = model.Timestamp{Time: time.Now().UTC()}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.ChangeEvent{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := getTask(ctx, tx, task.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.ChangeEvent{}, err
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO tasks (id, title, notes, assignee, due_date, is_complete, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			notes = excluded.notes,
			assignee = excluded.assignee,
			due_date = excluded.due_date,
			is_complete = excluded.is_complete`),
		task.ID, task.Title, task.Notes, string(task.Assignee),
		dateArg(task.DueDate), task.IsComplete, task.CreatedAt.UTC(),
	)
	if err != nil {
		return model.ChangeEvent{}, fmt.Errorf("saving task %d: %w", task.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return model.ChangeEvent{}, fmt.Errorf("committing task %d: %w", task.ID, err)
	}

	if old == nil {
		return model.ChangeEvent{Type: model.EventInsert, Table: "tasks", Record: &task}, nil
	}
	// created_at is not touched by the upsert.
	task.CreatedAt = old.CreatedAt
	return model.ChangeEvent{
		Type:      model.EventUpdate,
		Table:     "tasks",
		Record:    &task,
		OldRecord: old,
	}, nil
}

// DeleteTask removes a task by ID and returns the matching change event.
func (s *SQLStore) DeleteTask(ctx context.Context, id int64) (model.ChangeEvent, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.ChangeEvent{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := getTask(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ChangeEvent{}, fmt.Errorf("task %d not found", id)
		}
		return model.ChangeEvent{}, err
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM tasks WHERE id = ?"), id); err != nil {
		return model.ChangeEvent{}, fmt.Errorf("deleting task %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return model.ChangeEvent{}, fmt.Errorf("committing delete of task %d: %w", id, err)
	}

	return model.ChangeEvent{Type: model.EventDelete, Table: "tasks", OldRecord: old}, nil
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

// getTask loads one task. The error wraps sql.ErrNoRows when id is unknown.
func getTask(ctx context.Context, q queryer, id int64) (*model.Task, error) {
	var task model.Task
	query := q.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)
	if err := sqlx.GetContext(ctx, q, &task, query, id); err != nil {
		return nil, fmt.Errorf("getting task %d: %w", id, err)
	}
	return &task, nil
}

// dateArg converts an optional date to a driver value.
func dateArg(d *model.Date) any {
	if d == nil {
		return nil
	}
	return *d
}
