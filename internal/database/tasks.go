package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/nao1215/feedtrack/internal/model"
)

var taskColumns = []string{
	"id", "title", "description", "status", "is_locked", "archived",
	"owner_id", "supervisor_id", "staged_deliverable_id", "submitted_deliverable_id",
	"created_at",
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*model.Task, error) {
	var (
		task      model.Task
		status    string
		staged    sql.NullInt64
		submitted sql.NullInt64
		createdAt string
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&task.IsLocked,
		&task.Archived,
		&task.OwnerID,
		&task.SupervisorID,
		&staged,
		&submitted,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = model.TaskStatus(status)
	task.StagedDeliverableID = nullableID(staged)
	task.SubmittedDeliverableID = nullableID(submitted)
	task.CreatedAt = parseTimestamp(createdAt)
	return &task, nil
}

// Task retrieves a task by ID.
func (t *tx) Task(ctx context.Context, id int64) (*model.Task, error) {
	row, err := t.queryRow(ctx, t.builder.Select(taskColumns...).From("tasks").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// CreateTask inserts a task.
func (t *tx) CreateTask(ctx context.Context, task *model.Task) error {
	if task.Status == "" {
		task.Status = model.TaskPending
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = t.now()
	}

	result, err := t.exec(ctx, t.builder.Insert("tasks").
		Columns("title", "description", "status", "is_locked", "archived", "owner_id", "supervisor_id", "created_at").
		Values(task.Title, task.Description, string(task.Status), task.IsLocked, task.Archived,
			task.OwnerID, task.SupervisorID, formatTimestamp(task.CreatedAt)))
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read task id: %w", err)
	}
	task.ID = id
	return nil
}

// ListTasks lists the non-archived tasks visible to userID.
func (t *tx) ListTasks(ctx context.Context, userID int64) ([]model.Task, error) {
	q := t.builder.Select(taskColumns...).From("tasks").Where(sq.Eq{"archived": false}).OrderBy("id")
	if userID != 0 {
		q = q.Where(sq.Or{sq.Eq{"owner_id": userID}, sq.Eq{"supervisor_id": userID}})
	}

	rows, err := t.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// SetTaskLocked sets the supervisor lock of a task.
func (t *tx) SetTaskLocked(ctx context.Context, id int64, locked bool) error {
	return t.updateTask(ctx, id, "is_locked", locked)
}

// SetTaskArchived sets the archived flag of a task.
func (t *tx) SetTaskArchived(ctx context.Context, id int64, archived bool) error {
	return t.updateTask(ctx, id, "archived", archived)
}

// SetTaskStatus sets the progress state of a task.
func (t *tx) SetTaskStatus(ctx context.Context, id int64, status model.TaskStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: task status %q", model.ErrValidationFailed, status)
	}
	return t.updateTask(ctx, id, "status", string(status))
}

// SetStaged replaces the staged deliverable pointer of a task.
func (t *tx) SetStaged(ctx context.Context, taskID int64, deliverableID *int64) error {
	return t.updateTask(ctx, taskID, "staged_deliverable_id", idValue(deliverableID))
}

// SetSubmitted replaces the submitted deliverable pointer of a task.
func (t *tx) SetSubmitted(ctx context.Context, taskID int64, deliverableID *int64) error {
	return t.updateTask(ctx, taskID, "submitted_deliverable_id", idValue(deliverableID))
}

func (t *tx) updateTask(ctx context.Context, id int64, column string, value any) error {
	result, err := t.exec(ctx, t.builder.Update("tasks").Set(column, value).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", column, err)
	}
	return mustAffect(result, fmt.Errorf("task %d: %w", id, model.ErrNotFound))
}
