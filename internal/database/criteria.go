package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/nao1215/feedtrack/internal/model"
)

var criterionColumns = []string{
	"id", "task_id", "description", "status", "change_observed", "provided_by", "created_at", "updated_at",
}

func scanCriterion(row rowScanner) (*model.FeedbackCriterion, error) {
	var (
		c         model.FeedbackCriterion
		status    string
		observed  sql.NullString
		createdAt string
		updatedAt string
	)

	if err := row.Scan(&c.ID, &c.TaskID, &c.Description, &status, &observed, &c.ProvidedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	c.Status = model.CriterionStatus(status)
	c.ChangeObserved = nullableString(observed)
	c.CreatedAt = parseTimestamp(createdAt)
	c.UpdatedAt = parseTimestamp(updatedAt)
	return &c, nil
}

// Criteria lists the criteria of a task ordered by ID.
func (t *tx) Criteria(ctx context.Context, taskID int64) ([]model.FeedbackCriterion, error) {
	rows, err := t.query(ctx, t.builder.Select(criterionColumns...).
		From("feedback_criteria").
		Where(sq.Eq{"task_id": taskID}).
		OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("failed to list criteria: %w", err)
	}
	defer rows.Close()

	criteria := make([]model.FeedbackCriterion, 0)
	for rows.Next() {
		c, err := scanCriterion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan criterion: %w", err)
		}
		criteria = append(criteria, *c)
	}
	return criteria, rows.Err()
}

// Criterion retrieves a criterion by ID.
func (t *tx) Criterion(ctx context.Context, id int64) (*model.FeedbackCriterion, error) {
	row, err := t.queryRow(ctx, t.builder.Select(criterionColumns...).From("feedback_criteria").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}

	c, err := scanCriterion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("criterion %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get criterion: %w", err)
	}
	return c, nil
}

// InsertCriterion stores a criterion.
func (t *tx) InsertCriterion(ctx context.Context, c *model.FeedbackCriterion) error {
	if c.Status == "" {
		c.Status = model.CriterionUnmet
	}
	if !c.Status.Valid() {
		return fmt.Errorf("%w: criterion status %q", model.ErrValidationFailed, c.Status)
	}
	now := t.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = c.CreatedAt

	result, err := t.exec(ctx, t.builder.Insert("feedback_criteria").
		Columns("task_id", "description", "status", "change_observed", "provided_by", "created_at", "updated_at").
		Values(c.TaskID, c.Description, string(c.Status), stringValue(c.ChangeObserved), c.ProvidedBy,
			formatTimestamp(c.CreatedAt), formatTimestamp(c.UpdatedAt)))
	if err != nil {
		return fmt.Errorf("failed to insert criterion: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read criterion id: %w", err)
	}
	c.ID = id
	return nil
}

// UpdateCriterion overwrites the description, status and change
// observation of a criterion.
func (t *tx) UpdateCriterion(ctx context.Context, c *model.FeedbackCriterion) error {
	if !c.Status.Valid() {
		return fmt.Errorf("%w: criterion status %q", model.ErrValidationFailed, c.Status)
	}
	c.UpdatedAt = t.now()

	result, err := t.exec(ctx, t.builder.Update("feedback_criteria").
		Set("description", c.Description).
		Set("status", string(c.Status)).
		Set("change_observed", stringValue(c.ChangeObserved)).
		Set("updated_at", formatTimestamp(c.UpdatedAt)).
		Where(sq.Eq{"id": c.ID, "task_id": c.TaskID}))
	if err != nil {
		return fmt.Errorf("failed to update criterion: %w", err)
	}
	return mustAffect(result, fmt.Errorf("criterion %d: %w", c.ID, model.ErrNotFound))
}

// DeleteCriteria removes the listed criteria of a task.
func (t *tx) DeleteCriteria(ctx context.Context, taskID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := t.exec(ctx, t.builder.Delete("feedback_criteria").
		Where(sq.Eq{"task_id": taskID, "id": ids}))
	if err != nil {
		return 0, fmt.Errorf("failed to delete criteria: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// CountCriteria counts the criteria of a task.
func (t *tx) CountCriteria(ctx context.Context, taskID int64) (int, error) {
	row, err := t.queryRow(ctx, t.builder.Select("COUNT(*)").From("feedback_criteria").Where(sq.Eq{"task_id": taskID}))
	if err != nil {
		return 0, err
	}

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count criteria: %w", err)
	}
	return count, nil
}
