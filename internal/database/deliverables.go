package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/nao1215/feedtrack/internal/model"
)

// Deliverable retrieves a deliverable with its content.
func (t *tx) Deliverable(ctx context.Context, id int64) (*model.Deliverable, error) {
	row, err := t.queryRow(ctx, t.builder.
		Select("id", "task_id", "filename", "content_type", "content", "checksum", "submitted_at", "submitted_by").
		From("deliverables").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}

	var (
		d           model.Deliverable
		submittedAt string
	)
	err = row.Scan(&d.ID, &d.TaskID, &d.Filename, &d.ContentType, &d.Content, &d.Checksum, &submittedAt, &d.SubmittedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("deliverable %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deliverable: %w", err)
	}

	d.SubmittedAt = parseTimestamp(submittedAt)
	return &d, nil
}

// InsertDeliverable stores a deliverable. The checksum and timestamp are
// filled in when missing.
func (t *tx) InsertDeliverable(ctx context.Context, d *model.Deliverable) error {
	if d.Checksum == "" {
		d.Checksum = model.Checksum(d.Content)
	}
	if d.SubmittedAt.IsZero() {
		d.SubmittedAt = t.now()
	}

	result, err := t.exec(ctx, t.builder.Insert("deliverables").
		Columns("task_id", "filename", "content_type", "content", "checksum", "submitted_at", "submitted_by").
		Values(d.TaskID, d.Filename, d.ContentType, d.Content, d.Checksum, formatTimestamp(d.SubmittedAt), d.SubmittedBy))
	if err != nil {
		return fmt.Errorf("failed to insert deliverable: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read deliverable id: %w", err)
	}
	d.ID = id
	return nil
}

// DeleteDeliverable removes a deliverable. Foreign keys clear any task
// pointer still referencing it.
func (t *tx) DeleteDeliverable(ctx context.Context, id int64) error {
	result, err := t.exec(ctx, t.builder.Delete("deliverables").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete deliverable: %w", err)
	}
	return mustAffect(result, fmt.Errorf("deliverable %d: %w", id, model.ErrNotFound))
}
