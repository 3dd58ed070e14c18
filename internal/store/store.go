// Package store defines the transaction boundary the deliverable lifecycle
// runs on.
//
// Every mutation of tasks, deliverables and feedback criteria happens inside
// Store.WithTx: either every write made through the Tx is committed, or none
// is. Readers using Store.View observe a consistent snapshot and never see
// the intermediate state of a running transaction.
//
// The SQLite implementation lives in internal/database.
package store

import (
	"context"

	"github.com/nao1215/feedtrack/internal/model"
)

// Store opens transactions.
type Store interface {
	// WithTx runs fn inside a read-write transaction. The transaction is
	// committed when fn returns nil and rolled back when fn returns an error
	// or panics. The error returned by fn is returned unchanged.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// View runs fn inside a transaction that is always rolled back.
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of row operations available inside a transaction.
// Lookups of missing rows return an error wrapping model.ErrNotFound.
type Tx interface {
	// Task returns the task row. Archived tasks are returned as well; callers
	// decide whether they are visible.
	Task(ctx context.Context, id int64) (*model.Task, error)

	// CreateTask inserts a task and sets its ID.
	CreateTask(ctx context.Context, task *model.Task) error

	// ListTasks returns the non-archived tasks owned or supervised by userID,
	// or every non-archived task when userID is zero.
	ListTasks(ctx context.Context, userID int64) ([]model.Task, error)

	SetTaskLocked(ctx context.Context, id int64, locked bool) error
	SetTaskArchived(ctx context.Context, id int64, archived bool) error
	SetTaskStatus(ctx context.Context, id int64, status model.TaskStatus) error

	// Deliverable returns a deliverable including its content.
	Deliverable(ctx context.Context, id int64) (*model.Deliverable, error)

	// InsertDeliverable stores a deliverable and sets its ID.
	InsertDeliverable(ctx context.Context, d *model.Deliverable) error

	// DeleteDeliverable removes a deliverable. Task pointers referencing it
	// are cleared.
	DeleteDeliverable(ctx context.Context, id int64) error

	// SetStaged and SetSubmitted replace a task's deliverable pointers.
	// A nil id clears the pointer.
	SetStaged(ctx context.Context, taskID int64, deliverableID *int64) error
	SetSubmitted(ctx context.Context, taskID int64, deliverableID *int64) error

	// Criteria returns the criteria of a task ordered by ID.
	Criteria(ctx context.Context, taskID int64) ([]model.FeedbackCriterion, error)

	// Criterion returns a single criterion.
	Criterion(ctx context.Context, id int64) (*model.FeedbackCriterion, error)

	// InsertCriterion stores a criterion and sets its ID.
	InsertCriterion(ctx context.Context, c *model.FeedbackCriterion) error

	// UpdateCriterion overwrites the mutable fields of a criterion.
	UpdateCriterion(ctx context.Context, c *model.FeedbackCriterion) error

	// DeleteCriteria removes the listed criteria of a task and reports how
	// many rows were deleted. IDs belonging to other tasks are left alone.
	DeleteCriteria(ctx context.Context, taskID int64, ids []int64) (int64, error)

	// CountCriteria returns the number of criteria of a task.
	CountCriteria(ctx context.Context, taskID int64) (int, error)
}
