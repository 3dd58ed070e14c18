package model

import "time"

// TaskStatus is the progress state of a task.
type TaskStatus string

const (
	// TaskPending is a task that has not been submitted yet.
	TaskPending TaskStatus = "pending"

	// TaskCompleted is a task with a submitted deliverable.
	TaskCompleted TaskStatus = "completed"

	// TaskMissing is a task whose deadline passed without a submission.
	TaskMissing TaskStatus = "missing"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskCompleted, TaskMissing:
		return true
	default:
		return false
	}
}

// Task holds the fields of a project task that the deliverable lifecycle
// depends on. Everything else about a task (deadlines, meetings, projects)
// lives outside this module.
type Task struct {
	// ID is the primary key of the task.
	ID int64

	// Title and Description are forwarded to the classifier as context.
	Title       string
	Description string

	// Status is the progress state of the task.
	Status TaskStatus

	// IsLocked is set by the supervisor to block further submissions.
	IsLocked bool

	// Archived tasks are invisible to every operation.
	Archived bool

	// OwnerID is the student who stages and submits deliverables.
	OwnerID int64

	// SupervisorID is the user who authors feedback criteria.
	SupervisorID int64

	// StagedDeliverableID points at the not-yet-submitted upload, if any.
	StagedDeliverableID *int64

	// SubmittedDeliverableID points at the deliverable under evaluation, if any.
	SubmittedDeliverableID *int64

	// CreatedAt is when the task row was created.
	CreatedAt time.Time
}

// HasStaged reports whether the task holds a staged deliverable.
func (t *Task) HasStaged() bool {
	return t.StagedDeliverableID != nil
}

// HasSubmitted reports whether the task holds a submitted deliverable.
func (t *Task) HasSubmitted() bool {
	return t.SubmittedDeliverableID != nil
}
