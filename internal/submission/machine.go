package submission

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/feedtrack/internal/metrics"
	"github.com/nao1215/feedtrack/internal/model"
	"github.com/nao1215/feedtrack/internal/notify"
	"github.com/nao1215/feedtrack/internal/store"
)

// DefaultSignature is the magic prefix of a PDF file.
const DefaultSignature = "%PDF-"

// DefaultMaxSize is the largest accepted upload.
const DefaultMaxSize int64 = 50 << 20

// Machine runs deliverable transitions.
type Machine struct {
	store      store.Store
	logger     *slog.Logger
	notifier   notify.Notifier
	metrics    *metrics.Metrics
	now        func() time.Time
	signatures [][]byte
	maxSize    int64
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithNotifier sets where deliverable.submitted events go.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Machine) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithMetrics enables instrumentation.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Machine) {
		m.metrics = mt
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSignatures replaces the accepted document signatures.
// Uploads must start with one of them.
func WithSignatures(signatures ...string) Option {
	return func(m *Machine) {
		var sigs [][]byte
		for _, s := range signatures {
			if s != "" {
				sigs = append(sigs, []byte(s))
			}
		}
		if len(sigs) > 0 {
			m.signatures = sigs
		}
	}
}

// WithMaxSize sets the largest accepted upload in bytes.
func WithMaxSize(n int64) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxSize = n
		}
	}
}

// New creates a Machine on top of s.
func New(s store.Store, opts ...Option) *Machine {
	m := &Machine{
		store:      s,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		notifier:   notify.Nop{},
		now:        time.Now,
		signatures: [][]byte{[]byte(DefaultSignature)},
		maxSize:    DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// UploadRequest is a student upload.
type UploadRequest struct {
	TaskID      int64
	Filename    string
	ContentType string
	Content     []byte
}

// SubmitResult reports what Submit changed.
type SubmitResult struct {
	// Submitted is the promoted deliverable ID.
	Submitted int64

	// Superseded is the deleted previous submission, if any.
	Superseded *int64

	// Overridden lists the criteria that were unmet before the submission.
	Overridden []int64
}

// ownedTask loads a task the actor owns.
func ownedTask(ctx context.Context, tx store.Tx, actor model.Actor, taskID int64) (*model.Task, error) {
	task, err := tx.Task(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Archived || !actor.Owns(task) {
		return nil, fmt.Errorf("task %d: %w", taskID, model.ErrNotFound)
	}
	return task, nil
}

// visibleTask loads a task the actor owns or supervises.
func visibleTask(ctx context.Context, tx store.Tx, actor model.Actor, taskID int64) (*model.Task, error) {
	task, err := tx.Task(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Archived || !actor.Participates(task) {
		return nil, fmt.Errorf("task %d: %w", taskID, model.ErrNotFound)
	}
	return task, nil
}

// validate checks the document before anything touches the store.
func (m *Machine) validate(req *UploadRequest) error {
	if len(req.Content) == 0 {
		return fmt.Errorf("%w: empty document", model.ErrValidationFailed)
	}
	if int64(len(req.Content)) > m.maxSize {
		return fmt.Errorf("%w: document is %d bytes, limit is %d", model.ErrValidationFailed, len(req.Content), m.maxSize)
	}

	matched := false
	for _, sig := range m.signatures {
		if bytes.HasPrefix(req.Content, sig) {
			matched = true
			break
		}
	}
	if !matched {
		return fmt.Errorf("%w: unexpected document signature", model.ErrValidationFailed)
	}

	name := strings.TrimSpace(filepath.Base(req.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("%w: missing filename", model.ErrValidationFailed)
	}
	req.Filename = name

	if req.ContentType == "" {
		req.ContentType = http.DetectContentType(req.Content)
	}
	return nil
}

// Upload stores a new staged deliverable. It fails when one is already staged.
func (m *Machine) Upload(ctx context.Context, actor model.Actor, req UploadRequest) (d *model.Deliverable, err error) {
	defer func() { m.metrics.ObserveUpload(err) }()

	if err := m.validate(&req); err != nil {
		return nil, fmt.Errorf("failed to upload deliverable: %w", err)
	}

	err = m.store.WithTx(ctx, func(tx store.Tx) error {
		task, err := ownedTask(ctx, tx, actor, req.TaskID)
		if err != nil {
			return err
		}
		if task.HasStaged() {
			return fmt.Errorf("%w: task %d already has a staged deliverable", model.ErrPreconditionFailed, task.ID)
		}

		uploader := actor.UserID
		if actor.System {
			uploader = task.OwnerID
		}
		d = &model.Deliverable{
			TaskID:      task.ID,
			Filename:    req.Filename,
			ContentType: req.ContentType,
			Content:     req.Content,
			Checksum:    model.Checksum(req.Content),
			SubmittedAt: m.now(),
			SubmittedBy: uploader,
		}
		if err := tx.InsertDeliverable(ctx, d); err != nil {
			return err
		}
		return tx.SetStaged(ctx, task.ID, &d.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload deliverable: %w", err)
	}

	m.logger.InfoContext(ctx, "deliverable staged",
		"task_id", req.TaskID,
		"deliverable_id", d.ID,
		"filename", d.Filename,
		"bytes", d.Size(),
	)
	return d, nil
}

// RemoveStaged deletes the staged deliverable.
func (m *Machine) RemoveStaged(ctx context.Context, actor model.Actor, taskID int64) error {
	var removed int64
	err := m.store.WithTx(ctx, func(tx store.Tx) error {
		task, err := ownedTask(ctx, tx, actor, taskID)
		if err != nil {
			return err
		}
		if !task.HasStaged() {
			return fmt.Errorf("%w: task %d has no staged deliverable", model.ErrPreconditionFailed, task.ID)
		}

		removed = *task.StagedDeliverableID
		if err := tx.SetStaged(ctx, task.ID, nil); err != nil {
			return err
		}
		return tx.DeleteDeliverable(ctx, removed)
	})
	if err != nil {
		return fmt.Errorf("failed to remove staged deliverable: %w", err)
	}

	m.logger.InfoContext(ctx, "staged deliverable removed", "task_id", taskID, "deliverable_id", removed)
	return nil
}

// Submit promotes the staged deliverable to submitted.
func (m *Machine) Submit(ctx context.Context, actor model.Actor, taskID int64) (result *SubmitResult, err error) {
	defer func() { m.metrics.ObserveSubmit(err) }()

	var task *model.Task
	err = m.store.WithTx(ctx, func(tx store.Tx) error {
		// The task is re-read inside the write transaction, so a concurrent
		// submit that already promoted the staged deliverable is seen here.
		t, err := ownedTask(ctx, tx, actor, taskID)
		if err != nil {
			return err
		}
		task = t
		if task.IsLocked {
			return fmt.Errorf("task %d: %w", task.ID, model.ErrLockedTask)
		}
		if !task.HasStaged() {
			return fmt.Errorf("%w: task %d has no staged deliverable", model.ErrPreconditionFailed, task.ID)
		}

		criteria, err := tx.Criteria(ctx, task.ID)
		if err != nil {
			return err
		}
		res := &SubmitResult{Submitted: *task.StagedDeliverableID}
		for _, c := range model.Unmet(criteria) {
			c.Status = model.CriterionOverridden
			if err := tx.UpdateCriterion(ctx, &c); err != nil {
				return err
			}
			res.Overridden = append(res.Overridden, c.ID)
		}

		res.Superseded = task.SubmittedDeliverableID
		if err := tx.SetStaged(ctx, task.ID, nil); err != nil {
			return err
		}
		if err := tx.SetSubmitted(ctx, task.ID, &res.Submitted); err != nil {
			return err
		}
		if res.Superseded != nil {
			if err := tx.DeleteDeliverable(ctx, *res.Superseded); err != nil {
				return err
			}
		}
		if err := tx.SetTaskStatus(ctx, task.ID, model.TaskCompleted); err != nil {
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit task %d: %w", taskID, err)
	}

	m.logger.InfoContext(ctx, "deliverable submitted",
		"task_id", taskID,
		"deliverable_id", result.Submitted,
		"overridden", len(result.Overridden),
	)

	ev := notify.NewEvent(notify.KindDeliverableSubmitted, task.ID, task.SupervisorID, m.now()).
		With("deliverable_id", result.Submitted).
		With("overridden", len(result.Overridden))
	notify.Dispatch(ctx, m.notifier, m.logger, ev)

	return result, nil
}

// SetLocked sets or clears the supervisor lock that blocks submissions.
func (m *Machine) SetLocked(ctx context.Context, actor model.Actor, taskID int64, locked bool) error {
	err := m.store.WithTx(ctx, func(tx store.Tx) error {
		task, err := tx.Task(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Archived || !actor.Supervises(task) {
			return fmt.Errorf("task %d: %w", taskID, model.ErrNotFound)
		}
		return tx.SetTaskLocked(ctx, taskID, locked)
	})
	if err != nil {
		return fmt.Errorf("failed to set lock of task %d: %w", taskID, err)
	}

	m.logger.InfoContext(ctx, "task lock changed", "task_id", taskID, "locked", locked)
	return nil
}

// State returns the deliverable state of a task.
func (m *Machine) State(ctx context.Context, actor model.Actor, taskID int64) (State, error) {
	var state State
	err := m.store.View(ctx, func(tx store.Tx) error {
		task, err := visibleTask(ctx, tx, actor, taskID)
		if err != nil {
			return err
		}
		state = StateOf(task)
		return nil
	})
	if err != nil {
		return NoStagedNoSubmitted, fmt.Errorf("failed to read state of task %d: %w", taskID, err)
	}
	return state, nil
}

// Staged returns the staged deliverable of a task.
func (m *Machine) Staged(ctx context.Context, actor model.Actor, taskID int64) (*model.Deliverable, error) {
	return m.deliverable(ctx, actor, taskID, "staged", func(t *model.Task) *int64 { return t.StagedDeliverableID })
}

// Submitted returns the submitted deliverable of a task.
func (m *Machine) Submitted(ctx context.Context, actor model.Actor, taskID int64) (*model.Deliverable, error) {
	return m.deliverable(ctx, actor, taskID, "submitted", func(t *model.Task) *int64 { return t.SubmittedDeliverableID })
}

func (m *Machine) deliverable(ctx context.Context, actor model.Actor, taskID int64, slot string, pick func(*model.Task) *int64) (*model.Deliverable, error) {
	var d *model.Deliverable
	err := m.store.View(ctx, func(tx store.Tx) error {
		task, err := visibleTask(ctx, tx, actor, taskID)
		if err != nil {
			return err
		}
		id := pick(task)
		if id == nil {
			return fmt.Errorf("%s deliverable of task %d: %w", slot, taskID, model.ErrNotFound)
		}
		d, err = tx.Deliverable(ctx, *id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s deliverable: %w", slot, err)
	}
	return d, nil
}
