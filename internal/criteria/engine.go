package criteria

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/feedtrack/internal/metrics"
	"github.com/nao1215/feedtrack/internal/model"
	"github.com/nao1215/feedtrack/internal/notify"
	"github.com/nao1215/feedtrack/internal/store"
)

// Engine manages feedback criteria.
type Engine struct {
	store    store.Store
	logger   *slog.Logger
	notifier notify.Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithNotifier sets where criteria.provided events go.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithMetrics enables instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Engine on top of s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		notifier: notify.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProvideRequest bundles the three sub-operations of Provide.
type ProvideRequest struct {
	// Creates are descriptions of new criteria.
	Creates []string

	// Updates are field-level patches of existing criteria.
	Updates []model.CriterionPatch

	// Deletes are IDs of criteria to remove.
	Deletes []int64
}

// Empty reports whether the request asks for nothing.
func (r ProvideRequest) Empty() bool {
	return len(r.Creates) == 0 && len(r.Updates) == 0 && len(r.Deletes) == 0
}

// ProvideResult reports what Provide changed.
type ProvideResult struct {
	Created []model.FeedbackCriterion
	Updated []model.FeedbackCriterion
	Deleted int64
}

// supervisedTask loads a task the actor supervises.
// Archived and foreign tasks are reported as not found.
func supervisedTask(ctx context.Context, tx store.Tx, actor model.Actor, taskID int64) (*model.Task, error) {
	task, err := tx.Task(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Archived || !actor.Supervises(task) {
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

// List returns the criteria of a task the actor participates in.
func (e *Engine) List(ctx context.Context, actor model.Actor, taskID int64) ([]model.FeedbackCriterion, error) {
	var criteria []model.FeedbackCriterion
	err := e.store.View(ctx, func(tx store.Tx) error {
		if _, err := visibleTask(ctx, tx, actor, taskID); err != nil {
			return err
		}
		var err error
		criteria, err = tx.Criteria(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list criteria: %w", err)
	}
	return criteria, nil
}

// Create adds one unmet criterion per description.
// The task must have a submitted deliverable for the criteria to refer to.
func (e *Engine) Create(ctx context.Context, actor model.Actor, taskID int64, descriptions []string) ([]model.FeedbackCriterion, error) {
	if len(descriptions) == 0 {
		return nil, fmt.Errorf("failed to create criteria: %w: no descriptions", model.ErrValidationFailed)
	}

	result, err := e.Provide(ctx, actor, taskID, ProvideRequest{Creates: descriptions})
	if err != nil {
		return nil, err
	}
	return result.Created, nil
}

// Update applies field-level patches. Every patched ID must be a criterion
// of the task and appear only once.
func (e *Engine) Update(ctx context.Context, actor model.Actor, taskID int64, patches []model.CriterionPatch) ([]model.FeedbackCriterion, error) {
	if len(patches) == 0 {
		return nil, fmt.Errorf("failed to update criteria: %w: no patches", model.ErrValidationFailed)
	}

	result, err := e.Provide(ctx, actor, taskID, ProvideRequest{Updates: patches})
	if err != nil {
		return nil, err
	}
	return result.Updated, nil
}

// Delete removes the listed criteria of a task and reports how many were
// removed. IDs that are not criteria of the task are ignored. It fails when
// the task has no criteria at all.
func (e *Engine) Delete(ctx context.Context, actor model.Actor, taskID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("failed to delete criteria: %w: no ids", model.ErrValidationFailed)
	}

	result, err := e.Provide(ctx, actor, taskID, ProvideRequest{Deletes: ids})
	if err != nil {
		return 0, err
	}
	return result.Deleted, nil
}

// Provide runs create, update and delete as one atomic unit.
// Empty sub-operations are skipped. Any failure rolls back all three.
func (e *Engine) Provide(ctx context.Context, actor model.Actor, taskID int64, req ProvideRequest) (*ProvideResult, error) {
	if req.Empty() {
		return nil, fmt.Errorf("failed to provide criteria: %w: empty request", model.ErrValidationFailed)
	}

	var (
		result ProvideResult
		task   *model.Task
	)
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		task, err = supervisedTask(ctx, tx, actor, taskID)
		if err != nil {
			return err
		}

		if len(req.Creates) > 0 {
			if result.Created, err = e.create(ctx, tx, actor, task, req.Creates); err != nil {
				return err
			}
		}
		if len(req.Updates) > 0 {
			if result.Updated, err = e.update(ctx, tx, task.ID, req.Updates); err != nil {
				return err
			}
		}
		if len(req.Deletes) > 0 {
			if result.Deleted, err = e.delete(ctx, tx, task.ID, req.Deletes); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to provide criteria for task %d: %w", taskID, err)
	}

	e.metrics.ObserveCriteria("create", len(result.Created))
	e.metrics.ObserveCriteria("update", len(result.Updated))
	e.metrics.ObserveCriteria("delete", int(result.Deleted))

	e.logger.InfoContext(ctx, "criteria provided",
		"task_id", taskID,
		"created", len(result.Created),
		"updated", len(result.Updated),
		"deleted", result.Deleted,
	)

	if len(result.Created) > 0 || len(result.Updated) > 0 {
		ev := notify.NewEvent(notify.KindCriteriaProvided, task.ID, task.OwnerID, e.now()).
			With("created", len(result.Created)).
			With("updated", len(result.Updated))
		notify.Dispatch(ctx, e.notifier, e.logger, ev)
	}

	return &result, nil
}

// ToggleOverride flips a criterion between unmet and overridden.
// Met criteria are rejected.
func (e *Engine) ToggleOverride(ctx context.Context, actor model.Actor, criterionID int64) (*model.FeedbackCriterion, error) {
	var toggled *model.FeedbackCriterion
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		c, err := tx.Criterion(ctx, criterionID)
		if err != nil {
			return err
		}
		if _, err := supervisedTask(ctx, tx, actor, c.TaskID); err != nil {
			return err
		}

		next, err := c.Status.Toggled()
		if err != nil {
			return err
		}
		c.Status = next
		if err := tx.UpdateCriterion(ctx, c); err != nil {
			return err
		}
		toggled = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to toggle criterion %d: %w", criterionID, err)
	}

	e.metrics.ObserveCriteria("toggle", 1)
	e.logger.InfoContext(ctx, "criterion override toggled",
		"criterion_id", criterionID,
		"status", string(toggled.Status),
	)
	return toggled, nil
}

// ApplyResults writes classifier verdicts inside the caller's transaction.
// It runs with system privileges: ownership is not checked, but every
// result must still refer to a distinct criterion of the task.
func (e *Engine) ApplyResults(ctx context.Context, tx store.Tx, taskID int64, results []model.ComplianceResult) ([]model.FeedbackCriterion, error) {
	if _, err := supervisedTask(ctx, tx, model.SystemActor(), taskID); err != nil {
		return nil, err
	}

	patches := make([]model.CriterionPatch, 0, len(results))
	for _, r := range results {
		if r.Status != model.CriterionMet && r.Status != model.CriterionUnmet {
			return nil, fmt.Errorf("%w: criterion %d has status %q", model.ErrContractViolation, r.CriterionID, r.Status)
		}
		patches = append(patches, r.Patch())
	}

	updated, err := e.update(ctx, tx, taskID, patches)
	if err != nil {
		return nil, err
	}
	e.logger.DebugContext(ctx, "classifier results applied", "task_id", taskID, "count", len(updated))
	return updated, nil
}

func (e *Engine) create(ctx context.Context, tx store.Tx, actor model.Actor, task *model.Task, descriptions []string) ([]model.FeedbackCriterion, error) {
	if !task.HasSubmitted() {
		return nil, fmt.Errorf("%w: task %d has no submitted deliverable", model.ErrPreconditionFailed, task.ID)
	}

	providedBy := actor.UserID
	if actor.System {
		providedBy = task.SupervisorID
	}

	created := make([]model.FeedbackCriterion, 0, len(descriptions))
	for i, desc := range descriptions {
		desc = strings.TrimSpace(desc)
		if desc == "" {
			return nil, fmt.Errorf("%w: description %d is empty", model.ErrValidationFailed, i)
		}

		c := model.FeedbackCriterion{
			TaskID:      task.ID,
			Description: desc,
			Status:      model.CriterionUnmet,
			ProvidedBy:  providedBy,
			CreatedAt:   e.now(),
		}
		if err := tx.InsertCriterion(ctx, &c); err != nil {
			return nil, err
		}
		created = append(created, c)
	}
	return created, nil
}

// update applies patches after checking them against the task's criteria.
// Overridden is never written here; it is reserved to the submission cascade
// and ToggleOverride.
func (e *Engine) update(ctx context.Context, tx store.Tx, taskID int64, patches []model.CriterionPatch) ([]model.FeedbackCriterion, error) {
	existing, err := tx.Criteria(ctx, taskID)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*model.FeedbackCriterion, len(existing))
	for i := range existing {
		byID[existing[i].ID] = &existing[i]
	}

	seen := make(map[int64]struct{}, len(patches))
	for _, p := range patches {
		if _, ok := byID[p.ID]; !ok {
			return nil, fmt.Errorf("criterion %d of task %d: %w", p.ID, taskID, model.ErrNotFound)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("criterion %d patched twice: %w", p.ID, model.ErrNotFound)
		}
		seen[p.ID] = struct{}{}

		if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
			return nil, fmt.Errorf("%w: criterion %d description is empty", model.ErrValidationFailed, p.ID)
		}
		if p.Status != nil {
			if !p.Status.Valid() {
				return nil, fmt.Errorf("%w: criterion %d status %q", model.ErrValidationFailed, p.ID, *p.Status)
			}
			if *p.Status == model.CriterionOverridden {
				return nil, fmt.Errorf("%w: criterion %d cannot be set to overridden, toggle it instead", model.ErrValidationFailed, p.ID)
			}
		}
	}

	updated := make([]model.FeedbackCriterion, 0, len(patches))
	for _, p := range patches {
		c := byID[p.ID]
		if p.Description != nil {
			c.Description = strings.TrimSpace(*p.Description)
		}
		if p.Status != nil {
			c.Status = *p.Status
		}
		if p.ChangeObserved != nil {
			observed := *p.ChangeObserved
			c.ChangeObserved = &observed
		}
		if err := tx.UpdateCriterion(ctx, c); err != nil {
			return nil, err
		}
		updated = append(updated, *c)
	}
	return updated, nil
}

func (e *Engine) delete(ctx context.Context, tx store.Tx, taskID int64, ids []int64) (int64, error) {
	count, err := tx.CountCriteria(ctx, taskID)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: task %d has no criteria", model.ErrPreconditionFailed, taskID)
	}
	return tx.DeleteCriteria(ctx, taskID, ids)
}
