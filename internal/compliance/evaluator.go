package compliance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nao1215/feedtrack/internal/criteria"
	"github.com/nao1215/feedtrack/internal/metrics"
	"github.com/nao1215/feedtrack/internal/model"
	"github.com/nao1215/feedtrack/internal/notify"
	"github.com/nao1215/feedtrack/internal/store"
)

const (
	// DefaultTimeout bounds a single classifier attempt.
	DefaultTimeout = 2 * time.Minute

	// DefaultAttempts is the number of classifier attempts.
	DefaultAttempts = 3

	// DefaultBackoff is the wait before the first retry. It doubles for
	// every further retry.
	DefaultBackoff = time.Second
)

// Evaluator runs compliance evaluations.
type Evaluator struct {
	store      store.Store
	classifier Classifier
	engine     *criteria.Engine

	logger   *slog.Logger
	notifier notify.Notifier
	metrics  *metrics.Metrics
	now      func() time.Time

	timeout  time.Duration
	attempts int
	backoff  time.Duration

	group   singleflight.Group
	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the context shared by the callers of one in-flight evaluation.
// It is cancelled only when every waiting caller has given up.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithNotifier sets where criteria.evaluated events go.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Evaluator) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithMetrics enables instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) {
		e.metrics = m
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// WithTimeout bounds each classifier attempt.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithRetry sets the number of classifier attempts and the initial backoff.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(e *Evaluator) {
		if attempts > 0 {
			e.attempts = attempts
		}
		if backoff >= 0 {
			e.backoff = backoff
		}
	}
}

// New creates an Evaluator. Verdicts are written through engine.
func New(s store.Store, classifier Classifier, engine *criteria.Engine, opts ...Option) *Evaluator {
	e := &Evaluator{
		store:      s,
		classifier: classifier,
		engine:     engine,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		notifier:   notify.Nop{},
		now:        time.Now,
		timeout:    DefaultTimeout,
		attempts:   DefaultAttempts,
		backoff:    DefaultBackoff,
		flights:    make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// snapshot is what an evaluation reads before calling the classifier.
type snapshot struct {
	task        *model.Task
	unmet       []model.FeedbackCriterion
	stagedID    int64
	submittedID int64
	previous    []byte
	current     []byte
}

// Evaluate classifies the staged revision of a task against its unmet
// criteria and records the verdicts.
//
// The task needs at least one criterion as well as a staged and a submitted
// deliverable. When no criterion is unmet, the classifier is not called and
// the result is empty. Concurrent evaluations of the same revision share a
// single classifier call; a caller that gives up does not cancel the shared
// evaluation while another caller still waits for it.
func (e *Evaluator) Evaluate(ctx context.Context, actor model.Actor, taskID int64) (_ []model.ComplianceResult, err error) {
	defer func() { e.metrics.ObserveEvaluation(err) }()

	snap, err := e.snapshot(ctx, actor, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate task %d: %w", taskID, err)
	}
	if len(snap.unmet) == 0 {
		e.logger.InfoContext(ctx, "no unmet criteria to evaluate", "task_id", taskID)
		return []model.ComplianceResult{}, nil
	}

	key := strconv.FormatInt(taskID, 10) + "/" + strconv.FormatInt(snap.stagedID, 10)
	fl := e.join(ctx, key)
	ch := e.group.DoChan(key, func() (any, error) {
		return e.run(fl.ctx, snap)
	})

	select {
	case res := <-ch:
		e.leave(key, fl, false)
		if res.Err != nil {
			return nil, fmt.Errorf("failed to evaluate task %d: %w", taskID, res.Err)
		}
		if res.Shared {
			e.logger.DebugContext(ctx, "evaluation shared with a concurrent caller", "task_id", taskID)
		}
		// Callers sharing a flight must not alias each other's slice.
		out := res.Val.([]model.ComplianceResult)
		return append([]model.ComplianceResult(nil), out...), nil
	case <-ctx.Done():
		e.leave(key, fl, true)
		return nil, fmt.Errorf("failed to evaluate task %d: %w", taskID, ctx.Err())
	}
}

// join registers the caller with the flight for key, creating it when none
// is running. The flight context keeps the values of ctx but not its
// cancellation.
func (e *Evaluator) join(ctx context.Context, key string) *flight {
	e.mu.Lock()
	defer e.mu.Unlock()

	fl, ok := e.flights[key]
	if !ok {
		flightCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		fl = &flight{ctx: flightCtx, cancel: cancel}
		e.flights[key] = fl
	}
	fl.waiters++
	return fl
}

// leave unregisters a caller. The last caller out releases the flight; when
// it gave up early the running evaluation is cancelled and forgotten, so a
// later caller starts a fresh one.
func (e *Evaluator) leave(key string, fl *flight, abandoned bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fl.waiters--
	if fl.waiters > 0 {
		return
	}
	if e.flights[key] == fl {
		delete(e.flights, key)
	}
	fl.cancel()
	if abandoned {
		e.group.Forget(key)
	}
}

func (e *Evaluator) snapshot(ctx context.Context, actor model.Actor, taskID int64) (*snapshot, error) {
	var snap snapshot
	err := e.store.View(ctx, func(tx store.Tx) error {
		task, err := tx.Task(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Archived || !actor.Participates(task) {
			return fmt.Errorf("task %d: %w", taskID, model.ErrNotFound)
		}

		all, err := tx.Criteria(ctx, taskID)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			return fmt.Errorf("%w: task %d has no criteria", model.ErrPreconditionFailed, taskID)
		}
		if !task.HasStaged() || !task.HasSubmitted() {
			return fmt.Errorf("%w: task %d needs a staged and a submitted deliverable", model.ErrPreconditionFailed, taskID)
		}

		snap.task = task
		snap.unmet = model.Unmet(all)
		snap.stagedID = *task.StagedDeliverableID
		snap.submittedID = *task.SubmittedDeliverableID
		if len(snap.unmet) == 0 {
			return nil
		}

		previous, err := tx.Deliverable(ctx, snap.submittedID)
		if err != nil {
			return err
		}
		current, err := tx.Deliverable(ctx, snap.stagedID)
		if err != nil {
			return err
		}
		snap.previous = previous.Content
		snap.current = current.Content
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// run classifies, validates and applies. It is the unit shared between
// concurrent callers.
func (e *Evaluator) run(ctx context.Context, snap *snapshot) ([]model.ComplianceResult, error) {
	refs := make([]model.CriterionRef, 0, len(snap.unmet))
	for i := range snap.unmet {
		refs = append(refs, snap.unmet[i].Ref())
	}

	results, err := e.classify(ctx, Request{
		TaskTitle:       snap.task.Title,
		TaskDescription: snap.task.Description,
		Criteria:        refs,
		Previous:        snap.previous,
		Current:         snap.current,
	})
	if err != nil {
		return nil, err
	}

	if err := ValidateResults(results, snap.unmet); err != nil {
		e.logger.WarnContext(ctx, "classifier broke its contract",
			"task_id", snap.task.ID,
			"requested", len(snap.unmet),
			"returned", len(results),
			"error", err,
		)
		return nil, err
	}

	err = e.store.WithTx(ctx, func(tx store.Tx) error {
		task, err := tx.Task(ctx, snap.task.ID)
		if err != nil {
			return err
		}
		if task.StagedDeliverableID == nil || *task.StagedDeliverableID != snap.stagedID ||
			task.SubmittedDeliverableID == nil || *task.SubmittedDeliverableID != snap.submittedID {
			return fmt.Errorf("%w: deliverables of task %d changed during evaluation", model.ErrPreconditionFailed, task.ID)
		}

		current, err := tx.Criteria(ctx, task.ID)
		if err != nil {
			return err
		}
		status := make(map[int64]model.CriterionStatus, len(current))
		for _, c := range current {
			status[c.ID] = c.Status
		}
		for _, c := range snap.unmet {
			if status[c.ID] != model.CriterionUnmet {
				return fmt.Errorf("%w: criterion %d changed during evaluation", model.ErrPreconditionFailed, c.ID)
			}
		}

		_, err = e.engine.ApplyResults(ctx, tx, task.ID, results)
		return err
	})
	if err != nil {
		return nil, err
	}

	met := 0
	for _, r := range results {
		if r.Status == model.CriterionMet {
			met++
		}
	}
	e.logger.InfoContext(ctx, "criteria evaluated",
		"task_id", snap.task.ID,
		"evaluated", len(results),
		"met", met,
	)

	ev := notify.NewEvent(notify.KindCriteriaEvaluated, snap.task.ID, snap.task.SupervisorID, e.now()).
		With("evaluated", len(results)).
		With("met", met)
	notify.Dispatch(ctx, e.notifier, e.logger, ev)

	return results, nil
}

// classify calls the classifier with a per-attempt timeout, retrying
// transient failures with exponential backoff. Contract violations and
// rejected requests are not retried.
func (e *Evaluator) classify(ctx context.Context, req Request) ([]model.ComplianceResult, error) {
	var lastErr error
	backoff := e.backoff

	for attempt := 1; attempt <= e.attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
		started := e.now()
		results, err := e.classifier.Classify(attemptCtx, req)
		cancel()
		e.metrics.ObserveClassifier("classify", started, err)

		if err == nil {
			return results, nil
		}
		if errors.Is(err, model.ErrContractViolation) {
			return nil, err
		}
		if errors.Is(err, ErrClassifierRejected) {
			return nil, fmt.Errorf("%w: %w", ErrClassifierUnavailable, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		lastErr = err
		e.logger.WarnContext(ctx, "classifier attempt failed",
			"attempt", attempt,
			"max_attempts", e.attempts,
			"error", err,
		)
		if attempt == e.attempts {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrClassifierUnavailable, e.attempts, lastErr)
}

// ValidateResults checks that results answer exactly the unmet criteria:
// one result per criterion, no foreign IDs, statuses met or unmet.
func ValidateResults(results []model.ComplianceResult, unmet []model.FeedbackCriterion) error {
	if len(results) != len(unmet) {
		return fmt.Errorf("%w: expected %d results, got %d", model.ErrContractViolation, len(unmet), len(results))
	}

	want := make(map[int64]bool, len(unmet))
	for _, c := range unmet {
		want[c.ID] = false
	}

	for _, r := range results {
		answered, ok := want[r.CriterionID]
		if !ok {
			return fmt.Errorf("%w: unexpected criterion %d", model.ErrContractViolation, r.CriterionID)
		}
		if answered {
			return fmt.Errorf("%w: criterion %d answered twice", model.ErrContractViolation, r.CriterionID)
		}
		if r.Status != model.CriterionMet && r.Status != model.CriterionUnmet {
			return fmt.Errorf("%w: criterion %d has status %q", model.ErrContractViolation, r.CriterionID, r.Status)
		}
		want[r.CriterionID] = true
	}
	return nil
}
