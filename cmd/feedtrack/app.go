package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/nao1215/feedtrack/internal/classifier"
	"github.com/nao1215/feedtrack/internal/compliance"
	"github.com/nao1215/feedtrack/internal/config"
	"github.com/nao1215/feedtrack/internal/criteria"
	"github.com/nao1215/feedtrack/internal/database"
	"github.com/nao1215/feedtrack/internal/locator"
	"github.com/nao1215/feedtrack/internal/log"
	"github.com/nao1215/feedtrack/internal/metrics"
	"github.com/nao1215/feedtrack/internal/model"
	"github.com/nao1215/feedtrack/internal/notify"
	"github.com/nao1215/feedtrack/internal/store"
	"github.com/nao1215/feedtrack/internal/submission"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"
)

var (
	errNoActor            = errors.New("no acting user: pass --user ID or --system")
	errClassifierDisabled = errors.New("classifier is not configured: set classifier.api_key or " + config.APIKeyEnv)
	errConflictingActor   = errors.New("--user and --system cannot be used together")
	errInvalidID          = errors.New("invalid ID")
)

// app holds the services a command runs against.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *database.DB
	metrics *metrics.Metrics

	notifier notify.Notifier
	redis    *notify.Redis
	async    *notify.Async

	engine    *criteria.Engine
	machine   *submission.Machine
	evaluator *compliance.Evaluator
	locator   *locator.Locator

	actor    model.Actor
	hasActor bool
	out      io.Writer
}

// loadConfig builds the configuration from the config file, the environment
// and the global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Root().PersistentFlags()

	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path, os.LookupEnv)
	if err != nil {
		return nil, err
	}

	if dbDir, _ := flags.GetString("db-dir"); dbDir != "" {
		cfg.DBDir = dbDir
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		cfg.Verbose = true
	}
	if jsonLogs, _ := flags.GetBool("json-logs"); jsonLogs {
		cfg.JSONLogs = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	if cfg.JSONLogs {
		return log.NewJSONLogger(w, cfg.Verbose)
	}
	return log.NewLogger(w, cfg.Verbose)
}

func actorFromFlags(cmd *cobra.Command) (model.Actor, bool, error) {
	flags := cmd.Root().PersistentFlags()
	userID, err := flags.GetInt64("user")
	if err != nil {
		return model.Actor{}, false, err
	}
	system, err := flags.GetBool("system")
	if err != nil {
		return model.Actor{}, false, err
	}

	switch {
	case system && userID != 0:
		return model.Actor{}, false, errConflictingActor
	case system:
		return model.SystemActor(), true, nil
	case userID > 0:
		return model.User(userID), true, nil
	default:
		return model.Actor{}, false, nil
	}
}

// newApp opens the database and wires every service.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	actor, hasActor, err := actorFromFlags(cmd)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		metrics:  metrics.New(),
		actor:    actor,
		hasActor: hasActor,
		out:      cmd.OutOrStdout(),
	}

	notifiers := notify.Multi{notify.NewLogger(logger)}
	if cfg.Redis.Enabled() {
		a.redis = notify.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, notify.WithKey(cfg.Redis.Key))
		a.async = notify.NewAsync(a.redis, notify.WithAsyncLogger(logger))
		notifiers = append(notifiers, a.async)
	}
	a.notifier = notifiers

	a.engine = criteria.New(db,
		criteria.WithLogger(logger),
		criteria.WithNotifier(a.notifier),
		criteria.WithMetrics(a.metrics),
	)
	a.machine = submission.New(db,
		submission.WithLogger(logger),
		submission.WithNotifier(a.notifier),
		submission.WithMetrics(a.metrics),
		submission.WithSignatures(cfg.AcceptedSignatures...),
		submission.WithMaxSize(cfg.MaxUploadSize),
	)

	if cfg.Classifier.Enabled() {
		client, err := classifier.New(cfg.Classifier, classifier.WithLogger(logger))
		if err != nil {
			_ = a.close()
			return nil, err
		}
		a.evaluator = compliance.New(db, client, a.engine,
			compliance.WithLogger(logger),
			compliance.WithNotifier(a.notifier),
			compliance.WithMetrics(a.metrics),
			compliance.WithTimeout(cfg.Classifier.Timeout),
			compliance.WithRetry(cfg.Classifier.MaxAttempts, cfg.Classifier.Backoff),
		)
		a.locator = &locator.Locator{Client: client, Logger: logger}
	}

	return a, nil
}

func (a *app) close() error {
	var errs []error
	if a.async != nil {
		ctx, cancel := context.WithTimeout(context.Background(), notify.DispatchTimeout)
		if err := a.async.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush notifications: %w", err))
		}
		cancel()
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.db.Close())
	return errors.Join(errs...)
}

// requireActor returns the acting user or errNoActor.
func (a *app) requireActor() (model.Actor, error) {
	if !a.hasActor {
		return model.Actor{}, errNoActor
	}
	return a.actor, nil
}

// visibleTask loads a task the actor participates in.
func (a *app) visibleTask(ctx context.Context, id int64) (*model.Task, error) {
	actor, err := a.requireActor()
	if err != nil {
		return nil, err
	}

	var task *model.Task
	err = a.db.View(ctx, func(tx store.Tx) error {
		t, err := tx.Task(ctx, id)
		if err != nil {
			return err
		}
		if t.Archived || !actor.Participates(t) {
			return fmt.Errorf("task %d: %w", id, model.ErrNotFound)
		}
		task = t
		return nil
	})
	return task, err
}

// pushMetrics sends the registry to a Pushgateway when one is configured.
func (a *app) pushMetrics(cmd *cobra.Command) {
	url, _ := cmd.Root().PersistentFlags().GetString("pushgateway")
	if url == "" {
		return
	}
	if err := push.New(url, "feedtrack").Gatherer(a.metrics.Registry()).Push(); err != nil {
		a.logger.Warn("failed to push metrics", "url", url, "error", err)
	}
}

// runWithApp wires the app, runs fn under a signal-aware context and tears
// everything down afterwards.
func runWithApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) (err error) {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		a.pushMetrics(cmd)
		if cerr := a.close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close: %w", cerr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, a)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w %q: must be a positive integer", errInvalidID, s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, s := range args {
		id, err := parseID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// exitCode maps error kinds to distinct process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return 3
	case errors.Is(err, model.ErrPreconditionFailed), errors.Is(err, model.ErrLockedTask):
		return 4
	case errors.Is(err, model.ErrValidationFailed), errors.Is(err, errInvalidID):
		return 5
	case errors.Is(err, model.ErrContractViolation), errors.Is(err, compliance.ErrClassifierUnavailable):
		return 6
	default:
		return 1
	}
}
