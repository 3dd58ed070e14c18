package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/feedtrack/internal/store"
)

// FileName is the name of the database file inside the database directory.
const FileName = "feedtrack.db"

// DB is the SQLite-backed store.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// builder renders squirrel statements with SQLite placeholders.
	builder sq.StatementBuilderType

	// now is the clock used for timestamps.
	now func() time.Time
}

var _ store.Store = (*DB)(nil)

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool

	// BusyTimeout is how long SQLite waits on a locked database before
	// failing. Zero uses the default of five seconds.
	BusyTimeout time.Duration

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
		BusyTimeout:       5 * time.Second,
	}
}

// Open opens or creates a DB inside dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	busyTimeout := opts.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}

	// mode=rw refuses to create a missing file, mode=rwc creates it.
	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	dsn := fmt.Sprintf("%s?mode=%s&_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)",
		dbPath, mode, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes transactions.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	d := &DB{
		db:      db,
		dbPath:  dbPath,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		now:     now,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := d.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (d *DB) createTables() error {
	schema := `
	-- Tasks carry the two deliverable pointers. A deliverable is referenced
	-- by at most one pointer of one task.
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'completed', 'missing')),
		is_locked INTEGER NOT NULL DEFAULT 0,
		archived INTEGER NOT NULL DEFAULT 0,
		owner_id INTEGER NOT NULL,
		supervisor_id INTEGER NOT NULL,
		staged_deliverable_id INTEGER UNIQUE
			REFERENCES deliverables(id) ON DELETE SET NULL,
		submitted_deliverable_id INTEGER UNIQUE
			REFERENCES deliverables(id) ON DELETE SET NULL,
		created_at TEXT NOT NULL,
		CHECK (staged_deliverable_id IS NULL
			OR submitted_deliverable_id IS NULL
			OR staged_deliverable_id <> submitted_deliverable_id)
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_supervisor ON tasks(supervisor_id);

	-- Deliverables store the raw document bytes.
	CREATE TABLE IF NOT EXISTS deliverables (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		filename TEXT NOT NULL,
		content_type TEXT NOT NULL,
		content BLOB NOT NULL,
		checksum TEXT NOT NULL,
		submitted_at TEXT NOT NULL,
		submitted_by INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deliverables_task ON deliverables(task_id);

	-- Feedback criteria belong to a task and go away with it.
	CREATE TABLE IF NOT EXISTS feedback_criteria (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'unmet'
			CHECK (status IN ('unmet', 'met', 'overridden')),
		change_observed TEXT,
		provided_by INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_criteria_task ON feedback_criteria(task_id);
	`

	_, err := d.db.ExecContext(context.Background(), schema)
	return err
}

// WithTx runs fn inside a read-write transaction.
func (d *DB) WithTx(ctx context.Context, fn func(tx store.Tx) error) (err error) {
	sqlTx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(d.wrap(sqlTx)); err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// View runs fn inside a transaction that is always rolled back.
func (d *DB) View(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	return fn(d.wrap(sqlTx))
}

func (d *DB) wrap(sqlTx *sql.Tx) *tx {
	return &tx{tx: sqlTx, builder: d.builder, now: d.now}
}

// tx implements store.Tx on top of a *sql.Tx.
type tx struct {
	tx      *sql.Tx
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ store.Tx = (*tx)(nil)

// exec runs a built statement.
func (t *tx) exec(ctx context.Context, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return t.tx.ExecContext(ctx, query, args...)
}

// queryRow runs a built single-row query.
func (t *tx) queryRow(ctx context.Context, b sq.Sqlizer) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return t.tx.QueryRowContext(ctx, query, args...), nil
}

// query runs a built multi-row query.
func (t *tx) query(ctx context.Context, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return t.tx.QueryContext(ctx, query, args...)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Format written by this package
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// formatTimestamp renders t the way parseTimestamp reads it back.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// nullableID converts a nullable column into a pointer.
func nullableID(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	id := n.Int64
	return &id
}

// nullableString converts a nullable column into a pointer.
func nullableString(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}

// idValue converts a pointer into a nullable query argument.
func idValue(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

// stringValue converts a pointer into a nullable query argument.
func stringValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// mustAffect turns an update that matched no row into ErrNotFound.
func mustAffect(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
