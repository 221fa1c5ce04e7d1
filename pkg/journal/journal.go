// Package journal keeps an SQLite audit log of displaywatcher runs.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/supporttools/displaywatcher/pkg/types"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Logger provides optional logging functionality for the journal.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// RunRecord is one stored run.
type RunRecord struct {
	ID               int64
	StartedAt        time.Time
	FinishedAt       time.Time
	Hostname         string
	Outcome          types.Outcome
	Healthy          *bool
	PreviousAttempts int
	Attempts         int
	MaxReboots       int
	ErrorKind        string
	ErrorMessage     string
	DryRun           bool
}

// Duration returns how long the run took.
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Journal implements types.Exporter on top of SQLite.
type Journal struct {
	db        *sql.DB
	path      string
	retention time.Duration
	logger    Logger
	now       func() time.Time
	mu        sync.Mutex
}

// Open opens (creating if needed) the journal database and runs migrations.
func Open(ctx context.Context, config types.JournalConfig, log Logger) (*Journal, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("journal path cannot be empty")
	}
	if config.Retention <= 0 {
		return nil, fmt.Errorf("journal retention must be positive, got %v", config.Retention)
	}

	if config.Path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer; one connection also keeps an
	// in-memory database alive for the lifetime of the journal.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	j := &Journal{
		db:        db,
		path:      config.Path,
		retention: config.Retention,
		logger:    log,
		now:       time.Now,
	}

	if err := j.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return j, nil
}

func (j *Journal) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			hostname TEXT NOT NULL,
			outcome TEXT NOT NULL,
			healthy INTEGER,
			previous_attempts INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			max_reboots INTEGER NOT NULL,
			error_kind TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			dry_run INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for i, migration := range migrations {
		if _, err := j.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO schema_version (version, applied_at) VALUES (1, CURRENT_TIMESTAMP)`)
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// Path returns the database location.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the database connection.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

// ExportRun stores report and prunes rows older than the retention.
func (j *Journal) ExportRun(ctx context.Context, report *types.RunReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if err := j.insert(ctx, report); err != nil {
		return err
	}

	deleted, err := j.Cleanup(ctx)
	if err != nil {
		return err
	}
	if deleted > 0 && j.logger != nil {
		j.logger.Infof("Pruned %d journal entries older than %v", deleted, j.retention)
	}
	return nil
}

func (j *Journal) insert(ctx context.Context, report *types.RunReport) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return fmt.Errorf("journal is closed")
	}

	var healthy sql.NullBool
	if report.Healthy != nil {
		healthy = sql.NullBool{Bool: *report.Healthy, Valid: true}
	}

	var errorKind string
	if report.ErrorKind != types.ErrorKindNone {
		errorKind = report.ErrorKind.String()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (started_at, finished_at, hostname, outcome, healthy,
			previous_attempts, attempts, max_reboots, error_kind, error_message, dry_run)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.StartedAt.UnixNano(),
		report.FinishedAt.UnixNano(),
		report.Hostname,
		string(report.Outcome),
		healthy,
		report.PreviousAttempts,
		report.Attempts,
		report.MaxReboots,
		errorKind,
		report.ErrorMessage,
		report.DryRun,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (j *Journal) RecentRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return nil, fmt.Errorf("journal is closed")
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, hostname, outcome, healthy,
			previous_attempts, attempts, max_reboots, error_kind, error_message, dry_run
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		var (
			r                 RunRecord
			started, finished int64
			outcome           string
			healthy           sql.NullBool
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Hostname, &outcome, &healthy,
			&r.PreviousAttempts, &r.Attempts, &r.MaxReboots, &r.ErrorKind, &r.ErrorMessage, &r.DryRun); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started)
		r.FinishedAt = time.Unix(0, finished)
		r.Outcome = types.Outcome(outcome)
		if healthy.Valid {
			v := healthy.Bool
			r.Healthy = &v
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return records, nil
}

// Count returns the number of stored runs.
func (j *Journal) Count(ctx context.Context) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return 0, fmt.Errorf("journal is closed")
	}

	var count int64
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// Cleanup deletes runs that started before now minus the retention.
func (j *Journal) Cleanup(ctx context.Context) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return 0, fmt.Errorf("journal is closed")
	}

	cutoff := j.now().Add(-j.retention)
	result, err := j.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old runs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted row count: %w", err)
	}
	return deleted, nil
}
