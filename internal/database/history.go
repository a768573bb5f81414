package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/reconkit/orgscan/internal/model"
)

// Run kinds stored in the history database.
const (
	RunKindEnterprise = "enterprise"
	RunKindSearch     = "search"
)

// HistoryDB provides SQLite-based storage for collection runs.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all runs rather
// than separate files per run. This simplifies history queries and
// backup/restore operations.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "orgscan.db")

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

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Runs store one record per batch or search invocation, with the
	-- full report serialized as JSON for lossless reload.
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		query TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		total INTEGER DEFAULT 0,
		done INTEGER DEFAULT 0,
		partial INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		cancelled INTEGER DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Target outcomes track per-company results within a batch run.
	CREATE TABLE IF NOT EXISTS target_outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		target TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON target_outcomes(run_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_target ON target_outcomes(target);

	-- Entries store normalized search results. The fingerprint keeps a
	-- run free of duplicates even when backends overlap.
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		fingerprint TEXT NOT NULL,
		host TEXT,
		ip TEXT,
		port INTEGER,
		title TEXT,
		country TEXT,
		city TEXT,
		server TEXT,
		backend TEXT NOT NULL,
		UNIQUE(run_id, fingerprint)
	);

	CREATE INDEX IF NOT EXISTS idx_entries_run ON entries(run_id);
	CREATE INDEX IF NOT EXISTS idx_entries_ip ON entries(ip);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveBatchRun persists an enterprise batch report and its per-target
// outcomes. It returns the new run's database ID.
func (hdb *HistoryDB) SaveBatchRun(ctx context.Context, report *model.BatchReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (kind, started_at, finished_at, total, done, partial, failed, cancelled, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		RunKindEnterprise,
		report.StartedAt.UTC().Format(time.RFC3339),
		report.FinishedAt.UTC().Format(time.RFC3339),
		report.Total,
		report.Done,
		report.Partial,
		report.Failed,
		boolToInt(report.Cancelled),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, outcome := range report.Outcomes {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO target_outcomes (run_id, target, status, message)
		VALUES (?, ?, ?, ?)
		`, runID, outcome.Target.Name, string(outcome.Status), outcome.Message); err != nil {
			return 0, fmt.Errorf("failed to insert target outcome: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// SaveSearchRun persists a search report and its merged entries.
// It returns the new run's database ID.
func (hdb *HistoryDB) SaveSearchRun(ctx context.Context, report *model.SearchReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	succeeded := report.Succeeded()
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (kind, query, started_at, finished_at, total, done, failed, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		RunKindSearch,
		report.Query,
		report.StartedAt.UTC().Format(time.RFC3339),
		report.FinishedAt.UTC().Format(time.RFC3339),
		len(report.Results),
		succeeded,
		len(report.Results)-succeeded,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	// OR IGNORE: backends may overlap; the fingerprint already
	// identifies the endpoint.
	for _, entry := range report.Entries {
		if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO entries (run_id, fingerprint, host, ip, port, title, country, city, server, backend)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			runID,
			entry.Fingerprint(),
			entry.Host,
			entry.IP,
			entry.Port,
			entry.Title,
			entry.Country,
			entry.City,
			entry.Server,
			entry.Backend,
		); err != nil {
			return 0, fmt.Errorf("failed to insert entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying history without loading the full report.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Kind is RunKindEnterprise or RunKindSearch.
	Kind string

	// Query is the search query, empty for enterprise runs.
	Query string

	// StartedAt is when the run began.
	StartedAt time.Time

	// Total, Done, Partial, and Failed summarize the run.
	Total   int
	Done    int
	Partial int
	Failed  int

	// Cancelled is true when the run was interrupted.
	Cancelled bool
}

// ListRuns returns stored runs, most recent first, up to limit.
// A non-positive limit returns everything.
func (hdb *HistoryDB) ListRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, kind, COALESCE(query, ''), started_at, total, done, partial, failed, cancelled
	FROM runs
	ORDER BY started_at DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var startedAt string
		var cancelled int

		if err := rows.Scan(
			&meta.ID,
			&meta.Kind,
			&meta.Query,
			&startedAt,
			&meta.Total,
			&meta.Done,
			&meta.Partial,
			&meta.Failed,
			&cancelled,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.StartedAt = parseTimestamp(startedAt)
		meta.Cancelled = cancelled != 0
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetBatchRun retrieves a stored enterprise batch report by run ID.
// It returns nil without error when the run does not exist.
func (hdb *HistoryDB) GetBatchRun(ctx context.Context, id int64) (*model.BatchReport, error) {
	reportJSON, err := hdb.reportJSON(ctx, id, RunKindEnterprise)
	if err != nil || reportJSON == "" {
		return nil, err
	}

	var report model.BatchReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// GetSearchRun retrieves a stored search report by run ID.
// It returns nil without error when the run does not exist.
func (hdb *HistoryDB) GetSearchRun(ctx context.Context, id int64) (*model.SearchReport, error) {
	reportJSON, err := hdb.reportJSON(ctx, id, RunKindSearch)
	if err != nil || reportJSON == "" {
		return nil, err
	}

	var report model.SearchReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// reportJSON loads the serialized report of one run of the given kind.
func (hdb *HistoryDB) reportJSON(ctx context.Context, id int64, kind string) (string, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx,
		`SELECT report_json FROM runs WHERE id = ? AND kind = ?`, id, kind,
	).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get run: %w", err)
	}
	return reportJSON, nil
}

// RunEntries returns the normalized entries stored for a search run.
func (hdb *HistoryDB) RunEntries(ctx context.Context, runID int64) ([]model.Entry, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT host, ip, port, title, country, city, server, backend
	FROM entries
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.Host, &e.IP, &e.Port, &e.Title, &e.Country, &e.City, &e.Server, &e.Backend); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// TargetHistory returns the stored outcomes of one company across runs,
// most recent run first.
func (hdb *HistoryDB) TargetHistory(ctx context.Context, target string) ([]RunMetadata, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT r.id, r.kind, COALESCE(r.query, ''), r.started_at, r.total, r.done, r.partial, r.failed, r.cancelled
	FROM runs r
	JOIN target_outcomes o ON o.run_id = r.id
	WHERE o.target = ?
	ORDER BY r.started_at DESC, r.id DESC
	`, target)
	if err != nil {
		return nil, fmt.Errorf("failed to query target history: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var startedAt string
		var cancelled int

		if err := rows.Scan(
			&meta.ID,
			&meta.Kind,
			&meta.Query,
			&startedAt,
			&meta.Total,
			&meta.Done,
			&meta.Partial,
			&meta.Failed,
			&cancelled,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.StartedAt = parseTimestamp(startedAt)
		meta.Cancelled = cancelled != 0
		results = append(results, meta)
	}

	return results, rows.Err()
}

// boolToInt stores booleans the SQLite way.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,              // our insert format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
