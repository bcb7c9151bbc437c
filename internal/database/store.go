package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/leakscan/internal/model"
	"github.com/nao1215/leakscan/internal/scope"
)

// FileName is the database file created inside the data directory.
const FileName = "leakscan.db"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// Store provides SQLite-based storage for run history.
// One database file holds every run so that runs can be compared.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		target_count INTEGER NOT NULL,
		finding_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_targets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		target TEXT NOT NULL,
		pages_fetched INTEGER NOT NULL,
		pages_failed INTEGER NOT NULL,
		finding_count INTEGER NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_run_targets_target ON run_targets(target);

	-- seq keeps the in-run order of findings
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		target TEXT,
		type TEXT NOT NULL,
		url TEXT NOT NULL,
		evidence TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	CREATE INDEX IF NOT EXISTS idx_findings_target ON findings(target);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Run is one completed run to be stored.
type Run struct {
	// Version is the leakscan version that produced the run.
	Version string

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run ended.
	FinishedAt time.Time

	// Targets holds per-target counters. Nil entries are skipped.
	Targets []*model.TargetReport

	// Findings is the ordered findings sequence of the run.
	Findings []model.Finding
}

// RunSummary contains summary information about a stored run.
type RunSummary struct {
	ID           int64     `json:"id"`
	Version      string    `json:"version"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	TargetCount  int       `json:"target_count"`
	FindingCount int       `json:"finding_count"`
}

// SaveRun stores a run with its targets and findings in one transaction
// and returns the new run ID.
func (s *Store) SaveRun(ctx context.Context, run *Run) (int64, error) {
	targets := make([]*model.TargetReport, 0, len(run.Targets))
	for _, t := range run.Targets {
		if t != nil {
			targets = append(targets, t)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (version, started_at, finished_at, target_count, finding_count)
		VALUES (?, ?, ?, ?, ?)`,
		run.Version,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		len(targets),
		len(run.Findings),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	for _, t := range targets {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_targets (run_id, target, pages_fetched, pages_failed, finding_count, error)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, t.Target, t.PagesFetched, t.PagesFailed, t.FindingCount(), t.ErrorMessage,
		); err != nil {
			return 0, fmt.Errorf("failed to insert target %s: %w", t.Target, err)
		}
	}

	for i, f := range run.Findings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO findings (run_id, seq, target, type, url, evidence)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, i, AttributeTarget(targets, f), f.Kind, f.URL, f.Evidence,
		); err != nil {
			return 0, fmt.Errorf("failed to insert finding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// AttributeTarget returns the target a finding belongs to: the target equal
// to the finding URL, otherwise the first target in the same scope.
// An empty string is returned when no target matches.
func AttributeTarget(targets []*model.TargetReport, f model.Finding) string {
	for _, t := range targets {
		if t.Target == f.URL {
			return t.Target
		}
	}
	for _, t := range targets {
		if scope.SameScope(t.Target, f.URL) {
			return t.Target
		}
	}
	return ""
}

// ListRuns returns all stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version, started_at, finished_at, target_count, finding_count
		FROM runs
		ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun returns the summary of one run.
func (s *Store) GetRun(ctx context.Context, id int64) (*RunSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, version, started_at, finished_at, target_count, finding_count
		FROM runs
		WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return run, err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunSummary, error) {
	var (
		run                 RunSummary
		version             sql.NullString
		startedAt, finished string
	)
	if err := row.Scan(&run.ID, &version, &startedAt, &finished, &run.TargetCount, &run.FindingCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Version = version.String
	run.StartedAt = parseTimestamp(startedAt)
	run.FinishedAt = parseTimestamp(finished)
	return &run, nil
}

// GetRunFindings returns the findings of a run in their original order.
func (s *Store) GetRunFindings(ctx context.Context, runID int64) ([]model.Finding, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.queryFindings(ctx, `
		SELECT type, url, evidence FROM findings
		WHERE run_id = ?
		ORDER BY seq`, runID)
}

// GetTargetFindings returns the findings attributed to target in a run.
func (s *Store) GetTargetFindings(ctx context.Context, runID int64, target string) ([]model.Finding, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.queryFindings(ctx, `
		SELECT type, url, evidence FROM findings
		WHERE run_id = ? AND target = ?
		ORDER BY seq`, runID, target)
}

func (s *Store) queryFindings(ctx context.Context, query string, args ...any) ([]model.Finding, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	findings := make([]model.Finding, 0)
	for rows.Next() {
		var f model.Finding
		if err := rows.Scan(&f.Kind, &f.URL, &f.Evidence); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// RunsForTarget returns the IDs of runs that scanned target, newest first.
// limit <= 0 returns all of them.
func (s *Store) RunsForTarget(ctx context.Context, target string, limit int) ([]int64, error) {
	query := `
		SELECT DISTINCT run_id FROM run_targets
		WHERE target = ?
		ORDER BY run_id DESC`
	args := []any{target}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs for %s: %w", target, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// timestampFormats lists the formats tried when reading stored times.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
