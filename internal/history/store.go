// Package history keeps a SQLite ledger of every evoprobe run.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = errors.New("run not found")

// Kind is the type of run.
type Kind string

const (
	KindCompletion Kind = "complete"
	KindValidation Kind = "validate"
)

// Status represents the current state of a run.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Run is one invocation of complete or validate.
type Run struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	SourceFile     string    `json:"source_file"`
	RecordID       string    `json:"record_id"`
	SequenceLength int       `json:"sequence_length"`
	PromptLength   int       `json:"prompt_length"`
	HoldoutLength  int       `json:"holdout_length"`
	Generated      int       `json:"generated_length"`
	Identity       *float64  `json:"identity_percentage,omitempty"`
	OutputPath     string    `json:"output_path,omitempty"`
	Status         Status    `json:"status"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	FinishedAt     time.Time `json:"finished_at,omitzero"`
}

// NewRunID returns a short random run identifier.
func NewRunID() string {
	return uuid.New().String()[:8]
}

// Store manages run persistence in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a SQLite database at the given path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id              TEXT PRIMARY KEY,
			kind            TEXT NOT NULL,
			source_file     TEXT NOT NULL,
			record_id       TEXT NOT NULL DEFAULT '',
			sequence_length INTEGER NOT NULL DEFAULT 0,
			prompt_length   INTEGER NOT NULL DEFAULT 0,
			holdout_length  INTEGER NOT NULL DEFAULT 0,
			generated       INTEGER NOT NULL DEFAULT 0,
			identity        REAL,
			output_path     TEXT NOT NULL DEFAULT '',
			status          TEXT NOT NULL DEFAULT 'running',
			error           TEXT NOT NULL DEFAULT '',
			created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
			finished_at     DATETIME
		);

		CREATE INDEX IF NOT EXISTS idx_runs_created_at
			ON runs(created_at);
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new run. ID, Status and CreatedAt are filled in when
// empty.
func (s *Store) CreateRun(run *Run) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.Status == "" {
		run.Status = StatusRunning
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, kind, source_file, record_id, sequence_length,
		                   prompt_length, holdout_length, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.SourceFile, run.RecordID, run.SequenceLength,
		run.PromptLength, run.HoldoutLength, run.Status, run.CreatedAt,
	)
	return err
}

// FinishRun records the outcome of a run.
func (s *Store) FinishRun(run *Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	var identity sql.NullFloat64
	if run.Identity != nil {
		identity = sql.NullFloat64{Float64: *run.Identity, Valid: true}
	}
	res, err := s.db.Exec(
		`UPDATE runs SET
			record_id = ?, sequence_length = ?, prompt_length = ?, holdout_length = ?,
			generated = ?, identity = ?, output_path = ?, status = ?, error = ?,
			finished_at = ?
		 WHERE id = ?`,
		run.RecordID, run.SequenceLength, run.PromptLength, run.HoldoutLength,
		run.Generated, identity, run.OutputPath, run.Status, run.Error,
		run.FinishedAt, run.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, run.ID)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// ListRuns returns runs newest first. A limit of zero or less returns all.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// --- Scan helpers ---

const runColumns = `id, kind, source_file, record_id, sequence_length, prompt_length,
	holdout_length, generated, identity, output_path, status, error,
	created_at, finished_at`

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	run := &Run{}
	var identity sql.NullFloat64
	var finished sql.NullTime
	err := row.Scan(
		&run.ID, &run.Kind, &run.SourceFile, &run.RecordID, &run.SequenceLength,
		&run.PromptLength, &run.HoldoutLength, &run.Generated, &identity,
		&run.OutputPath, &run.Status, &run.Error, &run.CreatedAt, &finished,
	)
	if err != nil {
		return nil, err
	}
	if identity.Valid {
		v := identity.Float64
		run.Identity = &v
	}
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return run, nil
}
