package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidRun is returned when a run is missing required fields
	ErrInvalidRun = errors.New("invalid run")
)

// DefaultListLimit caps ListRuns when no positive limit is given
const DefaultListLimit = 20

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode so readers (history, MCP) don't block a running conversion
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Run operations

func (s *SQLiteStorage) CreateRun(ctx context.Context, run *Run) error {
	if run.ID == "" || run.SourceRoot == "" || run.DestRoot == "" {
		return fmt.Errorf("%w: id, source root and destination root are required", ErrInvalidRun)
	}
	if run.Status == "" {
		run.Status = RunRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO runs (id, source_root, dest_root, max_length, delimiter, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.SourceRoot, run.DestRoot, run.MaxLength, run.Delimiter,
		string(run.Status), run.StartedAt)
	if err != nil {
		if _, getErr := s.GetRun(ctx, run.ID); getErr == nil {
			return fmt.Errorf("run %s: %w", run.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) FinishRun(ctx context.Context, run *Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	query := `
		UPDATE runs
		SET status = ?, files_converted = ?, files_failed = ?, segments_written = ?,
		    error = ?, finished_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		string(run.Status), run.FilesConverted, run.FilesFailed, run.SegmentsWritten,
		run.Error, run.FinishedAt, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

const runColumns = `
	id, source_root, dest_root, max_length, delimiter, status,
	files_converted, files_failed, segments_written, error, started_at, finished_at
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var status string
	var runErr sql.NullString
	var finishedAt sql.NullTime
	err := row.Scan(
		&run.ID, &run.SourceRoot, &run.DestRoot, &run.MaxLength, &run.Delimiter, &status,
		&run.FilesConverted, &run.FilesFailed, &run.SegmentsWritten, &runErr,
		&run.StartedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.Error = runErr.String
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return &run, nil
}

func (s *SQLiteStorage) GetRun(ctx context.Context, runID string) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	run, err := scanRun(s.db.QueryRowContext(ctx, query, runID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Output operations

func (s *SQLiteStorage) RecordOutput(ctx context.Context, output *Output) error {
	tags := output.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO outputs (run_id, source_path, output_path, content_hash, segment_count, tags, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		output.RunID, output.SourcePath, output.OutputPath, output.ContentHash[:],
		output.SegmentCount, string(tagsJSON), output.Error, now)
	if err != nil {
		return fmt.Errorf("failed to record output: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	output.ID = id
	output.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) ListOutputs(ctx context.Context, runID string) ([]*Output, error) {
	query := `
		SELECT id, run_id, source_path, output_path, content_hash, segment_count, tags, error, created_at
		FROM outputs
		WHERE run_id = ?
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list outputs: %w", err)
	}
	defer rows.Close()

	outputs := make([]*Output, 0)
	for rows.Next() {
		var out Output
		var hash []byte
		var tagsJSON string
		var outErr sql.NullString
		if err := rows.Scan(&out.ID, &out.RunID, &out.SourcePath, &out.OutputPath, &hash,
			&out.SegmentCount, &tagsJSON, &outErr, &out.CreatedAt); err != nil {
			return nil, err
		}
		copy(out.ContentHash[:], hash)
		if err := json.Unmarshal([]byte(tagsJSON), &out.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags for output %d: %w", out.ID, err)
		}
		out.Error = outErr.String
		outputs = append(outputs, &out)
	}
	return outputs, rows.Err()
}
