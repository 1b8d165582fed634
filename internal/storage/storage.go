package storage

import (
	"context"
	"time"
)

// Storage defines the interface for persisting conversion history
type Storage interface {
	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	FinishRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// Output operations
	RecordOutput(ctx context.Context, output *Output) error
	ListOutputs(ctx context.Context, runID string) ([]*Output, error)

	// Database operations
	Close() error
}

// RunStatus is the lifecycle state of a conversion run
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run represents one invocation of the converter over a source tree
type Run struct {
	ID              string // UUID
	SourceRoot      string
	DestRoot        string
	MaxLength       int
	Delimiter       string
	Status          RunStatus
	FilesConverted  int
	FilesFailed     int
	SegmentsWritten int
	Error           string
	StartedAt       time.Time
	FinishedAt      time.Time // Zero while running
}

// Duration returns how long the run took, or 0 while it is running
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Output represents one source file processed during a run
type Output struct {
	ID           int64
	RunID        string
	SourcePath   string // Relative to the run's source root
	OutputPath   string // Relative to the run's destination root
	ContentHash  [32]byte
	SegmentCount int
	Tags         []string
	Error        string // Empty when the file converted successfully
	CreatedAt    time.Time
}

// Failed reports whether the file could not be converted
func (o *Output) Failed() bool {
	return o.Error != ""
}
