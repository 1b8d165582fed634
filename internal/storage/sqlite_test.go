package storage

import (
	"context"
	"crypto/sha256"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	return storage
}

func newRun() *Run {
	return &Run{
		ID:         uuid.NewString(),
		SourceRoot: "/data/src",
		DestRoot:   "/data/out",
		MaxLength:  700,
		Delimiter:  "␟",
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	assert.NotNil(t, storage.db)
}

func TestNewSQLiteStorage_FileReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	first, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	run := newRun()
	require.NoError(t, first.CreateRun(ctx, run))
	require.NoError(t, first.Close())

	// Migrations are not re-applied and data survives
	second, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
}

func TestCreateRun(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	run := newRun()
	require.NoError(t, storage.CreateRun(ctx, run))
	assert.Equal(t, RunRunning, run.Status)
	assert.False(t, run.StartedAt.IsZero())

	got, err := storage.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "/data/src", got.SourceRoot)
	assert.Equal(t, "/data/out", got.DestRoot)
	assert.Equal(t, 700, got.MaxLength)
	assert.Equal(t, "␟", got.Delimiter)
	assert.Equal(t, RunRunning, got.Status)
	assert.True(t, got.FinishedAt.IsZero())
	assert.Equal(t, time.Duration(0), got.Duration())
}

func TestCreateRun_Duplicate(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	run := newRun()
	require.NoError(t, storage.CreateRun(ctx, run))

	err := storage.CreateRun(ctx, &Run{ID: run.ID, SourceRoot: "a", DestRoot: "b"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreateRun_Invalid(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	err := storage.CreateRun(context.Background(), &Run{SourceRoot: "a", DestRoot: "b"})
	assert.ErrorIs(t, err, ErrInvalidRun)
}

func TestGetRun_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	_, err := storage.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFinishRun(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	run := newRun()
	require.NoError(t, storage.CreateRun(ctx, run))

	run.Status = RunFailed
	run.FilesConverted = 3
	run.FilesFailed = 1
	run.SegmentsWritten = 17
	run.Error = "permission denied"
	require.NoError(t, storage.FinishRun(ctx, run))

	got, err := storage.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunFailed, got.Status)
	assert.Equal(t, 3, got.FilesConverted)
	assert.Equal(t, 1, got.FilesFailed)
	assert.Equal(t, 17, got.SegmentsWritten)
	assert.Equal(t, "permission denied", got.Error)
	assert.False(t, got.FinishedAt.IsZero())
	assert.GreaterOrEqual(t, got.Duration(), time.Duration(0))
}

func TestFinishRun_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	err := storage.FinishRun(context.Background(), newRun())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRuns(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		run := newRun()
		run.StartedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, storage.CreateRun(ctx, run))
		ids = append(ids, run.ID)
	}

	runs, err := storage.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID, "newest first")
	assert.Equal(t, ids[1], runs[1].ID)

	all, err := storage.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRecordOutput(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	run := newRun()
	require.NoError(t, storage.CreateRun(ctx, run))

	ok := &Output{
		RunID:        run.ID,
		SourcePath:   "data1/text1.txt",
		OutputPath:   "data1␟text1.json",
		ContentHash:  sha256.Sum256([]byte("A。B。")),
		SegmentCount: 2,
		Tags:         []string{"t1", "t2"},
	}
	require.NoError(t, storage.RecordOutput(ctx, ok))
	assert.Greater(t, ok.ID, int64(0))

	failed := &Output{
		RunID:      run.ID,
		SourcePath: "data2/bad.txt",
		OutputPath: "data2␟bad.json",
		Error:      "invalid utf-8",
	}
	require.NoError(t, storage.RecordOutput(ctx, failed))

	outputs, err := storage.ListOutputs(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	assert.Equal(t, "data1/text1.txt", outputs[0].SourcePath)
	assert.Equal(t, "data1␟text1.json", outputs[0].OutputPath)
	assert.Equal(t, ok.ContentHash, outputs[0].ContentHash)
	assert.Equal(t, 2, outputs[0].SegmentCount)
	assert.Equal(t, []string{"t1", "t2"}, outputs[0].Tags)
	assert.False(t, outputs[0].Failed())

	assert.Equal(t, []string{}, outputs[1].Tags)
	assert.True(t, outputs[1].Failed())
	assert.Equal(t, "invalid utf-8", outputs[1].Error)
}

func TestRecordOutput_UnknownRun(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	err := storage.RecordOutput(context.Background(), &Output{RunID: "missing", SourcePath: "a", OutputPath: "b"})
	assert.Error(t, err, "foreign key must reject outputs without a run")
}

func TestListOutputs_Empty(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	outputs, err := storage.ListOutputs(context.Background(), "none")
	require.NoError(t, err)
	assert.Empty(t, outputs)
}
