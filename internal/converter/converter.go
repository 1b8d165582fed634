package converter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/txt2jsonl/internal/chunker"
	"github.com/dshills/txt2jsonl/internal/config"
	"github.com/dshills/txt2jsonl/internal/logging"
	"github.com/dshills/txt2jsonl/internal/storage"
	"github.com/dshills/txt2jsonl/internal/tagtree"
	"github.com/dshills/txt2jsonl/pkg/types"
)

var (
	// ErrSourceNotDirectory is returned when the source root is not a directory
	ErrSourceNotDirectory = errors.New("source is not a directory")
	// ErrOutsideRoot is returned for files that do not live under the source root
	ErrOutsideRoot = errors.New("file is outside the source root")
)

// Converter turns a tree of text files into tagged JSON lines files
type Converter struct {
	config  *Config
	chunker *chunker.Chunker
	decoder *textDecoder
	logger  *zap.Logger
	ledger  storage.Storage
}

// Config contains configuration for the converter
type Config struct {
	MaxLength       int    // Maximum segment length in characters (default: 700)
	Boundaries      []rune // Preferred segment endings (default: 。 」 \n)
	Delimiter       string // Joins path components in output names (default: ␟)
	SourceExt       string // Extension of input files (default: .txt)
	OutputExt       string // Extension of output files (default: .json)
	TagFile         string // Tag file name at the source root (default: tags.json, tags.yaml, tags.yml)
	Encoding        string // Encoding of input files (default: utf-8)
	ContinueOnError bool   // Record failed files and keep going (default: false, stop at first error)
}

// DefaultConfig returns the converter defaults
func DefaultConfig() *Config {
	return &Config{
		MaxLength:  config.DefaultMaxLength,
		Boundaries: append([]rune(nil), chunker.DefaultBoundaries...),
		Delimiter:  config.DefaultDelimiter,
		SourceExt:  config.DefaultSourceExt,
		OutputExt:  config.DefaultOutputExt,
		Encoding:   config.DefaultEncoding,
	}
}

// ConfigFrom builds a converter Config from the application configuration
func ConfigFrom(cfg *config.Config) (*Config, error) {
	boundaries, err := cfg.Segment.BoundaryRunes()
	if err != nil {
		return nil, err
	}
	return &Config{
		MaxLength:       cfg.Segment.MaxLength,
		Boundaries:      boundaries,
		Delimiter:       cfg.Convert.Delimiter,
		SourceExt:       cfg.Convert.SourceExt,
		OutputExt:       cfg.Convert.OutputExt,
		TagFile:         cfg.Convert.TagFile,
		Encoding:        cfg.Convert.Encoding,
		ContinueOnError: cfg.Convert.ContinueOnError,
	}, nil
}

// Option configures optional Converter collaborators
type Option func(*Converter)

// WithLogger sets the logger (default: no-op)
func WithLogger(logger *zap.Logger) Option {
	return func(c *Converter) {
		c.logger = logging.OrNop(logger)
	}
}

// WithLedger records every run and processed file in the given storage
func WithLedger(ledger storage.Storage) Option {
	return func(c *Converter) {
		c.ledger = ledger
	}
}

// New creates a new Converter instance. A nil config uses DefaultConfig.
func New(cfg *Config, opts ...Option) (*Converter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxLength < 1 {
		return nil, fmt.Errorf("max length must be at least 1, got %d", cfg.MaxLength)
	}
	if cfg.Delimiter == "" {
		return nil, errors.New("delimiter is required")
	}
	if cfg.SourceExt == "" || cfg.OutputExt == "" {
		return nil, errors.New("source and output extensions are required")
	}

	encodingName := cfg.Encoding
	if encodingName == "" {
		encodingName = config.DefaultEncoding
	}
	decoder, err := newTextDecoder(encodingName)
	if err != nil {
		return nil, err
	}

	c := &Converter{
		config:  cfg,
		chunker: chunker.New(cfg.MaxLength, cfg.Boundaries...),
		decoder: decoder,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the converter configuration
func (c *Converter) Config() *Config {
	return c.config
}

// Statistics contains statistics about a conversion run
type Statistics struct {
	RunID           string // Ledger run ID, empty without a ledger
	TagFile         string // Tag file that was loaded, empty when none exists
	FilesConverted  int
	FilesFailed     int
	SegmentsWritten int
	Duration        time.Duration
	ErrorMessages   []string
}

// FileResult describes one converted file
type FileResult struct {
	SourcePath  string // Relative to the source root
	OutputPath  string // Absolute destination path
	Identifier  string // Flattened identifier, also the output file name
	Tags        []string
	Segments    int
	ContentHash [32]byte
}

// ConvertTree converts every source file below sourceRoot into destRoot.
// Files are processed one at a time in lexical order. Unless
// ContinueOnError is set, the first failing file aborts the run.
func (c *Converter) ConvertTree(ctx context.Context, sourceRoot, destRoot string) (*Statistics, error) {
	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	sourceRoot, destRoot, err := absRoots(sourceRoot, destRoot)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(sourceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotDirectory, sourceRoot)
	}

	tree, tagFile, err := tagtree.LoadDir(sourceRoot, c.config.TagFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	stats.TagFile = tagFile
	if tagFile == "" {
		c.logger.Info("no tag file found, records will carry no tags", zap.String("source", sourceRoot))
	} else {
		c.logger.Info("loaded tag file", zap.String("path", tagFile), zap.Int("nodes", tree.Len()))
	}

	// filepath.Walk does not descend into a symlinked root
	walkRoot, walkDest, err := resolveRoots(sourceRoot, destRoot)
	if err != nil {
		return nil, err
	}
	files, err := c.discoverFiles(walkRoot, walkDest)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	if err := os.MkdirAll(destRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	run, err := c.startRun(ctx, sourceRoot, destRoot)
	if err != nil {
		return nil, err
	}
	if run != nil {
		stats.RunID = run.ID
	}

	runErr := c.convertFiles(ctx, tree, walkRoot, destRoot, files, run, stats)
	stats.Duration = time.Since(startTime)

	if err := c.finishRun(ctx, run, stats, runErr); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return stats, runErr
	}

	c.logger.Info("conversion complete",
		zap.Int("files_converted", stats.FilesConverted),
		zap.Int("files_failed", stats.FilesFailed),
		zap.Int("segments_written", stats.SegmentsWritten),
		zap.Duration("duration", stats.Duration))
	return stats, nil
}

// convertFiles processes files sequentially
func (c *Converter) convertFiles(ctx context.Context, tree *tagtree.Node, sourceRoot, destRoot string,
	files []string, run *storage.Run, stats *Statistics) error {

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := c.ConvertFile(tree, sourceRoot, destRoot, path)
		if recordErr := c.recordOutput(ctx, run, sourceRoot, destRoot, path, result, err); recordErr != nil {
			return recordErr
		}

		if err != nil {
			stats.FilesFailed++
			stats.ErrorMessages = append(stats.ErrorMessages, err.Error())
			if !c.config.ContinueOnError {
				return err
			}
			c.logger.Warn("skipping file", zap.String("path", path), zap.Error(err))
			continue
		}

		stats.FilesConverted++
		stats.SegmentsWritten += result.Segments
	}
	return nil
}

// ConvertFile converts a single source file below sourceRoot, writing its
// records to destRoot. The destination file is overwritten.
func (c *Converter) ConvertFile(tree *tagtree.Node, sourceRoot, destRoot, path string) (*FileResult, error) {
	sourceRoot, destRoot, err := absRoots(sourceRoot, destRoot)
	if err != nil {
		return nil, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	identifier, err := c.FlattenedID(sourceRoot, absPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	outputPath := filepath.Join(destRoot, identifier)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("%s: failed to create destination directory: %w", path, err)
	}

	tags := tree.ResolveIdentifier(c.LookupKey(identifier), c.config.Delimiter)

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	text, err := c.decoder.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	segments := c.chunker.Split(text)
	records := types.NewRecords(tags, segments)
	if err := writeRecords(outputPath, records); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rel, _ := filepath.Rel(sourceRoot, absPath)
	c.logger.Debug("converted file",
		zap.String("source", rel),
		zap.String("output", identifier),
		zap.Strings("tags", tags),
		zap.Int("segments", len(segments)))

	return &FileResult{
		SourcePath:  rel,
		OutputPath:  outputPath,
		Identifier:  identifier,
		Tags:        tags,
		Segments:    len(segments),
		ContentHash: types.ContentHash(content),
	}, nil
}

// Segment splits text with the converter's length and boundaries
func (c *Converter) Segment(text string) []string {
	return c.chunker.Split(text)
}

// FlattenedID derives the output file name for a source file: its path
// relative to sourceRoot with separators replaced by the delimiter and the
// source extension replaced by the output extension
func (c *Converter) FlattenedID(sourceRoot, path string) (string, error) {
	rel, err := filepath.Rel(sourceRoot, path)
	if err != nil {
		return "", err
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}

	id := strings.ReplaceAll(filepath.ToSlash(rel), "/", c.config.Delimiter)
	if strings.HasSuffix(id, c.config.SourceExt) {
		id = strings.TrimSuffix(id, c.config.SourceExt) + c.config.OutputExt
	}
	return strings.TrimPrefix(id, c.config.Delimiter), nil
}

// LookupKey strips the output extension from a flattened identifier,
// leaving the delimiter-joined components used to resolve tags
func (c *Converter) LookupKey(identifier string) string {
	return strings.TrimSuffix(identifier, c.config.OutputExt)
}

// discoverFiles finds all source files below root. Hidden files and
// directories are skipped, as is destRoot when it lies inside root.
func (c *Converter) discoverFiles(root, destRoot string) ([]string, error) {
	var files []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if path == root {
			return nil
		}

		// Skip hidden entries
		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if path == destRoot {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(info.Name(), c.config.SourceExt) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// writeRecords writes records to path, replacing any existing file. The
// records go to a temporary file in the same directory which is renamed
// into place, so a failed write never leaves a truncated output behind.
func writeRecords(path string, records []types.Record) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".txt2jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpPath := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(f)
	if err = types.WriteRecords(w, records); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err = f.Chmod(0644); err != nil {
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace output file: %w", err)
	}
	return nil
}

func absRoots(sourceRoot, destRoot string) (string, string, error) {
	src, err := filepath.Abs(sourceRoot)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve source: %w", err)
	}
	dst, err := filepath.Abs(destRoot)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve destination: %w", err)
	}
	return src, dst, nil
}

// resolveRoots evaluates symlinks in the source root, and in the
// destination when it already exists
func resolveRoots(sourceRoot, destRoot string) (string, string, error) {
	src, err := filepath.EvalSymlinks(sourceRoot)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve source: %w", err)
	}
	dst := destRoot
	if resolved, err := filepath.EvalSymlinks(destRoot); err == nil {
		dst = resolved
	}
	return src, dst, nil
}

// Ledger helpers. All are no-ops without a ledger.

func (c *Converter) startRun(ctx context.Context, sourceRoot, destRoot string) (*storage.Run, error) {
	if c.ledger == nil {
		return nil, nil
	}
	run := &storage.Run{
		ID:         uuid.NewString(),
		SourceRoot: sourceRoot,
		DestRoot:   destRoot,
		MaxLength:  c.config.MaxLength,
		Delimiter:  c.config.Delimiter,
		Status:     storage.RunRunning,
	}
	if err := c.ledger.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	return run, nil
}

func (c *Converter) recordOutput(ctx context.Context, run *storage.Run, sourceRoot, destRoot, path string,
	result *FileResult, convErr error) error {
	if run == nil {
		return nil
	}

	out := &storage.Output{RunID: run.ID}
	if result != nil {
		out.SourcePath = result.SourcePath
		out.OutputPath = result.Identifier
		out.ContentHash = result.ContentHash
		out.SegmentCount = result.Segments
		out.Tags = result.Tags
	} else {
		out.SourcePath, _ = filepath.Rel(sourceRoot, path)
		out.OutputPath, _ = c.FlattenedID(sourceRoot, path)
	}
	if convErr != nil {
		out.Error = convErr.Error()
	}

	if err := c.ledger.RecordOutput(ctx, out); err != nil {
		return fmt.Errorf("failed to record output: %w", err)
	}
	return nil
}

func (c *Converter) finishRun(ctx context.Context, run *storage.Run, stats *Statistics, runErr error) error {
	if run == nil {
		return nil
	}
	run.Status = storage.RunCompleted
	if runErr != nil {
		run.Status = storage.RunFailed
		run.Error = runErr.Error()
	}
	run.FilesConverted = stats.FilesConverted
	run.FilesFailed = stats.FilesFailed
	run.SegmentsWritten = stats.SegmentsWritten

	// A cancelled run must still be closed out in the ledger
	if err := c.ledger.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}
