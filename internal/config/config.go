// Package config provides configuration loading for txt2jsonl.
//
// Values come from, in increasing precedence: built-in defaults, an
// optional YAML file, TXT2JSONL_* environment variables and finally
// command-line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dshills/txt2jsonl/internal/logging"
)

const (
	// DefaultMaxLength is the default maximum segment length in characters
	DefaultMaxLength = 700
	// DefaultDelimiter joins path components in output file names. It is
	// the Unicode symbol for "unit separator", which never appears in
	// ordinary directory names.
	DefaultDelimiter = "␟"
	// DefaultSourceExt is the extension of input text files
	DefaultSourceExt = ".txt"
	// DefaultOutputExt is the extension of output files
	DefaultOutputExt = ".json"
	// DefaultEncoding is the encoding of input text files
	DefaultEncoding = "utf-8"
)

// DefaultBoundaries are the boundary characters segments prefer to end on
var DefaultBoundaries = []string{"。", "」", "\n"}

// Config holds the complete txt2jsonl configuration.
type Config struct {
	Segment SegmentConfig  `koanf:"segment"`
	Convert ConvertConfig  `koanf:"convert"`
	Ledger  LedgerConfig   `koanf:"ledger"`
	Log     logging.Config `koanf:"log"`
}

// SegmentConfig controls text segmentation.
type SegmentConfig struct {
	MaxLength  int      `koanf:"max_length"`
	Boundaries []string `koanf:"boundaries"` // each entry is a single character
}

// ConvertConfig controls how files are discovered, named and decoded.
type ConvertConfig struct {
	Delimiter       string `koanf:"delimiter"`
	SourceExt       string `koanf:"source_ext"`
	OutputExt       string `koanf:"output_ext"`
	TagFile         string `koanf:"tag_file"` // empty means tags.json, tags.yaml, tags.yml
	Encoding        string `koanf:"encoding"`
	ContinueOnError bool   `koanf:"continue_on_error"`
}

// LedgerConfig controls the conversion history database.
type LedgerConfig struct {
	Path string `koanf:"path"` // empty disables the ledger for conversions
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Segment.MaxLength == 0 {
		cfg.Segment.MaxLength = DefaultMaxLength
	}
	if len(cfg.Segment.Boundaries) == 0 {
		cfg.Segment.Boundaries = append([]string(nil), DefaultBoundaries...)
	}

	if cfg.Convert.Delimiter == "" {
		cfg.Convert.Delimiter = DefaultDelimiter
	}
	if cfg.Convert.SourceExt == "" {
		cfg.Convert.SourceExt = DefaultSourceExt
	}
	if cfg.Convert.OutputExt == "" {
		cfg.Convert.OutputExt = DefaultOutputExt
	}
	if cfg.Convert.Encoding == "" {
		cfg.Convert.Encoding = DefaultEncoding
	}

	defaults := logging.NewDefaultConfig()
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Format
	}
}

// Validation errors
var (
	ErrInvalidMaxLength = errors.New("segment.max_length must be at least 1")
	ErrInvalidBoundary  = errors.New("segment.boundaries entries must be single characters")
	ErrInvalidDelimiter = errors.New("convert.delimiter must be non-empty and must not contain a path separator")
	ErrInvalidExtension = errors.New("extension must start with '.'")
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Segment.MaxLength < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxLength, c.Segment.MaxLength)
	}
	if _, err := c.Segment.BoundaryRunes(); err != nil {
		return err
	}

	d := c.Convert.Delimiter
	if d == "" || strings.ContainsRune(d, '/') || strings.ContainsRune(d, os.PathSeparator) {
		return fmt.Errorf("%w: got %q", ErrInvalidDelimiter, d)
	}
	if !strings.HasPrefix(c.Convert.SourceExt, ".") {
		return fmt.Errorf("convert.source_ext: %w: got %q", ErrInvalidExtension, c.Convert.SourceExt)
	}
	if !strings.HasPrefix(c.Convert.OutputExt, ".") {
		return fmt.Errorf("convert.output_ext: %w: got %q", ErrInvalidExtension, c.Convert.OutputExt)
	}

	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// BoundaryRunes converts the configured boundaries to runes.
func (s SegmentConfig) BoundaryRunes() ([]rune, error) {
	runes := make([]rune, 0, len(s.Boundaries))
	for _, b := range s.Boundaries {
		if utf8.RuneCountInString(b) != 1 {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidBoundary, b)
		}
		r, _ := utf8.DecodeRuneInString(b)
		runes = append(runes, r)
	}
	return runes, nil
}
