package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 700, cfg.Segment.MaxLength)
	assert.Equal(t, []string{"。", "」", "\n"}, cfg.Segment.Boundaries)
	assert.Equal(t, "␟", cfg.Convert.Delimiter)
	assert.Equal(t, ".txt", cfg.Convert.SourceExt)
	assert.Equal(t, ".json", cfg.Convert.OutputExt)
	assert.Equal(t, "utf-8", cfg.Convert.Encoding)
	assert.False(t, cfg.Convert.ContinueOnError)
	assert.Empty(t, cfg.Ledger.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
segment:
  max_length: 300
  boundaries: [".", "!", "?"]
convert:
  delimiter: "==="
  encoding: shift_jis
  continue_on_error: true
ledger:
  path: /tmp/ledger.db
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Segment.MaxLength)
	assert.Equal(t, []string{".", "!", "?"}, cfg.Segment.Boundaries)
	assert.Equal(t, "===", cfg.Convert.Delimiter)
	assert.Equal(t, "shift_jis", cfg.Convert.Encoding)
	assert.True(t, cfg.Convert.ContinueOnError)
	assert.Equal(t, ".txt", cfg.Convert.SourceExt)
	assert.Equal(t, "/tmp/ledger.db", cfg.Ledger.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "segment:\n  max_length: 300\n")
	t.Setenv("TXT2JSONL_SEGMENT_MAX_LENGTH", "42")
	t.Setenv("TXT2JSONL_CONVERT_DELIMITER", "__")
	t.Setenv("TXT2JSONL_LEDGER_PATH", "/var/lib/txt2jsonl.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Segment.MaxLength)
	assert.Equal(t, "__", cfg.Convert.Delimiter)
	assert.Equal(t, "/var/lib/txt2jsonl.db", cfg.Ledger.Path)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"negative max length", "segment:\n  max_length: -1\n", ErrInvalidMaxLength},
		{"zero max length", "segment:\n  max_length: 0\n", ErrInvalidMaxLength},
		{"multi-char boundary", "segment:\n  boundaries: [\"ab\"]\n", ErrInvalidBoundary},
		{"delimiter with slash", "convert:\n  delimiter: \"a/b\"\n", ErrInvalidDelimiter},
		{"extension without dot", "convert:\n  source_ext: txt\n", ErrInvalidExtension},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_ZeroMaxLengthFromEnv(t *testing.T) {
	t.Setenv("TXT2JSONL_SEGMENT_MAX_LENGTH", "0")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidMaxLength)
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	_, err := Load(writeConfig(t, "log:\n  format: xml\n"))
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TXT2JSONL_SEGMENT_MAX_LENGTH", "segment.max_length"},
		{"TXT2JSONL_CONVERT_CONTINUE_ON_ERROR", "convert.continue_on_error"},
		{"TXT2JSONL_LOG_LEVEL", "log.level"},
		{"TXT2JSONL_DEBUG", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envKey(tt.in))
		})
	}
}

func TestBoundaryRunes(t *testing.T) {
	runes, err := SegmentConfig{Boundaries: []string{"。", "\n"}}.BoundaryRunes()
	require.NoError(t, err)
	assert.Equal(t, []rune{'。', '\n'}, runes)

	_, err = SegmentConfig{Boundaries: []string{""}}.BoundaryRunes()
	assert.ErrorIs(t, err, ErrInvalidBoundary)
}
