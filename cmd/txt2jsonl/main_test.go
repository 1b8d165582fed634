package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSource(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "data1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "tags.json"),
		[]byte(`{"data1":{"tags":["t1"],"text1":{"tags":["t2"]}}}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "data1", "text1.txt"), []byte("A。B。"), 0644))
	return src
}

func TestConvertCommand(t *testing.T) {
	src := writeSource(t)
	dst := filepath.Join(t.TempDir(), "out")

	out, err := execute(t, src, dst, "--max-length", "2", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Converted 1 files (2 segments)")

	data, err := os.ReadFile(filepath.Join(dst, "data1␟text1.json"))
	require.NoError(t, err)
	assert.Equal(t,
		`{"tags":["t1","t2"],"text":"A。"}`+"\n"+`{"tags":["t1","t2"],"text":"B。"}`+"\n",
		string(data))
}

func TestConvertCommand_Delimiter(t *testing.T) {
	src := writeSource(t)
	dst := t.TempDir()

	_, err := execute(t, src, dst, "--delimiter", "===", "--log-level", "error")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dst, "data1===text1.json"))
}

func TestConvertCommand_ConfigFileAndEnv(t *testing.T) {
	src := writeSource(t)
	dst := t.TempDir()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("segment:\n  max_length: 2\nlog:\n  level: error\n"), 0644))
	t.Setenv("TXT2JSONL_CONVERT_DELIMITER", "__")

	_, err := execute(t, src, dst, "--config", cfgPath)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dst, "data1__text1.json"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestConvertCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing args", []string{"only-one"}},
		{"invalid max length", []string{t.TempDir(), t.TempDir(), "--max-length", "0"}},
		{"missing source", []string{filepath.Join(t.TempDir(), "nope"), t.TempDir(), "--log-level", "error"}},
		{"missing config", []string{t.TempDir(), t.TempDir(), "--config", "/does/not/exist.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestConvertCommand_FailureExitsWithError(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "bad.txt"), []byte{0xff}, 0644))

	out, err := execute(t, src, t.TempDir(), "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, out, "1 files failed")
}

func TestHistoryCommand(t *testing.T) {
	src := writeSource(t)
	ledger := filepath.Join(t.TempDir(), "ledger", "runs.db")

	out, err := execute(t, "history", "--ledger", ledger)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")

	out, err = execute(t, src, t.TempDir(), "--ledger", ledger, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Run ID: ")

	out, err = execute(t, "history", "--ledger", ledger, "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, src)
	assert.Contains(t, out, "segments=1")
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
	assert.Contains(t, out, "sqlite")
}
