package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", NewDefaultConfig(), false},
		{"json debug", Config{Level: "debug", Format: "json"}, false},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(Config{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("converted file", zap.String("output", "a␟b.json"), zap.Int("segments", 3))
	logger.Debug("filtered out")
	require.NoError(t, logger.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "converted file", entry["msg"])
	assert.Equal(t, "a␟b.json", entry["output"])
	assert.Equal(t, float64(3), entry["segments"])
	assert.Contains(t, entry, "ts")
}

func TestNewWithWriter_InvalidConfig(t *testing.T) {
	_, err := NewWithWriter(Config{Level: "info", Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger()
	tl.Warn("skipping file", zap.String("path", "x.txt"))

	assert.Len(t, tl.All(), 1)
	assert.Equal(t, 1, tl.FilterMessage("skipping").Len())
	tl.AssertLogged(t, zapcore.WarnLevel, "skipping")
}
