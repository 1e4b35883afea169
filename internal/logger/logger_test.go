package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for input, want := range tests {
		assert.Equal(t, want, parseLevel(input), input)
	}
}

func TestNewWritesJSONWithFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	log, err := New(Config{Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.With(String("trace_id", "abc")).Info("crawl finished", Int("pages", 3))
	log.Debug("hidden")
	_ = log.Sync()

	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(blob)
	assert.Contains(t, out, `"msg":"crawl finished"`)
	assert.Contains(t, out, `"trace_id":"abc"`)
	assert.Contains(t, out, `"pages":3`)
	assert.NotContains(t, out, "hidden")
}

func TestNopLogger(t *testing.T) {
	log := NewNop()
	log.With(String("k", "v")).Error("ignored")
	assert.NoError(t, log.Sync())
}
