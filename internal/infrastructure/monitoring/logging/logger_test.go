package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Defaults(t *testing.T) {
	l, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_InvalidOutputPath(t *testing.T) {
	_, err := NewLogger(LogConfig{OutputPaths: []string{"sftp://nope"}})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestZapLogger_EmitsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core)

	l.Info("classified message",
		String("correlation_id", "msg-42"),
		Int("attempts", 2),
		Float64("score", 54.12),
		Bool("work_related", true),
		Duration("elapsed", 120*time.Millisecond),
		Err(errors.New("partial")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "classified message", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "msg-42", fields["correlation_id"])
	assert.Equal(t, int64(2), fields["attempts"])
	assert.Equal(t, 54.12, fields["score"])
	assert.Equal(t, true, fields["work_related"])
	assert.Equal(t, "partial", fields["error"])
}

func TestWith_ChildCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core).With(String("component", "enrichment"))

	l.Warn("retrying")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "enrichment", logs.All()[0].ContextMap()["component"])
}

func TestErr_NilError(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestSetLevel(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "info", OutputPaths: []string{"stdout"}})
	require.NoError(t, err)

	assert.True(t, SetLevel(l, "debug"))
	// Children share the level, so adjusting via a child works too.
	assert.True(t, SetLevel(l.Named("child"), "warn"))

	// Loggers without an adjustable level refuse quietly.
	assert.False(t, SetLevel(NewNopLogger(), "debug"))
}

func TestDefault_NopUntilSet(t *testing.T) {
	// The zero default must be safe to use.
	Default().Info("discarded")

	core, logs := observer.New(zapcore.InfoLevel)
	SetDefault(NewLoggerFromCore(core))
	defer SetDefault(NewNopLogger())

	Default().Info("captured")
	assert.Equal(t, 1, logs.Len())

	// SetDefault(nil) must be a no-op, not a panic.
	SetDefault(nil)
	Default().Info("still captured")
	assert.Equal(t, 2, logs.Len())
}
