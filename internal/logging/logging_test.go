package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/raysh454/trimetric/internal/logging"
)

func TestStdoutLogger_WritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewWriterLogger("store", &buf)

	l.Info("saved factor", logging.Field{Key: "firm", Value: "f1"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "saved factor", entry["msg"])
	assert.Equal(t, "store", entry["component"])
	fields := entry["fields"].(map[string]any)
	assert.Equal(t, "f1", fields["firm"])
}

func TestStdoutLogger_WithComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	root := logging.NewWriterLogger("root", &buf)

	child := root.With(logging.Field{Key: "component", Value: "editor"}, logging.Field{Key: "firm", Value: "acme"})
	child.Warn("rejected", logging.Err(errors.New("boom")))

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "editor", entry["component"])
	fields := entry["fields"].(map[string]any)
	assert.Equal(t, "acme", fields["firm"])
	assert.Equal(t, "boom", fields["error"])
	_, hasComponentField := fields["component"]
	assert.False(t, hasComponentField)
}

func TestZapLogger_ForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := logging.NewZapFromCore(zap.New(core)).With(logging.Field{Key: "component", Value: "server"})

	l.Debug("http_request", logging.Field{Key: "path", Value: "/firms"})

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "server", ctx["component"])
	assert.Equal(t, "/firms", ctx["path"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, logging.ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, logging.ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, logging.ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, logging.ParseLevel("bogus"))
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := logging.New("syslog", "info", "x")
	var ube *logging.UnknownBackendError
	require.ErrorAs(t, err, &ube)
	assert.Equal(t, "syslog", ube.Backend)
}

func TestNewWithOutput_Backends(t *testing.T) {
	l, err := logging.NewWithOutput("stdout", "info", "cli", "stderr")
	require.NoError(t, err)
	assert.IsType(t, &logging.StdoutLogger{}, l)

	l, err = logging.NewWithOutput("zap", "warn", "cli", "stderr")
	require.NoError(t, err)
	assert.IsType(t, &logging.ZapLogger{}, l)
}
