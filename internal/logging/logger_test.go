package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WarnLevel, &buf)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown", map[string]interface{}{"k": 1})
	logger.Error("also shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "shown", entries[0]["message"])
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, float64(1), entries[0]["k"])
	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.Contains(t, entries[0]["caller"], "logging/logger_test.go")
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(DebugLevel, &buf)

	child := base.WithFields(map[string]interface{}{"service": "hypertune"}).
		WithField("experiment_id", "abc").
		WithError(errors.New("boom"))
	child.Info("hello")
	base.Info("plain")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "hypertune", entries[0]["service"])
	assert.Equal(t, "abc", entries[0]["experiment_id"])
	assert.Equal(t, "boom", entries[0]["error"])
	assert.NotContains(t, entries[1], "service", "parent logger must not inherit child fields")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"Error":   ErrorLevel,
		"fatal":   FatalLevel,
		"bogus":   InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewLoggerOutputs(t *testing.T) {
	for _, cfg := range []*Config{
		nil,
		{Level: "debug", Format: "console", Output: "stdout"},
		{Level: "info", Format: "json", Output: filepath.Join(t.TempDir(), "out.log")},
	} {
		logger, err := NewLogger(cfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}

	_, err := NewLogger(&Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "out.log")})
	assert.Error(t, err)
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	cl := &CtxLogger{New(InfoLevel, &buf)}
	ctx := cl.WithContext(context.Background())

	assert.Same(t, cl, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()).Logger)
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(DebugLevel, &buf)

	r := chi.NewRouter()
	r.Use(Middleware(logger))
	r.Get("/experiment/{id}", func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/experiment/42", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 3)
	assert.Equal(t, "Request started", entries[0]["message"])
	assert.Equal(t, "inside", entries[1]["message"])
	assert.Equal(t, "/experiment/42", entries[1]["path"])

	done := entries[2]
	assert.Equal(t, "Request completed", done["message"])
	assert.Equal(t, "WARN", done["level"])
	assert.Equal(t, float64(http.StatusNotFound), done["status"])
	assert.Equal(t, "/experiment/{id}", done["route"])
}
