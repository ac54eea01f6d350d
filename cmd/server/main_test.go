package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/hypertune/internal/config"
	"github.com/copyleftdev/hypertune/internal/logging"
)

func testConfig() *config.Config {
	cfg := &config.Config{Environment: "test"}
	cfg.HTTP.Port = 8080
	cfg.HTTP.RequestTimeout = 5 * time.Second
	cfg.Optimization.DefaultStrategy = "GridSearch"
	cfg.Optimization.RandomSeed = 3
	cfg.Optimization.InitialPoints = 5
	return cfg
}

func TestRouterHealthAndMetrics(t *testing.T) {
	h, err := newRouter(testConfig(), logging.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	body := strings.NewReader(`{"params":{"x":{"type":"scalar","parameters":{"lower":0,"upper":1}}}}`)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/experiment", body))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("Content-Type"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `hypertune_experiments_created_total{strategy="GridSearch"} 1`)
	assert.Contains(t, rr.Body.String(), "hypertune_experiments_active 1")
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestRouterRejectsUnknownDefaultStrategy(t *testing.T) {
	cfg := testConfig()
	cfg.Optimization.DefaultStrategy = "Annealing"

	_, err := newRouter(cfg, logging.NewNop(), prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPT_DEFAULT_STRATEGY")
}

func TestRouterSeedsExperimentsIndependently(t *testing.T) {
	cfg := testConfig()
	cfg.Optimization.RandomSeed = 0
	h, err := newRouter(cfg, logging.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)

	create := func() string {
		body := strings.NewReader(`{"optimizer":"RandomSearch","params":{"x":{"type":"scalar","parameters":{"lower":0,"upper":1}}}}`)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/experiment", body))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var ref struct {
			ID string `json:"experiment_id"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ref))
		return ref.ID
	}
	asks := func(id string) []string {
		var out []string
		for i := 0; i < 3; i++ {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/experiment/"+id+"/ask", nil))
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			out = append(out, rr.Body.String())
		}
		return out
	}

	a, b := create(), create()
	assert.NotEqual(t, asks(a), asks(b))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestStrategiesCommand(t *testing.T) {
	out, err := execute(t, "strategies")
	require.NoError(t, err)
	assert.Equal(t, "BO\nGridSearch\nOnePlusOne\nRandomSearch\n", out)
}

func TestSpaceCheckCommand(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "space.yaml")
	require.NoError(t, os.WriteFile(valid, []byte(`
lr:
  type: log
  parameters: {lower: 0.0001, upper: 0.1}
optimizer:
  type: choice
  parameters:
    choices: [adam, sgd]
`), 0o644))

	out, err := execute(t, "space", "check", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "dimension: 2")
	assert.Contains(t, out, "type: log")
	assert.Contains(t, out, "- adam")

	invalid := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("x:\n  type: gaussian\n  parameters: {}\n"), 0o644))
	_, err = execute(t, "space", "check", invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"x"`)

	_, err = execute(t, "space", "check", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
