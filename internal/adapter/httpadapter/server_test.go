package httpadapter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kukua/saro-sms/internal/adapter/httpadapter"
)

type mockStatus struct {
	readyErr error
	state    string
}

func (m *mockStatus) CheckReadiness(_ context.Context) error { return m.readyErr }
func (m *mockStatus) BatchState() string                     { return m.state }

func newTestServer(readyErr error, state string) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockStatus{readyErr: readyErr, state: state}, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, "running")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenBatchRunning(t *testing.T) {
	srv := newTestServer(nil, "running")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503BeforeBatchStarts(t *testing.T) {
	srv := newTestServer(fmt.Errorf("batch not running yet (state idle)"), "idle")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "batch not running yet (state idle)", body["error"])
}

func TestStatuszReportsBatchState(t *testing.T) {
	srv := newTestServer(nil, "completed")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/statusz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "completed", body["batch"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, "running")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
