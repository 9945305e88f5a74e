package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptecltd/feedersim"
	"github.com/synaptecltd/feedersim/config"
	"github.com/synaptecltd/feedersim/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	cfg := config.Default()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	state, err := feedersim.NewState(cfg, nil, feedersim.NewEventLog(0, logger))
	require.NoError(t, err)

	reg := metrics.NewRegistry()
	sim := feedersim.NewSimulator(state, feedersim.Sources{
		LoadKW:   feedersim.Series{5000},
		LoadKVAR: feedersim.Series{2000},
	}, reg)
	return newRouter(sim, cfg, reg, logger)
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	w := do(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","running":true}`, w.Body.String())
}

func TestFaultLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodPost, "/commands/fault", `{"bus":"bus2025","type":"LLG"}`)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = do(router, http.MethodPost, "/commands/fault", `{"bus":"bus2025"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "second fault while one is active")

	w = do(router, http.MethodPost, "/commands/step", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snap struct {
		Tick        int    `json:"tick"`
		FaultActive bool   `json:"fault_active"`
		FaultType   string `json:"fault_type"`
		LocalFault  bool   `json:"local_fault"`
		Recloser    string `json:"recloser"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 0, snap.Tick)
	assert.True(t, snap.FaultActive)
	assert.Equal(t, "LLG", snap.FaultType)
	assert.True(t, snap.LocalFault)
	assert.Equal(t, "TRIPPED", snap.Recloser)

	w = do(router, http.MethodPost, "/commands/reset", "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "reset needs lockout")

	w = do(router, http.MethodPost, "/commands/clear", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodGet, "/events?category=Restoration", "")
	require.Equal(t, http.StatusOK, w.Code)
	var events []feedersim.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Fault Cleared by Operator", events[0].Details)
}

func TestFaultRequestValidation(t *testing.T) {
	router := newTestRouter(t)

	for _, body := range []string{
		`{}`,
		`{"bus":"bus9999"}`,
		`{"bus":"bus2025","type":"XYZ"}`,
		`not json`,
	} {
		w := do(router, http.MethodPost, "/commands/fault", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestSetCommands(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		path, body string
		want       int
	}{
		{"/commands/tap", `{"position":1.02}`, http.StatusNoContent},
		{"/commands/tap", `{"position":1.5}`, http.StatusBadRequest},
		{"/commands/tap", `{"kvar":50}`, http.StatusBadRequest},
		{"/commands/capacitor", `{"kvar":50}`, http.StatusNoContent},
		{"/commands/capacitor", `{"kvar":40}`, http.StatusBadRequest},
		{"/commands/setpoint", `{"celsius":22}`, http.StatusNoContent},
		{"/commands/speed", `{"speed":0}`, http.StatusBadRequest},
		{"/commands/speed", `{"speed":2}`, http.StatusNoContent},
		{"/commands/bus", `{"bus":"bus1005"}`, http.StatusNoContent},
		{"/commands/bus", `{"bus":"nowhere"}`, http.StatusBadRequest},
		{"/commands/mode", `{"mode":"harmonics","on":true}`, http.StatusNoContent},
		{"/commands/mode", `{"mode":"filter","on":true}`, http.StatusNoContent},
		{"/commands/mode", `{"mode":"warp","on":true}`, http.StatusBadRequest},
		{"/commands/run", `{"running":false}`, http.StatusOK},
		{"/commands/restart", ``, http.StatusNoContent},
	}
	for _, tt := range tests {
		w := do(router, http.MethodPost, tt.path, tt.body)
		assert.Equal(t, tt.want, w.Code, "%s %s: %s", tt.path, tt.body, w.Body.String())
	}

	w := do(router, http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status":"ok","running":false}`, w.Body.String())

	w = do(router, http.MethodPost, "/commands/step", "")
	var snap struct {
		Bus         string  `json:"bus"`
		TapPosition float64 `json:"tap_position"`
		Modes       feedersim.Modes
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "bus1005", snap.Bus)
	assert.Equal(t, 1.02, snap.TapPosition)
	assert.True(t, snap.Modes.Harmonics)
	assert.True(t, snap.Modes.Filter)
}

func TestReadEndpoints(t *testing.T) {
	router := newTestRouter(t)
	do(router, http.MethodPost, "/commands/step", "")

	w := do(router, http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	var h feedersim.HistoryValues
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.Len(t, h.Measured, 50)
	assert.Len(t, h.Capacitor, feedersim.CapacitorHistoryLength)

	w = do(router, http.MethodGet, "/buses", "")
	require.Equal(t, http.StatusOK, w.Code)
	var buses []busInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &buses))
	assert.NotEmpty(t, buses)
	var pv float64
	for _, b := range buses {
		if b.ID == "bus2025" {
			pv = b.PVCapacity
		}
	}
	assert.Equal(t, 200.0, pv)

	w = do(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "feedersim_ticks_total 1")
}
