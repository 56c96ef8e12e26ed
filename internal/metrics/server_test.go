package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(":0", func(ctx context.Context) Health {
		return Health{Status: "ok", Checks: map[string]any{"bindings": 2}}
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Time)
	assert.EqualValues(t, 2, body.Checks["bindings"])
}

func TestHealthEndpoint_ErrorIsUnavailable(t *testing.T) {
	srv := NewServer(":0", func(ctx context.Context) Health {
		return Health{Status: "error"}
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpointExposesCounters(t *testing.T) {
	ObserveFetch(nil, 120*time.Millisecond)
	ObserveFetch(errors.New("offline"), time.Second)
	RecordReconcile("edited")
	RecordCommand("ping", "ok")

	srv := NewServer(":0", func(ctx context.Context) Health { return Health{Status: "ok"} })

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `mcstatusbot_status_fetch_total{result="online"}`)
	assert.Contains(t, body, `mcstatusbot_status_fetch_total{result="unreachable"}`)
	assert.Contains(t, body, `mcstatusbot_card_reconcile_total{action="edited"}`)
	assert.Contains(t, body, `mcstatusbot_command_total{command="ping",outcome="ok"}`)
}
