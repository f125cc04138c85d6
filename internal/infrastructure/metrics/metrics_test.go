package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.AuthEvent("login", "success")
	m.AuthEvent("login", "success")
	m.AuthEvent("refresh", "reused")
	m.RelationToggle("like", "created")
	m.ObserveHTTP(http.MethodGet, "/api/v1/videos/{videoID}", http.StatusOK, 25*time.Millisecond)
	m.ObserveHTTP(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.authEvents.WithLabelValues("login", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.authEvents.WithLabelValues("refresh", "reused")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.toggles.WithLabelValues("like", "created")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/videos/{videoID}", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.AuthEvent("login", "success")
	m.RelationToggle("like", "created")
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.AuthEvent("logout", "success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `vidhub_auth_events_total{event="logout",result="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
