package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPass(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordPass("interval", "ok", 20*time.Millisecond)
	c.RecordPass("interval", "ok", 30*time.Millisecond)
	c.RecordPass("manual", "error", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.passes.WithLabelValues("interval", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.passes.WithLabelValues("manual", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.passDuration))
}

func TestWatchAndStaleMetrics(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.SetActiveWatches(3)
	c.SetActiveWatches(2)
	c.RecordStale()
	c.RecordInvalidation()
	c.RecordInvalidation()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.activeWatches))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.staleResults))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.invalidations))
}

func TestRecordBackendRequest(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordBackendRequest("fridge", "ok", 10*time.Millisecond)
	c.RecordBackendRequest("fridge", "status_502", 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.backendRequests.WithLabelValues("fridge", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.backendRequests.WithLabelValues("fridge", "status_502")))
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordPass("activate", "ok", time.Millisecond)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `fridgewatch_refresh_passes_total{outcome="ok",trigger="activate"} 1`)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) })
}
