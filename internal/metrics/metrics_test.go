package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"ESDMMonitor/internal/domain"
)

func TestCounters(t *testing.T) {
	t.Parallel()

	m := New()
	m.Classified(domain.ClassMatch)
	m.Classified(domain.ClassMatch)
	m.Classified(domain.ClassSeenBefore)
	m.Notified(true)
	m.Notified(false)
	m.FetchFailed()
	m.RunFinished(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Candidates.WithLabelValues("match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Candidates.WithLabelValues("seen_before")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("ok")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.Classified(domain.ClassNoMatch)
		m.Notified(true)
		m.FetchFailed()
		m.PersistFailed()
		m.RunFinished(false)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	m := New()
	m.RunFinished(false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `esdm_monitor_runs_total{result="listing_unavailable"} 1`)
}
