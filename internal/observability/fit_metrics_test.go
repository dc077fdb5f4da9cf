package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitMetrics_RecordFit(t *testing.T) {
	t.Parallel()

	meter, handler, err := PrometheusHandler()
	require.NoError(t, err)

	fm, err := NewFitMetrics(meter)
	require.NoError(t, err)

	fm.RecordFit(context.Background(), FitStats{
		Changepoints: 2,
		Iterations:   15000,
		Retained:     1000,
		Elapsed:      3 * time.Second,
	})
	fm.RecordFit(context.Background(), FitStats{Changepoints: 1, Failed: true})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()

	assert.Contains(t, body, "changefang_fit_runs_total")
	assert.Contains(t, body, `outcome="ok"`)
	assert.Contains(t, body, `outcome="error"`)
	assert.Contains(t, body, "changefang_fit_iterations_total")
}

func TestFitMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var fm *FitMetrics

	// Must be a safe no-op.
	fm.RecordFit(context.Background(), FitStats{Iterations: 10})
}
