package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()
	m.ObserveTool("query_collection", true, 10*time.Millisecond)
	m.ObserveTool("query_collection", false, 5*time.Millisecond)
	m.ObserveLLM("openai", "plan", true, time.Second)
	m.ObservePreview(http.StatusOK)
	m.ObservePreview(http.StatusOK)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("query_collection", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("query_collection", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmCalls.WithLabelValues("openai", "plan", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.previews.WithLabelValues("200")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTool("x", true, time.Millisecond)
		m.ObserveLLM("openai", "plan", false, time.Millisecond)
		m.ObservePreview(500)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObservePreview(http.StatusBadRequest)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `agent_preview_requests_total{status="400"} 1`)
}
