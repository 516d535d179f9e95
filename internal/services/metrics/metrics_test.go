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

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.ObserveQuery(StatusOK, 1500*time.Millisecond, 2)
	m.ObserveQuery(StatusError, time.Second, 0)
	m.IncToolCall("search_course_content")
	m.IncToolCall("search_course_content")
	m.AddIngested(2, 40)
	m.SetCourseCount(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues(StatusError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("search_course_content")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ingestedCourses))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.ingestedChunks))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.courses))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.IncToolCall("get_course_outline")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `syllabus_tool_calls_total{tool="get_course_outline"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveQuery(StatusOK, time.Second, 1)
		m.IncToolCall("x")
		m.AddIngested(1, 1)
		m.SetCourseCount(1)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
