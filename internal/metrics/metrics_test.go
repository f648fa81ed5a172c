package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	m.Observe("login", "", 0.01)
	m.Observe("login", "unauthorized", 0.02)
	m.Observe("login", "unauthorized", 0.02)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues("login", OutcomeSuccess, "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ops.WithLabelValues("login", OutcomeFailure, "unauthorized")))
}

func TestNilIsNoop(t *testing.T) {
	var m *Auth
	m.Observe("login", "", 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler(t *testing.T) {
	m := New()
	m.Observe("refresh", "conflict", 0.1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `devtube_auth_operations_total{code="conflict",op="refresh",outcome="failure"} 1`)
}
