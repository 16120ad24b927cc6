package httpmetrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/postgraph/internal/observability/metrics"
)

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"":               "/",
		"/":              "/",
		"/graphql":       "/graphql",
		"/users/42":      "/users/{param}",
		"/users/42/post": "/users/{param}/post",
		"/v2/items":      "/v2/items",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePath(in), in)
	}
}

func TestCollector_CountsRequests(t *testing.T) {
	counter := metrics.GatewayRequestsTotal.WithLabelValues(http.MethodGet, "/things/{param}")
	before := testutil.ToFloat64(counter)

	h := New().Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/7", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestStatusRecorder_Hijack(t *testing.T) {
	srv := httptest.NewServer(New().Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, rw, err := hj.Hijack()
		require.NoError(t, err)
		defer conn.Close()
		_, _ = rw.WriteString("HTTP/1.1 204 No Content\r\n\r\n")
		_ = rw.Flush()
	})))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	_, _, err = rec.Hijack()
	assert.Error(t, err)
}
