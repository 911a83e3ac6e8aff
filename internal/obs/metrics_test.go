package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTokenCounters(t *testing.T) {
	m := New()

	m.TokenIssued()
	m.TokenIssued()
	require.Equal(t, 2.0, testutil.ToFloat64(m.tokensIssued))

	m.TokensRevoked(1)
	m.TokensRevoked(3)
	require.Equal(t, 4.0, testutil.ToFloat64(m.tokensRevoked))

	m.AuthFailure("invalid_token")
	m.AuthFailure("invalid_token")
	m.AuthFailure("permission_denied")
	require.Equal(t, 2.0, testutil.ToFloat64(m.authFailures.WithLabelValues("invalid_token")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.authFailures.WithLabelValues("permission_denied")))
}

func TestHTTPMiddlewareLabelsByPattern(t *testing.T) {
	m := New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(m.HTTPMiddleware(mux))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/api/users/abc")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "GET /api/users/{id}", "404"))
	require.Equal(t, 1.0, got, "requests are labeled by registered pattern, not raw path")
}
