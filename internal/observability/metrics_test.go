package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	m := NewMetrics()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/movements", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()
	require.Contains(t, body, "stockroom_http_requests_total")
	require.Contains(t, body, `code="201"`)
}

func TestMovementPostedCounter(t *testing.T) {
	m := NewMetrics()
	m.MovementPosted("receive")
	m.MovementPosted("receive")
	m.MovementPosted("issue")

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()
	require.True(t, strings.Contains(body, `stockroom_movements_posted_total{reason="receive"} 2`), body)
	require.True(t, strings.Contains(body, `stockroom_movements_posted_total{reason="issue"} 1`), body)
}
