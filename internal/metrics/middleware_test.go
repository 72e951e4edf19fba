package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/rankings", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
		})
		r.Get("/rankings/{id}", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})
		r.Delete("/documents/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
	r.Get("/health", func(http.ResponseWriter, *http.Request) {})
	return r
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	h := newTestRouter()

	tests := []struct {
		method string
		path   string
		route  string
		status string
	}{
		{http.MethodPost, "/v1/rankings", "/v1/rankings", "201"},
		{http.MethodGet, "/v1/rankings/rk-1", "/v1/rankings/{id}", "200"},
		{http.MethodDelete, "/v1/documents/cv.pdf", "/v1/documents/{id}", "204"},
		{http.MethodGet, "/health", "/health", "200"},
		{http.MethodGet, "/no/such/path", routeUnmatched, "404"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			counter := HTTPRequestsTotal.WithLabelValues(tt.method, tt.route, tt.status)
			before := testutil.ToFloat64(counter)

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, http.NoBody))

			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("requests_total{route=%q,status=%q} grew by %v, want 1", tt.route, tt.status, got)
			}
		})
	}

	if testutil.CollectAndCount(HTTPRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds observations")
	}
}

func TestMiddleware_InFlightReturnsToZero(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	var during float64
	r.Get("/slow", func(http.ResponseWriter, *http.Request) {
		during = testutil.ToFloat64(HTTPRequestsInFlight)
	})

	before := testutil.ToFloat64(HTTPRequestsInFlight)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", http.NoBody))

	if during != before+1 {
		t.Errorf("in flight during request = %v, want %v", during, before+1)
	}
	if after := testutil.ToFloat64(HTTPRequestsInFlight); after != before {
		t.Errorf("in flight after request = %v, want %v", after, before)
	}
}

func TestRouteLabel_WithoutRouter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
	if got := routeLabel(req); got != routeUnmatched {
		t.Errorf("routeLabel = %q, want %q", got, routeUnmatched)
	}
}
