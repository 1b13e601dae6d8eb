package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newCatalogRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/v1/books", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":0}`))
	})
	r.Get("/api/v1/books/{slug}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "slug") == "mather-magnalia-1702" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	r.Delete("/api/v1/books/{slug}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return r
}

func serve(t *testing.T, r http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestMiddleware_CountsRequestsByRoute(t *testing.T) {
	r := newCatalogRouter()

	rr := serve(t, r, "GET", "/api/v1/books?q=sermon")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	count := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/books", "200"))
	if count < 1 {
		t.Errorf("http_requests_total = %f, want >= 1", count)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds observations")
	}
}

func TestMiddleware_UsesRoutePatternNotRawPath(t *testing.T) {
	r := newCatalogRouter()

	serve(t, r, "GET", "/api/v1/books/mather-magnalia-1702")
	serve(t, r, "GET", "/api/v1/books/winthrop-psalms-1640")

	// Both slugs land on the one chi pattern, keeping label cardinality bounded.
	found := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/books/{slug}", "200"))
	if found < 1 {
		t.Errorf("pattern-labeled 200 count = %f, want >= 1", found)
	}
	missed := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/books/{slug}", "404"))
	if missed < 1 {
		t.Errorf("pattern-labeled 404 count = %f, want >= 1", missed)
	}
}

func TestMiddleware_RecordsStatusAndMethod(t *testing.T) {
	r := newCatalogRouter()

	tests := []struct {
		name   string
		method string
		target string
		status string
		route  string
	}{
		{"health ok", "GET", "/health", "200", "/health"},
		{"delete no content", "DELETE", "/api/v1/books/win-100", "204", "/api/v1/books/{slug}"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			serve(t, r, tc.method, tc.target)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.route, tc.status))
			if val < 1 {
				t.Errorf("requests_total{%s %s %s} = %f, want >= 1", tc.method, tc.route, tc.status, val)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	if got := normalizePath(""); got != "unknown" {
		t.Errorf("normalizePath(\"\") = %q, want unknown", got)
	}
	if got := normalizePath("/api/v1/books"); got != "/api/v1/books" {
		t.Errorf("normalizePath passthrough = %q", got)
	}
}

func TestCatalogCollectors_Labels(t *testing.T) {
	ImportRowsTotal.WithLabelValues("nysl", "ok").Inc()
	ImportRowsTotal.WithLabelValues("nysl", "error").Inc()
	IndexSubmissionsTotal.WithLabelValues("book").Add(2)
	SearchRequestsTotal.WithLabelValues("parse_error").Inc()

	if v := testutil.ToFloat64(ImportRowsTotal.WithLabelValues("nysl", "ok")); v < 1 {
		t.Errorf("import_rows_total{nysl,ok} = %f, want >= 1", v)
	}
	if v := testutil.ToFloat64(IndexSubmissionsTotal.WithLabelValues("book")); v < 2 {
		t.Errorf("index_submissions_total{book} = %f, want >= 2", v)
	}
	if v := testutil.ToFloat64(SearchRequestsTotal.WithLabelValues("parse_error")); v < 1 {
		t.Errorf("search_requests_total{parse_error} = %f, want >= 1", v)
	}
}
