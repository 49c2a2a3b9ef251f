package obscheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchTraceIDFromExemplar(t *testing.T) {
	const traceID = "0af7651916cd43dd8448eb211c80319c"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/api/datasources/proxy/7/api/v1/query_exemplars" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("query") != "product_operation_duration_seconds_bucket" {
			t.Errorf("unexpected exemplar query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"data":[{"exemplars":[{"labels":{"trace_id":"short"}},{"labels":{"trace_id":"` + traceID + `"}}]}]}`))
	}))
	defer srv.Close()

	opts := options{
		grafanaURL:      srv.URL,
		grafanaUser:     "admin",
		grafanaPassword: "secret",
		window:          time.Minute,
		exemplarMetric:  "product_operation_duration_seconds_bucket",
		prometheusDS:    "7",
	}
	got, err := fetchTraceIDFromExemplar(context.Background(), opts)
	if err != nil {
		t.Fatalf("fetch exemplar: %v", err)
	}
	if got != traceID {
		t.Fatalf("expected %s, got %s", traceID, got)
	}
}

func TestFetchTraceIDWithoutExemplars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	_, err := fetchTraceIDFromExemplar(context.Background(), options{grafanaURL: srv.URL, prometheusDS: "1"})
	if !errors.Is(err, errNoExemplar) {
		t.Fatalf("expected errNoExemplar, got %v", err)
	}
}

func TestVerifyTempoTraceRequiresBatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"batches":[]}`))
	}))
	defer srv.Close()

	if _, err := verifyTempoTrace(context.Background(), options{grafanaURL: srv.URL, tempoDS: "3"}, "abc"); err == nil {
		t.Fatal("expected error for empty trace")
	}
}

func TestVerifyTempoTraceCountsCatalogSpans(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/api/traces/abc") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"batches":[{"scopeSpans":[{"spans":[{"name":"http.server"},{"name":"product.delete"},{"name":"media.destroy"}]}]}]}`))
	}))
	defer srv.Close()

	sum, err := verifyTempoTrace(context.Background(), options{grafanaURL: srv.URL, tempoDS: "3"}, "abc")
	if err != nil {
		t.Fatalf("verify trace: %v", err)
	}
	if sum.Total != 3 || sum.Catalog != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestVerifyLokiTraceLogsQueriesTraceID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("query")
		if !strings.Contains(q, `service_name="product-catalog-api"`) || !strings.Contains(q, `"abc"`) {
			t.Errorf("unexpected loki query %q", q)
		}
		_, _ = w.Write([]byte(`{"data":{"result":[{"stream":{},"values":[]}]}}`))
	}))
	defer srv.Close()

	opts := options{grafanaURL: srv.URL, lokiDS: "2", serviceName: "product-catalog-api", window: time.Minute}
	if err := verifyLokiTraceLogs(context.Background(), opts, "abc"); err != nil {
		t.Fatalf("verify logs: %v", err)
	}
}

func TestGrafanaGETSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := grafanaGET(context.Background(), options{grafanaURL: srv.URL}, "/api/health", nil); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestPollRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := poll(context.Background(), time.Second, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errNoExemplar
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third call, got err=%v calls=%d", err, calls)
	}
}

func TestPollReturnsLastErrorAfterBudget(t *testing.T) {
	err := poll(context.Background(), 0, time.Millisecond, func() error { return errNoExemplar })
	if !errors.Is(err, errNoExemplar) {
		t.Fatalf("expected last error, got %v", err)
	}
}
