package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func TestJSONWritesBareBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rr := httptest.NewRecorder()
	JSON(rr, req, http.StatusOK, []map[string]any{{"id": 1}})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var body []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected json array body: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestErrorIncludesRequestID(t *testing.T) {
	var rr *httptest.ResponseRecorder
	h := chimiddleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Error(w, r, http.StatusNotFound, "NOT_FOUND", "Produto não encontrado", nil)
	}))
	req := httptest.NewRequest(http.MethodGet, "/products/9", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "req-42")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var body ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rr.Code != http.StatusNotFound || body.Error != "Produto não encontrado" || body.Code != "NOT_FOUND" {
		t.Fatalf("unexpected error response %d %+v", rr.Code, body)
	}
	if body.RequestID != "req-42" {
		t.Fatalf("expected request id echoed, got %q", body.RequestID)
	}
}
