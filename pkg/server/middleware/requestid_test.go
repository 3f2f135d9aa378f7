package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveWithRequestID(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()

	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, seen
}

func TestRequestIDMiddleware_GeneratesUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w, seen := serveWithRequestID(t, req)

	id := w.Header().Get(RequestIDHeader)
	if id == "" {
		t.Fatal("expected a request ID on the response")
	}
	if len(id) != 36 || strings.Count(id, "-") != 4 {
		t.Errorf("expected UUID-shaped ID, got %q", id)
	}
	if seen != id {
		t.Errorf("handler saw %q, response carries %q", seen, id)
	}
}

func TestRequestIDMiddleware_KeepsClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "caller-trace-7")

	w, seen := serveWithRequestID(t, req)

	if got := w.Header().Get(RequestIDHeader); got != "caller-trace-7" {
		t.Errorf("response ID = %q, want caller-trace-7", got)
	}
	if seen != "caller-trace-7" {
		t.Errorf("context ID = %q, want caller-trace-7", seen)
	}
}

func TestRequestIDMiddleware_UniquePerRequest(t *testing.T) {
	w1, _ := serveWithRequestID(t, httptest.NewRequest(http.MethodGet, "/test", nil))
	w2, _ := serveWithRequestID(t, httptest.NewRequest(http.MethodGet, "/test", nil))

	id1 := w1.Header().Get(RequestIDHeader)
	id2 := w2.Header().Get(RequestIDHeader)
	if id1 == id2 {
		t.Errorf("two requests share the ID %q", id1)
	}
}

func TestGetRequestID_EmptyWithoutMiddleware(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("expected empty ID on a bare context, got %q", id)
	}
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	if id := GetRequestID(ctx); id != "req-42" {
		t.Errorf("GetRequestID = %q, want req-42", id)
	}
}
