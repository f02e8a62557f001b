package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

func TestRequestIDKeepsWellFormedCallerID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(types.RequestIDHeader)
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set(types.RequestIDHeader, "gw-7f3a.01")
	rec := httptest.NewRecorder()
	RequestID(logger.Nop())(next).ServeHTTP(rec, req)

	if got := rec.Header().Get(types.RequestIDHeader); got != "gw-7f3a.01" {
		t.Fatalf("expected caller id echoed, got %q", got)
	}
	if seen != "gw-7f3a.01" {
		t.Fatalf("handler saw %q", seen)
	}
}

func TestRequestIDReplacesMalformedCallerID(t *testing.T) {
	for _, bad := range []string{"", "has spaces", "<script>", strings.Repeat("a", maxRequestIDLength+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(types.RequestIDHeader, bad)
		rec := httptest.NewRecorder()
		RequestID(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, req)

		got := rec.Header().Get(types.RequestIDHeader)
		if _, err := uuid.Parse(got); err != nil {
			t.Fatalf("%q: expected generated uuid, got %q", bad, got)
		}
	}
}

func TestRecovererWritesInternalErrorWithRequestID(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil cart")
	})
	handler := RequestID(logger.Nop())(Recoverer(logger.Nop())(panicking))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set(types.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "INTERNAL_ERROR" || body.RequestID != "req-42" {
		t.Fatalf("unexpected envelope %+v", body)
	}
	if strings.Contains(body.Error.Message, "nil cart") {
		t.Fatalf("panic value leaked: %q", body.Error.Message)
	}
}

func TestRecovererRepanicsOnAbort(t *testing.T) {
	aborting := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	})
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected abort to propagate, got %v", rec)
		}
	}()
	Recoverer(logger.Nop())(aborting).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
