package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHTTPMetricsLabelsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/v1/orders/{orderId}", 200, 10*time.Millisecond)
	m.Observe("GET", "/api/v1/orders/{orderId}", 200, 20*time.Millisecond)
	m.Observe("GET", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_http_requests_total", "route", "/api/v1/orders/{orderId}"); err != nil || got != 2 {
		t.Fatalf("expected 2 requests for the order route, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_http_requests_total", "route", "unmatched"); err != nil || got != 1 {
		t.Fatalf("expected 1 unmatched request, got %f err=%v", got, err)
	}

	var nilMetrics *HTTPMetrics
	nilMetrics.Observe("GET", "/", 200, time.Millisecond)
}
