package env

import "testing"

func TestGetPrefersPrefixedVariable(t *testing.T) {
	t.Setenv("STOREFRONT_LOG_FORMAT", "console")
	t.Setenv("LOG_FORMAT", "json")
	if got := Get("LOG_FORMAT", "plain"); got != "console" {
		t.Fatalf("expected prefixed value, got %q", got)
	}
	if got := Get("STOREFRONT_LOG_FORMAT", "plain"); got != "console" {
		t.Fatalf("prefixed key should resolve the same, got %q", got)
	}
}

func TestGetFallsBack(t *testing.T) {
	t.Setenv("STOREFRONT_LOG_FORMAT", "  ")
	t.Setenv("LOG_FORMAT", "json")
	if got := Get("LOG_FORMAT", "plain"); got != "json" {
		t.Fatalf("expected bare value, got %q", got)
	}
	t.Setenv("LOG_FORMAT", "")
	if got := Get("LOG_FORMAT", "plain"); got != "plain" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
