package requestctx

import (
	"context"
	"testing"
)

func TestCallerFromContextRoundTrip(t *testing.T) {
	ctx := WithCaller(context.Background(), "acct-42")
	if got := CallerFromContext(ctx); got != "acct-42" {
		t.Fatalf("CallerFromContext = %q, want %q", got, "acct-42")
	}
}

func TestCallerFromContextEmpty(t *testing.T) {
	if got := CallerFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestCallerFromContextNil(t *testing.T) {
	if got := CallerFromContext(nil); got != "" {
		t.Fatalf("expected empty string for nil context, got %q", got)
	}
}

func TestWithCallerNilContext(t *testing.T) {
	ctx := WithCaller(nil, "acct-99")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	if got := CallerFromContext(ctx); got != "acct-99" {
		t.Fatalf("CallerFromContext = %q, want %q", got, "acct-99")
	}
}
