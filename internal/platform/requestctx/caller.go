// Package requestctx carries per-request identity through context values.
package requestctx

import "context"

// callerContextKey is the context key for the authenticated caller account.
type callerContextKey struct{}

// WithCaller stores the verified caller account identifier in context.
func WithCaller(ctx context.Context, account string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerContextKey{}, account)
}

// CallerFromContext returns the caller account identifier stored in context.
func CallerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(callerContextKey{}).(string)
	return value
}
