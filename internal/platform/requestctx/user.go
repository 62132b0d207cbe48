// Package requestctx carries the resolved caller identity through a request.
package requestctx

import "context"

// ownerIDContextKey is the context key for the authenticated owner identity.
type ownerIDContextKey struct{}

// WithOwnerID stores the resolved owner identifier in context.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ownerIDContextKey{}, ownerID)
}

// OwnerIDFromContext returns the owner identifier stored in context.
// The second result is false when no identity was resolved.
func OwnerIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(ownerIDContextKey{}).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}
