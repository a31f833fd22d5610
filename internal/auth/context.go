// Package auth carries the authenticated caller's identity through request
// contexts.
package auth

import "context"

type contextKey int

const identityKey contextKey = 0

// Identity is the caller established by the auth middleware.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the caller's identity, or false when the request was
// not authenticated.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
