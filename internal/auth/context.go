// context.go stores verified claims in the request context so handlers
// downstream of the auth middleware can read the caller's identity
// without re-parsing the credential.
package auth

import "context"

type ctxKey struct{} // unexported, collision-proof

// NewContext returns ctx with the verified claims attached.
func NewContext(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the claims stored by the auth middleware, or nil
// if the middleware has not run.
func FromContext(ctx context.Context) *Claims {
	v, _ := ctx.Value(ctxKey{}).(*Claims)
	return v
}
