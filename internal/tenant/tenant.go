// Package tenant routes persistence calls to per-tenant Postgres schemas.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Tenant identifies one tenant schema. It is resolved once per request
// and threaded explicitly through every persistence call; the engine
// never interprets it beyond schema routing.
type Tenant string

// ErrInvalid indicates a tenant identifier that cannot name a schema.
var ErrInvalid = errors.New("tenant: invalid identifier")

var schemaPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// Parse validates a raw tenant identifier.
func Parse(raw string) (Tenant, error) {
	if !schemaPattern.MatchString(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	return Tenant(raw), nil
}

// Schema returns the Postgres schema name for query qualification.
// Safe to interpolate because Parse restricts the character set.
func (t Tenant) Schema() string {
	return string(t)
}

func (t Tenant) String() string {
	return string(t)
}

type contextKey struct{}

// WithTenant stores the tenant on the request context.
func WithTenant(ctx context.Context, t Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the tenant set by the routing middleware.
func FromContext(ctx context.Context) (Tenant, bool) {
	t, ok := ctx.Value(contextKey{}).(Tenant)
	return t, ok
}
