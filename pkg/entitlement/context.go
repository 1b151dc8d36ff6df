package entitlement

import (
	"context"
	"errors"
)

type principalCtxKey struct{}

// SetPrincipalToContext stores the principal in the context for downstream access.
func SetPrincipalToContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// GetPrincipalFromContext retrieves the principal from the context, if present.
func GetPrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(Principal)
	return p, ok
}

// RequirePrincipalFromContext retrieves the principal from the context or
// reports its absence with ErrPrincipalNotInContext.
func RequirePrincipalFromContext(ctx context.Context) (Principal, error) {
	p, ok := GetPrincipalFromContext(ctx)
	if !ok {
		return Principal{}, errors.Join(ErrNoPrincipal, ErrPrincipalNotInContext)
	}
	return p, nil
}
