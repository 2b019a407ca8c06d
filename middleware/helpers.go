package middleware

import (
	"context"
	"errors"
)

type contextKey string

const claimsContextKey contextKey = "claims"

var ErrNoIdentity = errors.New("user claims not found in context")

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, ErrNoIdentity
	}
	return claims, nil
}

func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, err := GetClaimsFromContext(ctx)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// OptionalUserID returns nil for anonymous requests.
func OptionalUserID(ctx context.Context) *int {
	claims, err := GetClaimsFromContext(ctx)
	if err != nil {
		return nil
	}
	id := claims.UserID
	return &id
}
