// Package http provides HTTP handlers and middleware for authentication and
// user management.
package http

import (
	"context"

	userUsecase "github.com/allisson/identity/internal/user/usecase"
)

// authInfoKey is a context key type for storing the authenticated session.
type authInfoKey struct{}

// WithAuthInfo stores the validated session in the context. Called by the
// authentication middleware after successful token validation.
func WithAuthInfo(ctx context.Context, info *userUsecase.AuthInfo) context.Context {
	return context.WithValue(ctx, authInfoKey{}, info)
}

// GetAuthInfo retrieves the validated session from the context. Returns
// (info, true) if present, (nil, false) otherwise.
func GetAuthInfo(ctx context.Context) (*userUsecase.AuthInfo, bool) {
	info, ok := ctx.Value(authInfoKey{}).(*userUsecase.AuthInfo)
	return info, ok
}
