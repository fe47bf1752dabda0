package middlewares

import (
	"context"

	"github.com/dropDatabas3/gatekeep/internal/domain/types"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyUser
)

// setRequestID guarda el Request ID en el contexto.
func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, rid)
}

// GetRequestID retorna el Request ID del contexto, o "" si no hay.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// WithUser guarda el usuario autenticado en el contexto.
func WithUser(ctx context.Context, u *types.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, u)
}

// GetUser retorna el usuario autenticado del contexto, o nil si no hay.
func GetUser(ctx context.Context) *types.User {
	if v, ok := ctx.Value(ctxKeyUser).(*types.User); ok {
		return v
	}
	return nil
}
