package handlers

import (
	"context"

	"eventmarket/internal/models"
)

type contextKey string

const (
	userContextKey  = contextKey("user")
	tokenContextKey = contextKey("session_token")
)

// ContextWithUser stores the authenticated user and its session token.
func ContextWithUser(ctx context.Context, user models.User, token string) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, tokenContextKey, token)
}

// UserFromContext returns the user stored by the session gate.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

func sessionTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// currentUser returns the gated user or ErrUnauthenticated.
func currentUser(ctx context.Context) (models.User, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return models.User{}, models.ErrUnauthenticated
	}
	return user, nil
}
