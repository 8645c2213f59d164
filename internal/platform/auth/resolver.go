package auth

import "context"

// UserResolver reports who is acting on behalf of the current request. An
// empty id with a nil error means no authenticated user.
type UserResolver interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// ContextUserResolver reads the user stored by JWTMiddleware or DevAuthMiddleware.
type ContextUserResolver struct{}

func (ContextUserResolver) CurrentUserID(ctx context.Context) (string, error) {
	return UserIDFromContext(ctx), nil
}
