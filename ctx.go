package auth

import (
	"context"

	"github.com/google/uuid"
)

var accountCtxKey = &contextKey{"account_id"}

type contextKey struct {
	name string
}

// WithAccountID sets the authenticated account id in the given context.
func WithAccountID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, accountCtxKey, id)
}

// AccountIDFromContext finds the authenticated account id from the context.
func AccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(accountCtxKey).(uuid.UUID)
	return id, ok
}

// RequireAuthenticated enforces that the context carries an authenticated
// account. Absent, malformed, and expired tokens are indistinguishable here:
// all of them leave the context unauthenticated and fail the same way.
func RequireAuthenticated(ctx context.Context) (uuid.UUID, error) {
	id, ok := AccountIDFromContext(ctx)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNotAuthenticated
	}
	return id, nil
}
