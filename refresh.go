package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshFlow owns the refresh session lifecycle: Issued -> Valid ->
// {Refreshed | Revoked | Expired}. Redeem does NOT rotate the refresh token:
// the same token remains redeemable until its absolute expiry. That keeps
// concurrent legitimate refreshes free of lost updates, at the cost of
// single-use guarantees for leaked tokens. Treat as a policy choice, not a
// bug to harden silently.
type RefreshFlow struct {
	tokens   TokenService
	sessions RefreshSessions
	ttl      time.Duration
	logger   Logger
	now      func() time.Time
}

// NewRefreshFlow wires the flow from the token service and session store.
func NewRefreshFlow(tokens TokenService, sessions RefreshSessions, cfg Config, logger Logger) *RefreshFlow {
	if logger == nil {
		logger = defLogger{}
	}
	return &RefreshFlow{
		tokens:   tokens,
		sessions: sessions,
		ttl:      cfg.GetRefreshTokenTTL(),
		logger:   logger,
		now:      time.Now,
	}
}

// Issue mints a refresh token for accountID and persists the session row.
// One row per successful login, registration, or external callback.
func (f *RefreshFlow) Issue(ctx context.Context, accountID uuid.UUID) (string, error) {
	token, err := f.tokens.IssueRefresh(accountID)
	if err != nil {
		return "", err
	}

	_, err = f.sessions.Create(ctx, &RefreshSession{
		Token:     token,
		AccountID: accountID,
		ExpiresAt: f.now().Add(f.ttl),
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

// Redeem exchanges a valid refresh token for a new access token. The stored
// expiry is authoritative; a session found expired is deleted on the spot so
// a repeat attempt fails with ErrRefreshTokenNotFound.
func (f *RefreshFlow) Redeem(ctx context.Context, token string) (string, *TokenClaims, error) {
	if _, err := f.tokens.VerifyRefresh(token); err != nil {
		return "", nil, err
	}

	session, err := f.sessions.FindByToken(ctx, token)
	if err != nil {
		return "", nil, err
	}

	if session.Expired(f.now()) {
		if err := f.sessions.DeleteByID(ctx, session.ID); err != nil {
			f.logger.Warn("failed to delete expired refresh session %s: %v", session.ID, err)
		}
		return "", nil, ErrRefreshTokenExpired
	}

	access, err := f.tokens.IssueAccess(session.AccountID)
	if err != nil {
		return "", nil, err
	}

	claims, err := f.tokens.VerifyAccess(access)
	if err != nil {
		return "", nil, err
	}

	return access, claims, nil
}

// Revoke deletes the session matching the token value. Idempotent: revoking
// an unknown or already revoked token succeeds.
func (f *RefreshFlow) Revoke(ctx context.Context, token string) error {
	return f.sessions.DeleteByToken(ctx, token)
}

// RevokeAll cascade-invalidates every session owned by an account, for use
// by administrative account deletion.
func (f *RefreshFlow) RevokeAll(ctx context.Context, accountID uuid.UUID) error {
	return f.sessions.DeleteByAccountID(ctx, accountID)
}
