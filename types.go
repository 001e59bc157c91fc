package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds auth options. Implementations must be immutable after
// construction; components read it only through their constructors.
type Config interface {
	GetAccessSigningKey() string
	GetRefreshSigningKey() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetAuthScheme() string
	GetCookieName() string
	GetCookieSecure() bool
}

// TokenService mints and verifies the two token classes. Verification is
// pure CPU work and never touches the store.
type TokenService interface {
	IssueAccess(accountID uuid.UUID) (string, error)
	IssueRefresh(accountID uuid.UUID) (string, error)
	VerifyAccess(token string) (*TokenClaims, error)
	VerifyRefresh(token string) (*TokenClaims, error)
}

// Accounts is the account store consumed by the auth flows. Uniqueness of
// username, email, and subject id is enforced at the storage layer.
type Accounts interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindBySubjectID(ctx context.Context, subjectID string) (*Account, error)
	Create(ctx context.Context, record *Account) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)
	Update(ctx context.Context, record *Account) (*Account, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) (*Account, error)
}

// RefreshSessions is the persisted record of issued refresh tokens.
type RefreshSessions interface {
	Create(ctx context.Context, session *RefreshSession) (*RefreshSession, error)
	FindByToken(ctx context.Context, token string) (*RefreshSession, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByAccountID(ctx context.Context, accountID uuid.UUID) error
}

// DefaultLogger returns the stdout fallback logger used when a component is
// constructed without one.
func DefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
