// Package authware resolves the authenticated identity of inbound requests.
// It extracts a bearer token from the Authorization header with a cookie
// fallback, verifies it, and threads the account id through the request
// context. Verification failures downgrade to an unauthenticated context so
// public operations stay reachable; handlers that need authentication must
// enforce it with auth.RequireAuthenticated or Auther.RequireAdmin.
package authware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/pagewright/auth"
)

// TokenVerifier mirrors the access half of auth.TokenService.
type TokenVerifier interface {
	VerifyAccess(token string) (*auth.TokenClaims, error)
}

// ContextKey is the fiber locals key holding the verified claims.
const ContextKey = "auth_claims"

type Config struct {
	// Verifier is required.
	Verifier TokenVerifier
	// CookieName is the fallback cookie carrying the token. Defaults to
	// auth.DefaultCookieName's access sibling, "access_token".
	CookieName string
	// AuthScheme prefixes header tokens. Defaults to "Bearer".
	AuthScheme string
	// ContextKey overrides the locals key for verified claims.
	ContextKey string
	Logger     auth.Logger
	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool
}

// New returns the request authentication middleware.
func New(config ...Config) fiber.Handler {
	cfg := withDefaults(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw := ExtractToken(c, cfg.AuthScheme, cfg.CookieName)
		if raw == "" {
			// Not an error: many operations are public.
			return c.Next()
		}

		claims, err := cfg.Verifier.VerifyAccess(raw)
		if err != nil {
			cfg.Logger.Info("request token rejected, proceeding unauthenticated: %v", err)
			return c.Next()
		}

		accountID, err := claims.AccountID()
		if err != nil || accountID == uuid.Nil {
			cfg.Logger.Info("request token carries no account id, proceeding unauthenticated")
			return c.Next()
		}

		c.Locals(cfg.ContextKey, claims)
		c.SetUserContext(auth.WithAccountID(c.UserContext(), accountID))

		return c.Next()
	}
}

// ExtractToken prefers the Authorization header over the cookie fallback.
func ExtractToken(c *fiber.Ctx, authScheme, cookieName string) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header != "" {
		if authScheme == "" {
			return strings.TrimSpace(header)
		}
		prefix := authScheme + " "
		if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
		// A present but malformed header falls through to the cookie: at
		// this layer malformed and absent must be indistinguishable.
	}

	return c.Cookies(cookieName)
}

// ClaimsFromLocals returns the verified claims stored by the middleware.
func ClaimsFromLocals(c *fiber.Ctx, key string) (*auth.TokenClaims, bool) {
	if key == "" {
		key = ContextKey
	}
	claims, ok := c.Locals(key).(*auth.TokenClaims)
	return claims, ok
}

func withDefaults(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Verifier == nil {
		panic("AUTH: authware configuration: Verifier is required.")
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = auth.DefaultAuthScheme
	}

	if cfg.CookieName == "" {
		cfg.CookieName = "access_token"
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = ContextKey
	}

	if cfg.Logger == nil {
		cfg.Logger = auth.DefaultLogger()
	}

	return cfg
}
