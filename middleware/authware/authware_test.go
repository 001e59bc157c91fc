package authware_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagewright/auth"
	"github.com/pagewright/auth/middleware/authware"
)

type stubConfig struct {
	accessTTL time.Duration
}

func (c stubConfig) GetAccessSigningKey() string  { return "authware-access-secret" }
func (c stubConfig) GetRefreshSigningKey() string { return "authware-refresh-secret" }
func (c stubConfig) GetAccessTokenTTL() time.Duration {
	if c.accessTTL != 0 {
		return c.accessTTL
	}
	return time.Minute
}
func (c stubConfig) GetRefreshTokenTTL() time.Duration { return time.Hour }
func (c stubConfig) GetIssuer() string                 { return "authware-test" }
func (c stubConfig) GetAudience() []string             { return nil }
func (c stubConfig) GetAuthScheme() string             { return auth.DefaultAuthScheme }
func (c stubConfig) GetCookieName() string             { return auth.DefaultCookieName }
func (c stubConfig) GetCookieSecure() bool             { return false }

func newTestApp(t *testing.T, verifier authware.TokenVerifier) *fiber.App {
	t.Helper()

	app := fiber.New()
	app.Use(authware.New(authware.Config{Verifier: verifier}))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		accountID, err := auth.RequireAuthenticated(c.UserContext())
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendString(accountID.String())
	})

	return app
}

func TestAuthwareHeaderToken(t *testing.T) {
	tokens := auth.NewTokenService(stubConfig{}, nil)
	app := newTestApp(t, tokens)

	accountID := uuid.New()
	token, err := tokens.IssueAccess(accountID)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, accountID.String(), string(body))
}

func TestAuthwareSchemeIsCaseInsensitive(t *testing.T) {
	tokens := auth.NewTokenService(stubConfig{}, nil)
	app := newTestApp(t, tokens)

	token, err := tokens.IssueAccess(uuid.New())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "bearer "+token)

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestAuthwareCookieFallback(t *testing.T) {
	tokens := auth.NewTokenService(stubConfig{}, nil)
	app := newTestApp(t, tokens)

	token, err := tokens.IssueAccess(uuid.New())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Cookie", "access_token="+token)

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestAuthwareUnauthenticated(t *testing.T) {
	tokens := auth.NewTokenService(stubConfig{}, nil)
	app := newTestApp(t, tokens)

	expiredTokens := auth.NewTokenService(stubConfig{accessTTL: -time.Minute}, nil)
	expired, err := expiredTokens.IssueAccess(uuid.New())
	require.NoError(t, err)

	valid, err := tokens.IssueAccess(uuid.New())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		cookie string
	}{
		{name: "no token"},
		{name: "garbled token", header: "Bearer not.a.jwt"},
		{name: "expired token", header: "Bearer " + expired},
		{name: "wrong scheme keeps token unread", header: "Basic " + valid},
		{name: "garbled cookie", cookie: "access_token=not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			if tt.cookie != "" {
				req.Header.Set("Cookie", tt.cookie)
			}

			res, err := app.Test(req)
			require.NoError(t, err)
			// Absent, malformed, and expired tokens are indistinguishable
			// downstream: all leave the request unauthenticated.
			assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
		})
	}
}

func TestAuthwareFilterSkips(t *testing.T) {
	tokens := auth.NewTokenService(stubConfig{}, nil)

	app := fiber.New()
	app.Use(authware.New(authware.Config{
		Verifier: tokens,
		Filter:   func(c *fiber.Ctx) bool { return c.Path() == "/health" },
	}))
	app.Get("/health", func(c *fiber.Ctx) error {
		_, ok := authware.ClaimsFromLocals(c, "")
		assert.False(t, ok)
		return c.SendStatus(fiber.StatusOK)
	})

	token, err := tokens.IssueAccess(uuid.New())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestAuthwareRequiresVerifier(t *testing.T) {
	assert.Panics(t, func() { authware.New() })
}
