package auth

import "time"

const (
	// DefaultAccessTokenTTL is the access token lifetime.
	DefaultAccessTokenTTL = 15 * time.Minute
	// DefaultRefreshTokenTTL is the refresh token lifetime.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	// DefaultCookieName carries the refresh token on browser clients.
	DefaultCookieName = "refresh_token"
	// DefaultAuthScheme prefixes bearer tokens in the Authorization header.
	DefaultAuthScheme = "Bearer"
)

// SimpleConfig is an immutable Config built once at process start.
type SimpleConfig struct {
	accessKey    string
	refreshKey   string
	accessTTL    time.Duration
	refreshTTL   time.Duration
	issuer       string
	audience     []string
	authScheme   string
	cookieName   string
	cookieSecure bool
}

type ConfigOption func(*SimpleConfig)

// NewConfig builds a SimpleConfig from the two signing secrets plus options.
func NewConfig(accessKey, refreshKey string, opts ...ConfigOption) *SimpleConfig {
	cfg := &SimpleConfig{
		accessKey:  accessKey,
		refreshKey: refreshKey,
		accessTTL:  DefaultAccessTokenTTL,
		refreshTTL: DefaultRefreshTokenTTL,
		authScheme: DefaultAuthScheme,
		cookieName: DefaultCookieName,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	return cfg
}

func WithAccessTokenTTL(ttl time.Duration) ConfigOption {
	return func(c *SimpleConfig) {
		if ttl > 0 {
			c.accessTTL = ttl
		}
	}
}

func WithRefreshTokenTTL(ttl time.Duration) ConfigOption {
	return func(c *SimpleConfig) {
		if ttl > 0 {
			c.refreshTTL = ttl
		}
	}
}

func WithIssuer(issuer string) ConfigOption {
	return func(c *SimpleConfig) {
		c.issuer = issuer
	}
}

func WithAudience(audience ...string) ConfigOption {
	return func(c *SimpleConfig) {
		c.audience = append([]string(nil), audience...)
	}
}

func WithCookieName(name string) ConfigOption {
	return func(c *SimpleConfig) {
		if name != "" {
			c.cookieName = name
		}
	}
}

// WithSecureCookies should follow the deployment environment: enabled
// everywhere TLS terminates.
func WithSecureCookies(secure bool) ConfigOption {
	return func(c *SimpleConfig) {
		c.cookieSecure = secure
	}
}

var _ Config = (*SimpleConfig)(nil)

func (c *SimpleConfig) GetAccessSigningKey() string { return c.accessKey }

func (c *SimpleConfig) GetRefreshSigningKey() string { return c.refreshKey }

func (c *SimpleConfig) GetAccessTokenTTL() time.Duration { return c.accessTTL }

func (c *SimpleConfig) GetRefreshTokenTTL() time.Duration { return c.refreshTTL }

func (c *SimpleConfig) GetIssuer() string { return c.issuer }

func (c *SimpleConfig) GetAudience() []string {
	return append([]string(nil), c.audience...)
}

func (c *SimpleConfig) GetAuthScheme() string { return c.authScheme }

func (c *SimpleConfig) GetCookieName() string { return c.cookieName }

func (c *SimpleConfig) GetCookieSecure() bool { return c.cookieSecure }
