package identity

import (
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/pagewright/auth"
)

// idTokenClaims are the OIDC claims this subsystem cares about. Everything
// else in the provider token is ignored.
type idTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// IDTokenVerifier maps a provider-issued ID token to a callback Profile,
// verifying its signature against the provider's JWKS. The OAuth handshake
// that obtained the token is performed elsewhere; this only decodes its
// result for deployments that hand over the raw ID token.
type IDTokenVerifier struct {
	jwks     *keyfunc.JWKS
	issuer   string
	audience []string
}

// NewIDTokenVerifier fetches and caches the provider JWKS. The key set
// refreshes in the background for the lifetime of the process.
func NewIDTokenVerifier(jwksURL, issuer string, audience ...string) (*IDTokenVerifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWK set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("identity: failed to get JWK set: %w", err)
	}

	return &IDTokenVerifier{
		jwks:     jwks,
		issuer:   issuer,
		audience: audience,
	}, nil
}

// Verify validates the raw ID token and extracts the callback profile. Any
// signature, structure, or expiry failure collapses into ErrInvalidToken.
func (v *IDTokenVerifier) Verify(raw string) (*Profile, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if v.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(v.issuer))
	}
	if len(v.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(v.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, &idTokenClaims{}, v.jwks.Keyfunc, parserOptions...)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}

	claims, ok := token.Claims.(*idTokenClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, auth.ErrInvalidToken
	}

	return &Profile{
		Subject:     claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}, nil
}
