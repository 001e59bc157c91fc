package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenServiceImpl implements the TokenService interface. Access and refresh
// tokens are signed with separate symmetric keys so a token of one class can
// never verify against the other.
type TokenServiceImpl struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg Config, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		accessKey:  []byte(cfg.GetAccessSigningKey()),
		refreshKey: []byte(cfg.GetRefreshSigningKey()),
		accessTTL:  cfg.GetAccessTokenTTL(),
		refreshTTL: cfg.GetRefreshTokenTTL(),
		issuer:     cfg.GetIssuer(),
		audience:   cfg.GetAudience(),
		logger:     logger,
	}
}

// IssueAccess mints a short-lived access token bound to accountID.
func (ts *TokenServiceImpl) IssueAccess(accountID uuid.UUID) (string, error) {
	return ts.sign(accountID, ts.accessKey, ts.accessTTL)
}

// IssueRefresh mints a long-lived refresh token bound to accountID. The
// caller is responsible for persisting the matching session row.
func (ts *TokenServiceImpl) IssueRefresh(accountID uuid.UUID) (string, error) {
	return ts.sign(accountID, ts.refreshKey, ts.refreshTTL)
}

// VerifyAccess parses and validates an access token. Signature mismatch,
// malformed structure, and expiry all collapse into ErrInvalidToken.
func (ts *TokenServiceImpl) VerifyAccess(token string) (*TokenClaims, error) {
	claims, err := ts.verify(token, ts.accessKey)
	if err != nil {
		ts.logger.Debug("access token %s: %v", rejectCause(err), err)
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh has the identical contract against the refresh secret.
func (ts *TokenServiceImpl) VerifyRefresh(token string) (*TokenClaims, error) {
	claims, err := ts.verify(token, ts.refreshKey)
	if err != nil {
		ts.logger.Debug("refresh token %s: %v", rejectCause(err), err)
		return nil, ErrInvalidRefreshToken
	}
	return claims, nil
}

// rejectCause names the failure for the server log. Callers still collapse
// every cause into the class error; the distinction never leaves the process.
func rejectCause(err error) string {
	switch {
	case IsTokenExpiredError(err):
		return "expired"
	case IsMalformedError(err):
		return "malformed"
	default:
		return "rejected"
	}
}

func (ts *TokenServiceImpl) sign(accountID uuid.UUID, key []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   accountID.String(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		UID: accountID.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

func (ts *TokenServiceImpl) verify(tokenString string, key []byte) (*TokenClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token verify encountered unexpected signing method %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, parserOptions...)

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("unable to decode claims")
	}

	return claims, nil
}
