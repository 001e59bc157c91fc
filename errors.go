package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials   = "auth_invalid_credentials"
	TextCodeDuplicateUsername    = "auth_duplicate_username"
	TextCodeDuplicateEmail       = "auth_duplicate_email"
	TextCodeDuplicateIdentity    = "auth_duplicate_external_identity"
	TextCodeInvalidToken         = "auth_invalid_token"
	TextCodeInvalidRefreshToken  = "auth_invalid_refresh_token"
	TextCodeRefreshTokenNotFound = "auth_refresh_token_not_found"
	TextCodeRefreshTokenExpired  = "auth_refresh_token_expired"
	TextCodeNotAuthenticated     = "auth_not_authenticated"
	TextCodeAdminRequired        = "auth_admin_required"
	TextCodeEmptyPassword        = "auth_empty_password"
	TextCodePasswordMismatch     = "auth_password_mismatch"
	TextCodeAccountNotFound      = "auth_account_not_found"
)

// ErrInvalidCredentials covers unknown usernames, wrong passwords, and
// password logins against identity-only accounts. Callers must not be able
// to tell those cases apart.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateUsername is returned when a username is already taken.
var ErrDuplicateUsername = errors.New("username already taken", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateUsername).
	WithCode(errors.CodeConflict)

// ErrDuplicateEmail is returned when an email is already registered.
var ErrDuplicateEmail = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeConflict)

// ErrDuplicateExternalIdentity is returned when an external subject id is
// already linked to another account.
var ErrDuplicateExternalIdentity = errors.New("external identity already linked", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateIdentity).
	WithCode(errors.CodeConflict)

// ErrInvalidToken is returned when an access token fails signature or
// structural validation, or is expired.
var ErrInvalidToken = errors.New("invalid access token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidRefreshToken is the refresh-secret counterpart of ErrInvalidToken.
var ErrInvalidRefreshToken = errors.New("invalid refresh token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidRefreshToken).
	WithCode(errors.CodeUnauthorized)

// ErrRefreshTokenNotFound is returned when a cryptographically valid refresh
// token has no matching session row, i.e. it was revoked or never persisted.
var ErrRefreshTokenNotFound = errors.New("refresh session not found", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshTokenNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrRefreshTokenExpired is returned when the stored session expiry has
// passed. The session row is removed as a side effect of discovery.
var ErrRefreshTokenExpired = errors.New("refresh session expired", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrNotAuthenticated is returned when an operation requires an
// authenticated context and none is present.
var ErrNotAuthenticated = errors.New("not authenticated", errors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrAdminRequired is returned when an operation requires the admin role.
var ErrAdminRequired = errors.New("admin role required", errors.CategoryAuthz).
	WithTextCode(TextCodeAdminRequired).
	WithCode(errors.CodeForbidden)

// ErrEmptyPassword rejects hashing of empty passwords.
var ErrEmptyPassword = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrPasswordMismatch is the internal digest-comparison failure. Exposed
// operations map it to ErrInvalidCredentials.
var ErrPasswordMismatch = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(errors.CodeUnauthorized)

// ErrAccountNotFound is returned by account lookups that miss.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// MapDuplicateConstraint inspects a storage-layer error for a unique
// constraint violation on the accounts table and returns the matching typed
// conflict. Recognizes both Postgres ("duplicate key value ...") and SQLite
// ("UNIQUE constraint failed: accounts.username") phrasing. Returns nil for
// anything else so callers can fall through.
func MapDuplicateConstraint(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") &&
		!strings.Contains(msg, "duplicate key value") {
		return nil
	}

	switch {
	case strings.Contains(msg, "username"):
		return ErrDuplicateUsername
	case strings.Contains(msg, "email"):
		return ErrDuplicateEmail
	case strings.Contains(msg, "subject_id"):
		return ErrDuplicateExternalIdentity
	}

	return nil
}

// IsDuplicateConstraint reports whether err maps to one of the typed
// duplicate conflicts. Duplicate conflicts are retryable by the caller.
func IsDuplicateConstraint(err error) bool {
	return MapDuplicateConstraint(err) != nil
}

// IsTokenExpiredError checks for expired token errors coming out of the JWT
// library before they are normalized.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError checks for structurally broken tokens.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
