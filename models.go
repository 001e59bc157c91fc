package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the account's role flag
type Role = string

const (
	// RoleMember is an ordinary account
	RoleMember Role = "member"
	// RoleAdmin gates administrative operations
	RoleAdmin Role = "admin"
)

// Account represents a principal. At least one of PasswordHash or SubjectID
// must eventually be set for the account to authenticate; username is always
// present and globally unique, email and subject id are unique when present.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,unique,nullzero" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,nullzero" json:"-"`
	SubjectID     string     `bun:"subject_id,unique,nullzero" json:"-"`
	Role          Role       `bun:"role,notnull" json:"role,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsAdmin reports whether the account passes the admin gate.
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// HasPassword reports whether the account can authenticate locally. False
// for identity-only accounts created through the external callback.
func (a *Account) HasPassword() bool {
	return a != nil && a.PasswordHash != ""
}

// RefreshSession represents one issued refresh token. Rows are never
// mutated in place: they are created when a token pair is minted and deleted
// on logout or on discovered expiry.
type RefreshSession struct {
	bun.BaseModel `bun:"table:refresh_sessions,alias:rs"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"-"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	Account       *Account   `bun:"rel:belongs-to,join:account_id=id" json:"-"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Expired evaluates the stored expiry against the given instant.
func (s *RefreshSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
