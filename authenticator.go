package auth

import (
	"context"
	"strings"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// ExternalResolver reconciles a third-party authentication callback against
// the account store. Implemented by identity.Resolver.
type ExternalResolver interface {
	Resolve(ctx context.Context, subjectID, email, displayName string) (*Account, bool, error)
}

// AuthResult is the outcome of an operation that authenticates a principal.
// The access token travels in-memory on the client; the refresh token goes
// into the HTTP-only cookie via the transport layer.
type AuthResult struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"-"`
	Account      *Account `json:"account"`
}

// RegisterInput carries a local registration request. Validation of the raw
// payload happens at the transport layer; by the time it reaches Register
// the fields are well formed.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	// UseHashid derives the account id deterministically from the email
	// instead of generating a random UUID.
	UseHashid bool
}

// Auther implements the exposed credential and session operations.
type Auther struct {
	repo     RepositoryManager
	tokens   TokenService
	refresh  *RefreshFlow
	resolver ExternalResolver
	logger   Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, cfg Config) *Auther {
	logger := defLogger{}
	tokens := NewTokenService(cfg, logger)

	return &Auther{
		repo:    repo,
		tokens:  tokens,
		refresh: NewRefreshFlow(tokens, repo.RefreshSessions(), cfg, logger),
		logger:  logger,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithExternalResolver wires the external identity resolver used by
// ExternalLogin.
func (s *Auther) WithExternalResolver(resolver ExternalResolver) *Auther {
	s.resolver = resolver
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// RefreshFlow returns the refresh session flow used by this Authenticator
func (s *Auther) RefreshFlow() *RefreshFlow {
	return s.refresh
}

// Register creates a local password account and authenticates it.
func (s *Auther) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	account := &Account{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		Role:         RoleMember,
	}

	if input.UseHashid && account.Email != "" {
		if id, err := hashid.NewUUID(account.Email); err == nil {
			account.ID = id
		}
	}

	created, err := s.repo.Accounts().Create(ctx, account)
	if err != nil {
		s.logger.Error("register create account %s failed: %v", account.Username, err)
		return nil, err
	}

	return s.authenticate(ctx, created)
}

// Login verifies a username/password pair. Unknown usernames, wrong
// passwords, and identity-only accounts all fail with ErrInvalidCredentials.
func (s *Auther) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	account, err := s.repo.Accounts().FindByUsername(ctx, username)
	if err != nil {
		s.logger.Debug("login lookup for %s failed: %v", username, err)
		return nil, ErrInvalidCredentials
	}

	if !account.HasPassword() {
		s.logger.Debug("login against identity-only account %s", username)
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		s.logger.Debug("login password mismatch for %s", username)
		return nil, ErrInvalidCredentials
	}

	return s.authenticate(ctx, account)
}

// ExternalLogin handles a successful third-party authentication callback.
// The handshake itself is performed by an out-of-scope component; by the
// time this runs the subject id is trusted.
func (s *Auther) ExternalLogin(ctx context.Context, subjectID, email, displayName string) (*AuthResult, error) {
	if s.resolver == nil {
		return nil, ErrInvalidCredentials
	}

	account, created, err := s.resolver.Resolve(ctx, subjectID, email, displayName)
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("created account %s (%s) from external identity", account.ID, account.Username)
	}

	return s.authenticate(ctx, account)
}

// Refresh exchanges a valid refresh token for a new access token without
// re-authenticating credentials. The refresh token itself is not rotated.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	access, claims, err := s.refresh.Redeem(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	accountID, err := claims.AccountID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	account, err := s.repo.Accounts().FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refreshToken,
		Account:      account,
	}, nil
}

// Logout revokes the refresh session matching the token value. Idempotent.
func (s *Auther) Logout(ctx context.Context, refreshToken string) error {
	return s.refresh.Revoke(ctx, refreshToken)
}

// LinkExternalIdentity attaches a third-party subject id to an existing
// account. A subject already linked elsewhere surfaces as
// ErrDuplicateExternalIdentity through the store constraint.
func (s *Auther) LinkExternalIdentity(ctx context.Context, accountID uuid.UUID, subjectID string) (*Account, error) {
	account, err := s.repo.Accounts().FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.SubjectID == subjectID {
		return account, nil
	}

	account.SubjectID = subjectID
	return s.repo.Accounts().Update(ctx, account)
}

// ChangePassword verifies the current password before storing a new digest.
// Identity-only accounts may set an initial password without one.
func (s *Auther) ChangePassword(ctx context.Context, accountID uuid.UUID, current, next string) error {
	account, err := s.repo.Accounts().FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	if account.HasPassword() {
		if err := ComparePasswordAndHash(current, account.PasswordHash); err != nil {
			return ErrInvalidCredentials
		}
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}

	account.PasswordHash = hash
	if _, err := s.repo.Accounts().Update(ctx, account); err != nil {
		return err
	}

	return nil
}

// RequireAdmin enforces the admin gate on the request context.
func (s *Auther) RequireAdmin(ctx context.Context) (uuid.UUID, error) {
	id, err := RequireAuthenticated(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	account, err := s.repo.Accounts().FindByID(ctx, id)
	if err != nil {
		return uuid.Nil, ErrNotAuthenticated
	}

	if !account.IsAdmin() {
		return uuid.Nil, ErrAdminRequired
	}

	return id, nil
}

// UpdateRole changes a target account's role. The caller's context must
// pass the admin gate.
func (s *Auther) UpdateRole(ctx context.Context, targetID uuid.UUID, role Role) (*Account, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	return s.repo.Accounts().UpdateRole(ctx, targetID, role)
}

func (s *Auther) authenticate(ctx context.Context, account *Account) (*AuthResult, error) {
	access, err := s.tokens.IssueAccess(account.ID)
	if err != nil {
		return nil, err
	}

	refresh, err := s.refresh.Issue(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Account:      account,
	}, nil
}
