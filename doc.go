// Package auth is the credential and session lifecycle subsystem of the
// Pagewright platform: token issuance and verification, persisted refresh
// sessions with expiry and revocation, password credential handling, and the
// reconciliation of third-party identities against local accounts.
//
// Two token classes exist, distinguished by separate signing secrets and
// lifetimes. Access tokens are short lived and travel per request; refresh
// tokens are long lived, persisted server side as RefreshSession rows, and
// exchanged for fresh access tokens without re-entering a password.
//
// Concurrency notes:
//   - Components hold no mutable state beyond configuration, which is read
//     only after construction. Races between concurrent registrations or
//     identity links resolve through the store's uniqueness constraints and
//     surface as retryable Duplicate* conflicts.
//   - Redeeming a refresh token is a read plus a conditional delete, not a
//     destructive consume: concurrent redemptions of the same token all
//     succeed until the session's absolute expiry. See RefreshFlow for the
//     policy trade-off.
package auth
