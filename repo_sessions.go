package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type refreshSessions struct {
	db *bun.DB
}

var _ RefreshSessions = (*refreshSessions)(nil)

// NewRefreshSessionsRepository builds the bun-backed refresh session store.
func NewRefreshSessionsRepository(db *bun.DB) RefreshSessions {
	return &refreshSessions{db: db}
}

func (r *refreshSessions) Create(ctx context.Context, session *RefreshSession) (*RefreshSession, error) {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.CreatedAt == nil {
		now := time.Now()
		session.CreatedAt = &now
	}

	if _, err := r.db.NewInsert().Model(session).Exec(ctx); err != nil {
		return nil, err
	}

	return session, nil
}

func (r *refreshSessions) FindByToken(ctx context.Context, token string) (*RefreshSession, error) {
	session := &RefreshSession{}
	err := r.db.NewSelect().
		Model(session).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, err
	}

	return session, nil
}

// DeleteByToken is idempotent: deleting an absent token is not an error.
func (r *refreshSessions) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.db.NewDelete().
		Model((*RefreshSession)(nil)).
		Where("token = ?", token).
		Exec(ctx)
	return err
}

func (r *refreshSessions) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*RefreshSession)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// DeleteByAccountID cascade-invalidates every session owned by an account.
// Account deletion itself is an administrative action outside this subsystem.
func (r *refreshSessions) DeleteByAccountID(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*RefreshSession)(nil)).
		Where("account_id = ?", accountID).
		Exec(ctx)
	return err
}
