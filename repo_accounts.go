package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var _ Accounts = (*accounts)(nil)

// NewAccountsRepository builds the bun-backed account store.
func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return a.findByColumn(ctx, "id", id)
}

func (a *accounts) FindByUsername(ctx context.Context, username string) (*Account, error) {
	return a.findByColumn(ctx, "username", strings.TrimSpace(username))
}

func (a *accounts) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return a.findByColumn(ctx, "email", strings.TrimSpace(email))
}

func (a *accounts) FindBySubjectID(ctx context.Context, subjectID string) (*Account, error) {
	return a.findByColumn(ctx, "subject_id", subjectID)
}

func (a *accounts) findByColumn(ctx context.Context, column string, value any) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) Create(ctx context.Context, record *Account) (*Account, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	prepareAccountDefaults(record)

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if dup := MapDuplicateConstraint(err); dup != nil {
			return nil, dup
		}
		return nil, err
	}

	return created, nil
}

func (a *accounts) Update(ctx context.Context, record *Account) (*Account, error) {
	now := time.Now()
	record.UpdatedAt = &now

	updated, err := a.Repository.UpdateTx(ctx, a.db, record,
		repository.UpdateByID(record.ID.String()),
	)
	if err != nil {
		if dup := MapDuplicateConstraint(err); dup != nil {
			return nil, dup
		}
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return updated, nil
}

func (a *accounts) UpdateRole(ctx context.Context, id uuid.UUID, role Role) (*Account, error) {
	record := &Account{}
	record.ID = id
	record.Role = role

	updated, err := a.Repository.UpdateTx(ctx, a.db, record,
		repository.UpdateByID(id.String()),
	)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return updated, nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.Role == "" {
		record.Role = RoleMember
	}

	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
		record.UpdatedAt = &now
	}
}
