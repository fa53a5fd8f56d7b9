package lifecycle

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Users interface {
	repository.Repository[*User]

	GetByUsername(ctx context.Context, username string, criteria ...repository.SelectCriteria) (*User, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string, criteria ...repository.SelectCriteria) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByUsername(ctx context.Context, username string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByUsernameTx(ctx, a.db, username, criteria...)
}

func (a *users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string, criteria ...repository.SelectCriteria) (*User, error) {
	record := &User{}
	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where(fmt.Sprintf("?TableAlias.%s = ?", "username"), username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.
				Wrap(repository.ErrRecordNotFound, goerrors.CategoryNotFound, "user not found").
				WithMetadata(map[string]any{
					"username": username,
				})
		}
		return nil, err
	}

	return record, nil
}
