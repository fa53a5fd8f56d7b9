package lifecycle

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Groups exposes group lookup plus the membership surface the partner
// group rule needs. AddMember is conflict-safe so concurrent identical
// adds collapse to a single membership row.
type Groups interface {
	repository.Repository[*Group]

	GetByName(ctx context.Context, name string) (*Group, error)
	GetByNameTx(ctx context.Context, tx bun.IDB, name string) (*Group, error)
	IsMember(ctx context.Context, userID, groupID uuid.UUID) (bool, error)
	IsMemberTx(ctx context.Context, tx bun.IDB, userID, groupID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, userID, groupID uuid.UUID) error
	AddMemberTx(ctx context.Context, tx bun.IDB, userID, groupID uuid.UUID) error
}

type groups struct {
	repository.Repository[*Group]
	db *bun.DB
}

var _ Groups = (*groups)(nil)

func NewGroupsRepository(db *bun.DB) Groups {
	repo := repository.NewRepository[*Group](db, repository.ModelHandlers[*Group]{
		NewRecord: func() *Group { return &Group{} },
		GetID: func(g *Group) uuid.UUID {
			if g == nil {
				return uuid.Nil
			}
			return g.ID
		},
		SetID: func(g *Group, id uuid.UUID) {
			if g != nil {
				g.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &groups{
		Repository: repo,
		db:         db,
	}
}

func (g *groups) GetByName(ctx context.Context, name string) (*Group, error) {
	return g.GetByNameTx(ctx, g.db, name)
}

func (g *groups) GetByNameTx(ctx context.Context, tx bun.IDB, name string) (*Group, error) {
	record := &Group{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.
				Wrap(repository.ErrRecordNotFound, goerrors.CategoryNotFound, "group not found").
				WithMetadata(map[string]any{
					"name": name,
				})
		}
		return nil, err
	}

	return record, nil
}

func (g *groups) IsMember(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	return g.IsMemberTx(ctx, g.db, userID, groupID)
}

func (g *groups) IsMemberTx(ctx context.Context, tx bun.IDB, userID, groupID uuid.UUID) (bool, error) {
	return tx.NewSelect().
		Model((*UserGroup)(nil)).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Exists(ctx)
}

func (g *groups) AddMember(ctx context.Context, userID, groupID uuid.UUID) error {
	return g.AddMemberTx(ctx, g.db, userID, groupID)
}

func (g *groups) AddMemberTx(ctx context.Context, tx bun.IDB, userID, groupID uuid.UUID) error {
	_, err := tx.NewInsert().
		Model(&UserGroup{UserID: userID, GroupID: groupID}).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	return err
}
