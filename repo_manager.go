package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error

	Users() Users
	Groups() Groups
	Sessions() Sessions
}

type mngr struct {
	db       *bun.DB
	users    Users
	groups   Groups
	sessions Sessions
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	// m2m relations resolve through the registered join model
	db.RegisterModel((*UserGroup)(nil))

	return &mngr{
		db:       db,
		users:    NewUsersRepository(db),
		groups:   NewGroupsRepository(db),
		sessions: NewSessionsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.groups == nil {
		return errors.New("repository groups should be initialized")
	}

	if m.sessions == nil {
		return errors.New("repository sessions should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Groups() Groups {
	return m.groups
}

func (m mngr) Sessions() Sessions {
	return m.sessions
}
