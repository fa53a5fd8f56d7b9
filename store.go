package lifecycle

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Store is the storage-boundary bridge: it persists entities through bun
// and feeds the dispatcher at each phase. Pre-write rules run inside the
// same transaction as the write, so their mutations land in the same
// statement and a rule failure rolls the write back. Post-write and
// post-delete rules run after the durability point.
type Store struct {
	db         *bun.DB
	dispatcher *Dispatcher
}

func NewStore(db *bun.DB, dispatcher *Dispatcher) *Store {
	return &Store{db: db, dispatcher: dispatcher}
}

// DB exposes the underlying handle for callers that need raw access.
func (s *Store) DB() *bun.DB {
	return s.db
}

func (s *Store) Validate() error {
	if s.db == nil {
		return errors.New("store db should be initialized")
	}
	if s.dispatcher == nil {
		return ErrMissingDispatcher
	}
	return nil
}

// Create inserts the entity. Pre-write rules fire first and may mutate it;
// post-write rules observe Created == true.
func (s *Store) Create(ctx context.Context, e Entity) error {
	return s.write(ctx, e, true, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(e).Exec(ctx)
		return err
	})
}

// Update persists the entity by primary key. Post-write rules observe
// Created == false.
func (s *Store) Update(ctx context.Context, e Entity) error {
	return s.write(ctx, e, false, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().Model(e).WherePK().Exec(ctx)
		return err
	})
}

func (s *Store) write(ctx context.Context, e Entity, created bool, persist func(context.Context, bun.Tx) error) error {
	if e == nil {
		return goerrors.Wrap(ErrNilEntity, goerrors.CategoryBadInput, "cannot persist nil entity")
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.dispatcher.Dispatch(ctx, Event{
			Kind:    EventPreWrite,
			Entity:  e,
			Created: created,
			Tx:      tx,
		}); err != nil {
			return err
		}
		if err := persist(ctx, tx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "could not persist "+describeEntity(e))
		}
		return nil
	})
	if err != nil {
		return err
	}

	// committed; side effects are best-effort from here on
	return s.dispatcher.Dispatch(ctx, Event{
		Kind:    EventPostWrite,
		Entity:  e,
		Created: created,
	})
}

// Delete removes the entity by primary key, then fires post-delete rules.
func (s *Store) Delete(ctx context.Context, e Entity) error {
	if e == nil {
		return goerrors.Wrap(ErrNilEntity, goerrors.CategoryBadInput, "cannot delete nil entity")
	}

	_, err := s.db.NewDelete().Model(e).WherePK().Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not delete "+describeEntity(e))
	}

	return s.dispatcher.Dispatch(ctx, Event{
		Kind:   EventPostDelete,
		Entity: e,
	})
}

// LoginSucceeded announces a completed authentication flow. Rule failures
// never surface: session creation and notification are isolated from the
// caller's login path.
func (s *Store) LoginSucceeded(ctx context.Context, user *User, req RequestContext) {
	_ = s.dispatcher.Dispatch(ctx, Event{
		Kind:    EventLoginSucceeded,
		User:    user,
		Request: req,
	})
}
