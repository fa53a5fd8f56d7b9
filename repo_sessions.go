package lifecycle

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// Sessions is the session-key addressed storage surface. Both session
// tables are keyed by the opaque session key rather than a uuid, so this
// repository is bespoke instead of the generic uuid-keyed kind.
type Sessions interface {
	GetByKey(ctx context.Context, key string) (*Session, error)
	DeleteByKey(ctx context.Context, key string) error
	DeleteByKeyTx(ctx context.Context, tx bun.IDB, key string) error

	GetAuthenticated(ctx context.Context, key string) (*AuthenticatedSession, error)
	ListAuthenticatedByUser(ctx context.Context, userID string) ([]*AuthenticatedSession, error)
}

type sessions struct {
	db *bun.DB
}

var _ Sessions = (*sessions)(nil)

func NewSessionsRepository(db *bun.DB) Sessions {
	return &sessions{db: db}
}

func (s *sessions) GetByKey(ctx context.Context, key string) (*Session, error) {
	record := &Session{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.session_key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *sessions) DeleteByKey(ctx context.Context, key string) error {
	return s.DeleteByKeyTx(ctx, s.db, key)
}

// DeleteByKeyTx removes the Session with the matching key. Deleting an
// already-absent key is a no-op, which keeps the cascade rule idempotent
// under event re-delivery.
func (s *sessions) DeleteByKeyTx(ctx context.Context, tx bun.IDB, key string) error {
	_, err := tx.NewDelete().
		Model((*Session)(nil)).
		Where("session_key = ?", key).
		Exec(ctx)
	return err
}

func (s *sessions) GetAuthenticated(ctx context.Context, key string) (*AuthenticatedSession, error) {
	record := &AuthenticatedSession{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.session_key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *sessions) ListAuthenticatedByUser(ctx context.Context, userID string) ([]*AuthenticatedSession, error) {
	var records []*AuthenticatedSession
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*AuthenticatedSession{}, nil
		}
		return nil, err
	}
	return records, nil
}
