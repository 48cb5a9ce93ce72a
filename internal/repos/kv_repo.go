package repos

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"

	"storefront/internal/kv"
)

// KVRepo is the sqlite kv.Store.
type KVRepo struct{ db *sqlx.DB }

var (
	_ kv.Store        = (*KVRepo)(nil)
	_ kv.ScopeDeleter = (*KVRepo)(nil)
)

func NewKVRepo(db *sqlx.DB) *KVRepo { return &KVRepo{db: db} }

func (r *KVRepo) Get(ctx context.Context, scope, key string) ([]byte, error) {
	var v []byte
	err := r.db.GetContext(ctx, &v, `SELECT value FROM kv WHERE scope = ? AND key = ?`, scope, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, kv.ErrNotFound
	}
	return v, err
}

func (r *KVRepo) Set(ctx context.Context, scope, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv(scope, key, value, updated_at)
		VALUES(?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(scope, key) DO UPDATE
		SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, scope, key, value)
	return err
}

func (r *KVRepo) Delete(ctx context.Context, scope, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE scope = ? AND key = ?`, scope, key)
	return err
}

// DeleteScope drops every key of a scope.
func (r *KVRepo) DeleteScope(ctx context.Context, scope string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE scope = ?`, scope)
	return err
}
