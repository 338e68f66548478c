package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/yigit/internhub/internal/app/store"
	"github.com/yigit/internhub/internal/db"
)

// TxManager runs parent-group work in advisory-locked Postgres transactions.
type TxManager struct {
	db *db.PostgresDB
}

// NewTxManager creates a TxManager over the pool.
func NewTxManager(database *db.PostgresDB) *TxManager {
	return &TxManager{db: database}
}

// InParentTx implements store.TxManager.
func (m *TxManager) InParentTx(ctx context.Context, keys []string, fn store.TxFunc) error {
	return m.db.WithAdvisoryLock(ctx, keys, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, NewRepositories(tx).Catalog())
	})
}
