package store

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
)

func createTables(ctx context.Context, db bun.IDB) error {
	models := []any{
		(*userModel)(nil),
		(*settingsModel)(nil),
		(*queryModel)(nil),
	}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func createIndexes(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*queryModel)(nil)).
		Index("idx_queries_status_user_created").
		Column("status", "user_id", "created_at").
		IfNotExists().
		Exec(ctx)
	return err
}

func initSchema(ctx context.Context, db *bun.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := createTables(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := createIndexes(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

// InitSchema creates the users, user_settings and queries tables and the
// (status, user_id, created_at) index required by ListPending, inside a
// single transaction. It is idempotent and does not perform destructive
// migrations; schema evolution is handled by a separate migration tool.
func InitSchema(ctx context.Context, db *bun.DB) error {
	return initSchema(ctx, db)
}
