package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorechart/internal/engine"
)

// Repository bundles the ledger and state stores behind the engine's
// durability contract.
type Repository struct {
	db *sql.DB
	*LedgerStore
	*StateStore
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db:          db,
		LedgerStore: NewLedgerStore(db),
		StateStore:  NewStateStore(db),
	}
}

// SaveSnapshot replaces the ledger and both state tables in one transaction.
func (r *Repository) SaveSnapshot(ctx context.Context, s engine.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := saveLedgerTx(ctx, tx, s.Ledger); err != nil {
		return err
	}
	if err := saveTaskStatesTx(ctx, tx, s.TaskStates); err != nil {
		return err
	}
	if err := savePrivilegeStatesTx(ctx, tx, s.PrivilegeStates); err != nil {
		return err
	}
	return tx.Commit()
}
