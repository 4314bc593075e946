package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorechart/internal/model"
)

type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

const ledgerCols = `assignee, total_points, points_earned, points_missed`

func scanLedgerEntry(scanner interface{ Scan(...any) error }) (*model.LedgerEntry, error) {
	var e model.LedgerEntry
	if err := scanner.Scan(&e.Assignee, &e.TotalPoints, &e.PointsEarned, &e.PointsMissed); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *LedgerStore) LoadLedger(ctx context.Context) ([]model.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+ledgerCols+` FROM ledger ORDER BY assignee ASC`)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// SaveLedger replaces the stored ledger with entries.
func (s *LedgerStore) SaveLedger(ctx context.Context, entries []model.LedgerEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := saveLedgerTx(ctx, tx, entries); err != nil {
		return err
	}
	return tx.Commit()
}

func saveLedgerTx(ctx context.Context, tx *sql.Tx, entries []model.LedgerEntry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger`); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ledger (`+ledgerCols+`, updated_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
			e.Assignee, e.TotalPoints, e.PointsEarned, e.PointsMissed,
		)
		if err != nil {
			return fmt.Errorf("insert ledger entry %s: %w", e.Assignee, err)
		}
	}
	return nil
}
