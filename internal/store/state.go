package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

type StateStore struct {
	db *sql.DB
}

func NewStateStore(db *sql.DB) *StateStore {
	return &StateStore{db: db}
}

func (s *StateStore) LoadTaskStates(ctx context.Context) ([]model.TaskStateRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT assignee, task_slug, state, requested FROM task_states ORDER BY assignee ASC, task_slug ASC`)
	if err != nil {
		return nil, fmt.Errorf("list task states: %w", err)
	}
	defer rows.Close()

	var out []model.TaskStateRow
	for rows.Next() {
		var r model.TaskStateRow
		var requested int
		if err := rows.Scan(&r.Assignee, &r.TaskSlug, &r.State, &requested); err != nil {
			return nil, fmt.Errorf("scan task state: %w", err)
		}
		r.Requested = requested != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *StateStore) SaveTaskStates(ctx context.Context, states []model.TaskStateRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := saveTaskStatesTx(ctx, tx, states); err != nil {
		return err
	}
	return tx.Commit()
}

func saveTaskStatesTx(ctx context.Context, tx *sql.Tx, states []model.TaskStateRow) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_states`); err != nil {
		return fmt.Errorf("clear task states: %w", err)
	}
	for _, r := range states {
		requested := 0
		if r.Requested {
			requested = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO task_states (assignee, task_slug, state, requested) VALUES (?, ?, ?, ?)`,
			r.Assignee, r.TaskSlug, string(r.State), requested,
		)
		if err != nil {
			return fmt.Errorf("insert task state %s/%s: %w", r.Assignee, r.TaskSlug, err)
		}
	}
	return nil
}

func (s *StateStore) LoadPrivilegeStates(ctx context.Context) ([]model.PrivilegeStateRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT assignee, privilege_slug, state, disable_until FROM privilege_states ORDER BY assignee ASC, privilege_slug ASC`)
	if err != nil {
		return nil, fmt.Errorf("list privilege states: %w", err)
	}
	defer rows.Close()

	var out []model.PrivilegeStateRow
	for rows.Next() {
		var r model.PrivilegeStateRow
		var until sql.NullString
		if err := rows.Scan(&r.Assignee, &r.PrivilegeSlug, &r.State, &until); err != nil {
			return nil, fmt.Errorf("scan privilege state: %w", err)
		}
		if until.Valid && until.String != "" {
			t, err := time.Parse(time.RFC3339Nano, until.String)
			if err != nil {
				return nil, fmt.Errorf("parse disable_until for %s/%s: %w", r.Assignee, r.PrivilegeSlug, err)
			}
			r.DisableUntil = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *StateStore) SavePrivilegeStates(ctx context.Context, states []model.PrivilegeStateRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := savePrivilegeStatesTx(ctx, tx, states); err != nil {
		return err
	}
	return tx.Commit()
}

func savePrivilegeStatesTx(ctx context.Context, tx *sql.Tx, states []model.PrivilegeStateRow) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM privilege_states`); err != nil {
		return fmt.Errorf("clear privilege states: %w", err)
	}
	for _, r := range states {
		var until sql.NullString
		if r.DisableUntil != nil {
			until = sql.NullString{String: r.DisableUntil.UTC().Format(time.RFC3339Nano), Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO privilege_states (assignee, privilege_slug, state, disable_until) VALUES (?, ?, ?, ?)`,
			r.Assignee, r.PrivilegeSlug, string(r.State), until,
		)
		if err != nil {
			return fmt.Errorf("insert privilege state %s/%s: %w", r.Assignee, r.PrivilegeSlug, err)
		}
	}
	return nil
}
