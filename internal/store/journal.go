package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chorechart/internal/model"
)

// JournalStore is an append-only log of committed engine events.
type JournalStore struct {
	db *sql.DB
}

func NewJournalStore(db *sql.DB) *JournalStore {
	return &JournalStore{db: db}
}

const journalCols = `id, kind, assignee, slug, points, state, occurred_at`

// journalTimeLayout is fixed width so occurred_at sorts as text.
const journalTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	var id, occurredAt string
	if err := scanner.Scan(&id, &e.Kind, &e.Assignee, &e.Slug, &e.Points, &e.State, &occurredAt); err != nil {
		return nil, err
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse event id: %w", err)
	}
	e.ID = parsedID
	at, err := time.Parse(time.RFC3339Nano, occurredAt)
	if err != nil {
		return nil, fmt.Errorf("parse occurred_at: %w", err)
	}
	e.OccurredAt = at
	return &e, nil
}

// Append records events in one transaction.
func (s *JournalStore) Append(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, e := range events {
		id := e.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_journal (`+journalCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id.String(), string(e.Kind), e.Assignee, e.Slug, e.Points, e.State,
			e.OccurredAt.UTC().Format(journalTimeLayout),
		)
		if err != nil {
			return fmt.Errorf("insert journal event: %w", err)
		}
	}
	return tx.Commit()
}

// ListByAssignee returns the assignee's most recent events, newest first.
func (s *JournalStore) ListByAssignee(ctx context.Context, assignee string, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+journalCols+` FROM ledger_journal WHERE assignee = ? ORDER BY occurred_at DESC, rowid DESC LIMIT ?`,
		assignee, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
