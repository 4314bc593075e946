package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/chorechart/internal/database"
	"github.com/dukerupert/chorechart/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLedgerSaveAndLoad(t *testing.T) {
	ls := NewLedgerStore(setupTestDB(t))
	ctx := context.Background()

	entries := []model.LedgerEntry{
		{Assignee: "bob", TotalPoints: -4, PointsEarned: 2, PointsMissed: 6},
		{Assignee: "alice", TotalPoints: 12, PointsEarned: 12, PointsMissed: 0},
	}
	if err := ls.SaveLedger(ctx, entries); err != nil {
		t.Fatalf("save ledger: %v", err)
	}

	got, err := ls.LoadLedger(ctx)
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Assignee != "alice" || got[0].TotalPoints != 12 {
		t.Errorf("got[0] = %+v, want alice with 12", got[0])
	}
	if got[1].TotalPoints != -4 || got[1].PointsMissed != 6 {
		t.Errorf("got[1] = %+v, want bob with -4 total and 6 missed", got[1])
	}
	if got[1].PointsPossible() != 8 {
		t.Errorf("bob possible = %d, want 8", got[1].PointsPossible())
	}
}

func TestLedgerSaveReplaces(t *testing.T) {
	ls := NewLedgerStore(setupTestDB(t))
	ctx := context.Background()

	if err := ls.SaveLedger(ctx, []model.LedgerEntry{{Assignee: "alice", TotalPoints: 3}}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := ls.SaveLedger(ctx, []model.LedgerEntry{{Assignee: "bob", TotalPoints: 5}}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := ls.LoadLedger(ctx)
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if len(got) != 1 || got[0].Assignee != "bob" {
		t.Errorf("got %+v, want only bob", got)
	}
}
