package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndList(t *testing.T) {
	db := openTestDB(t)

	id, err := db.Record(Entry{
		Query:   "surveillance dystopia",
		Title:   "1984",
		Verbal:  "Because you want surveillance, read 1984.",
		Reasons: []string{"surveillance themes", "totalitarian setting"},
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if id == 0 {
		t.Error("expected a nonzero row ID")
	}

	entries, err := db.List(0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.ID != id {
		t.Errorf("ID: got %d, want %d", e.ID, id)
	}
	if e.Query != "surveillance dystopia" || e.Title != "1984" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.Verbal != "Because you want surveillance, read 1984." {
		t.Errorf("verbal: got %q", e.Verbal)
	}
	if len(e.Reasons) != 2 || e.Reasons[0] != "surveillance themes" {
		t.Errorf("reasons did not round-trip: %v", e.Reasons)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt should default to the insertion time")
	}
}

func TestListNewestFirst(t *testing.T) {
	db := openTestDB(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	titles := []string{"Dune", "1984", "Moby-Dick"}
	for i, title := range titles {
		_, err := db.Record(Entry{
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Query:     "q",
			Title:     title,
		})
		if err != nil {
			t.Fatalf("Record %q failed: %v", title, err)
		}
	}

	entries, err := db.List(0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	want := []string{"Moby-Dick", "1984", "Dune"}
	for i := range want {
		if entries[i].Title != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, entries[i].Title, want[i])
		}
	}

	if !entries[0].CreatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("timestamp did not round-trip: %v", entries[0].CreatedAt)
	}
}

func TestListLimit(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 5; i++ {
		if _, err := db.Record(Entry{Query: "q", Title: "1984"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := db.List(2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestListEmpty(t *testing.T) {
	db := openTestDB(t)

	entries, err := db.List(0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestRecordWithoutReasons(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Record(Entry{Query: "q", Title: "Dune"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := db.List(0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if len(entries[0].Reasons) != 0 {
		t.Errorf("expected no reasons, got %v", entries[0].Reasons)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	if _, err := db.Record(Entry{Query: "q", Title: "1984"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	db.Close()

	// Reopening an existing database must keep its rows.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer db.Close()

	entries, err := db.List(0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected the recorded entry to survive reopen, got %d", len(entries))
	}
}
