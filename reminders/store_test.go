package reminders

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebridge/companiond/migrations"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migrations.RunMigrations(db, filepath.Join("..", "migrations"), zerolog.Nop()); err != nil {
		_ = db.Close() //nolint:errcheck // Cleanup on error
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func TestStore_SaveAssignsDefaults(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	store := NewStore(db)
	ctx := context.Background()

	r := Reminder{
		UserID: "alice",
		Title:  "Take medication",
		DueAt:  time.Now().Add(24 * time.Hour),
	}
	if err := store.Save(ctx, &r); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if r.ID == "" {
		t.Error("expected an assigned ID")
	}
	if r.Status != StatusIncomplete {
		t.Errorf("status = %q, want INCOMPLETE", r.Status)
	}
	if len(r.Tags) != 1 || r.Tags[0] != TagOther {
		t.Errorf("tags = %v, want [OTHER]", r.Tags)
	}

	items, err := store.ListByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Take medication" {
		t.Fatalf("unexpected stored reminders: %+v", items)
	}
	if len(items[0].Tags) != 1 || items[0].Tags[0] != TagOther {
		t.Errorf("stored tags = %v, want [OTHER]", items[0].Tags)
	}
}

func TestStore_UpcomingFiltersCompletedAndPast(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	store := NewStore(db)
	ctx := context.Background()
	now := time.Now()

	past := Reminder{UserID: "alice", Title: "past", DueAt: now.Add(-time.Hour)}
	soon := Reminder{UserID: "alice", Title: "soon", DueAt: now.Add(time.Hour)}
	later := Reminder{UserID: "alice", Title: "later", DueAt: now.Add(48 * time.Hour)}
	done := Reminder{UserID: "alice", Title: "done", DueAt: now.Add(2 * time.Hour), Status: StatusComplete}

	for _, r := range []*Reminder{&past, &soon, &later, &done} {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("Save(%s): %v", r.Title, err)
		}
	}

	items, err := store.Upcoming(ctx, "alice", now, 10)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 upcoming reminders, got %d", len(items))
	}
	if items[0].Title != "soon" || items[1].Title != "later" {
		t.Errorf("unexpected order: %q, %q", items[0].Title, items[1].Title)
	}
}

func TestStore_MarkComplete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	store := NewStore(db)
	ctx := context.Background()

	r := Reminder{UserID: "alice", Title: "call doctor", DueAt: time.Now().Add(time.Hour)}
	if err := store.Save(ctx, &r); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.MarkComplete(ctx, r.ID); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}

	items, err := store.ListByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if items[0].Status != StatusComplete {
		t.Errorf("status = %q, want COMPLETE", items[0].Status)
	}
}

func TestStore_MarkCompleteNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	store := NewStore(db)
	if err := store.MarkComplete(context.Background(), "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("MarkComplete = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	store := NewStore(db)
	ctx := context.Background()

	r := Reminder{UserID: "alice", Title: "water plants", DueAt: time.Now().Add(time.Hour)}
	if err := store.Save(ctx, &r); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.Delete(ctx, r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete = %v, want ErrNotFound", err)
	}

	items, err := store.ListByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no reminders, got %d", len(items))
	}
}
