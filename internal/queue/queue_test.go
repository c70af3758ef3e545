package queue

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

func setupQueueDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE command_queue (
			id          TEXT PRIMARY KEY,
			service     TEXT NOT NULL,
			subservice  TEXT NOT NULL,
			device_id   TEXT NOT NULL,
			command     TEXT NOT NULL,
			created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close() //nolint:errcheck // Test cleanup
	})
	return db
}

func cmd(name string, value any) ngsi.Attribute {
	return ngsi.Attribute{Name: name, Type: "command", Value: value}
}

func TestQueue_AddAndNext(t *testing.T) {
	q := New(setupQueueDB(t), 0)
	ctx := context.Background()

	entry, err := q.Add(ctx, "smartgondor", "/gardens", "motor1", cmd("raise", "50%"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if entry.ID == "" {
		t.Error("expected generated entry id")
	}

	got, err := q.Next(ctx, "smartgondor", "/gardens", "motor1")
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got.Command.Name != "raise" || got.Command.Value != "50%" {
		t.Errorf("Next() command = %+v", got.Command)
	}
}

func TestQueue_FIFOOrder(t *testing.T) {
	q := New(setupQueueDB(t), 0)
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		if _, err := q.Add(ctx, "s", "/p", "motor1", cmd(name, nil)); err != nil {
			t.Fatalf("Add(%s) error = %v", name, err)
		}
	}

	entries, err := q.List(ctx, "s", "/p", "motor1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	for i, want := range []string{"first", "second", "third"} {
		if entries[i].Command.Name != want {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].Command.Name, want)
		}
	}
}

func TestQueue_NextEmpty(t *testing.T) {
	q := New(setupQueueDB(t), 0)

	if _, err := q.Next(context.Background(), "s", "/p", "ghost"); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestQueue_Remove(t *testing.T) {
	q := New(setupQueueDB(t), 0)
	ctx := context.Background()

	entry, err := q.Add(ctx, "s", "/p", "motor1", cmd("raise", nil))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := q.Remove(ctx, entry.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := q.Remove(ctx, entry.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound on second remove, got %v", err)
	}
	if _, err := q.Next(ctx, "s", "/p", "motor1"); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty after remove, got %v", err)
	}
}

func TestQueue_PerDeviceLimit(t *testing.T) {
	q := New(setupQueueDB(t), 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := q.Add(ctx, "s", "/p", "motor1", cmd("raise", i)); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if _, err := q.Add(ctx, "s", "/p", "motor1", cmd("raise", 3)); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}

	// Other devices are unaffected by the full queue.
	if _, err := q.Add(ctx, "s", "/p", "motor2", cmd("raise", 0)); err != nil {
		t.Errorf("Add() for other device error = %v", err)
	}
}

func TestQueue_TenantIsolation(t *testing.T) {
	q := New(setupQueueDB(t), 0)
	ctx := context.Background()

	if _, err := q.Add(ctx, "tenant-a", "/p", "motor1", cmd("raise", nil)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if _, err := q.Next(ctx, "tenant-b", "/p", "motor1"); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty for other tenant, got %v", err)
	}
}
