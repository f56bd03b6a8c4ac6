package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryManagerLifecycle(t *testing.T) {
	m := NewMemoryManager(time.Hour)
	ctx := context.Background()

	if m.InProgress(ctx, 1) {
		t.Fatal("fresh manager should report no dialog")
	}
	s, err := m.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s != nil {
		t.Fatal("expected nil session before Begin")
	}

	s, err = m.Begin(ctx, 1, "start_shift", "place")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if s.Flow != "start_shift" || s.Stage != "place" {
		t.Fatalf("unexpected session: %+v", s)
	}
	if !m.InProgress(ctx, 1) {
		t.Fatal("expected dialog in progress after Begin")
	}

	if _, err := m.Begin(ctx, 1, "encashment", "place"); !errors.Is(err, ErrDialogActive) {
		t.Fatalf("expected ErrDialogActive, got %v", err)
	}

	s.Stage = "rules"
	s.SetField("place_id", 2)
	if err := m.Save(ctx, 1, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := m.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Stage != "rules" {
		t.Fatalf("stage not persisted: %q", loaded.Stage)
	}
	if v, ok := loaded.IntField("place_id"); !ok || v != 2 {
		t.Fatalf("place_id round trip failed: %v %v", v, ok)
	}

	if err := m.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if m.InProgress(ctx, 1) {
		t.Fatal("expected no dialog after Clear")
	}
}

func TestMemoryManagerExpiry(t *testing.T) {
	m := NewMemoryManager(10 * time.Millisecond)
	ctx := context.Background()

	if _, err := m.Begin(ctx, 7, "finish_shift", "place"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if m.InProgress(ctx, 7) {
		t.Fatal("expired session should not be in progress")
	}
	s, err := m.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s != nil {
		t.Fatal("expired session should read as nil")
	}
}

func TestMemoryManagerIsolatesSavedSessions(t *testing.T) {
	m := NewMemoryManager(time.Hour)
	ctx := context.Background()

	s, err := m.Begin(ctx, 3, "encashment", "place")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	s.SetField("who", "Иванов")

	// Mutation without Save must not be visible to other readers.
	loaded, err := m.Get(ctx, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := loaded.Field("who"); ok {
		t.Fatal("unsaved mutation leaked into stored session")
	}
}
