package speaker_test

import (
	"context"
	"testing"

	"quotecard/internal/speaker"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := speaker.NewDiskStore(t.TempDir())

	if err := s.Upsert(ctx, speaker.Speaker{Name: "Coach", ImageRef: "ref-9"}); err != nil {
		t.Fatalf("Upsert: unexpected error: %v", err)
	}

	got, ok, err := s.Find(ctx, "Coach")
	if err != nil {
		t.Fatalf("Find: unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("Find: expected stored speaker")
	}
	if got.ImageRef != "ref-9" {
		t.Fatalf("Find: expected image_ref %q, got %q", "ref-9", got.ImageRef)
	}
}

func TestDiskStoreSurvivesReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	s := speaker.NewDiskStore(dir)
	if err := s.Upsert(ctx, speaker.Speaker{Name: "Alice"}); err != nil {
		t.Fatalf("Upsert: unexpected error: %v", err)
	}

	reopened := speaker.NewDiskStore(dir)
	_, ok, err := reopened.Find(ctx, "Alice")
	if err != nil {
		t.Fatalf("Find after reopen: unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("Find after reopen: expected record to persist")
	}
}

func TestDiskStoreAwkwardNames(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := speaker.NewDiskStore(t.TempDir())

	// Names are user input; path separators and spaces must not collide or
	// escape the store directory.
	names := []string{"a/b", "a b", "../up", "ім'я з пробілом"}
	for _, name := range names {
		if err := s.Upsert(ctx, speaker.Speaker{Name: name}); err != nil {
			t.Fatalf("Upsert %q: %v", name, err)
		}
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: unexpected error: %v", err)
	}
	if len(all) != len(names) {
		t.Fatalf("List: expected %d records, got %d", len(names), len(all))
	}
	for _, name := range names {
		if _, ok, _ := s.Find(ctx, name); !ok {
			t.Fatalf("Find %q: record missing", name)
		}
	}
}

func TestDiskStoreDedup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := speaker.NewDiskStore(t.TempDir())

	for range 2 {
		if err := s.Upsert(ctx, speaker.Speaker{Name: "Bob"}); err != nil {
			t.Fatalf("Upsert: unexpected error: %v", err)
		}
	}
	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("List: expected 1 record after double save, got %d", len(all))
	}
}
