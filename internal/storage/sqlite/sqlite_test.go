package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tatianab/donjon/internal/storage"
	"github.com/tatianab/donjon/internal/storage/storagetest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "saves.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s := openTestStore(t)
		// Distinct timestamps so ordering is observable.
		at := time.UnixMilli(1700000000000)
		s.now = func() time.Time {
			at = at.Add(time.Second)
			return at
		}
		return s
	})
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	times := map[string]time.Time{
		"old_1": time.UnixMilli(1000),
		"new_3": time.UnixMilli(3000),
		"mid_2": time.UnixMilli(2000),
	}
	for _, name := range []string{"old_1", "new_3", "mid_2"} {
		at := times[name]
		s.now = func() time.Time { return at }
		if err := s.Put(ctx, name, []byte(name)); err != nil {
			t.Fatalf("Put %s: %v", name, err)
		}
	}

	blobs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"new_3", "mid_2", "old_1"}
	for i, b := range blobs {
		if b.Name != want[i] {
			t.Errorf("blob %d = %s, want %s", i, b.Name, want[i])
		}
		if !b.ModTime.Equal(times[b.Name]) {
			t.Errorf("%s ModTime = %v, want %v", b.Name, b.ModTime, times[b.Name])
		}
	}
}

func TestReopenKeepsSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Put(ctx, "hero_1", []byte("data")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, "hero_1")
	if err != nil || string(got) != "data" {
		t.Errorf("Get = %q, %v", got, err)
	}
}

func TestCloseNil(t *testing.T) {
	var s *Store
	if err := s.Close(); err != nil {
		t.Errorf("Close on nil store: %v", err)
	}
}
