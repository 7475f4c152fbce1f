// Package storagetest checks that a storage.Store honors the blob contract.
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/tatianab/donjon/internal/storage"
)

// Run exercises a fresh, empty store returned by open.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		s := open(t)
		blobs, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(blobs) != 0 {
			t.Errorf("List = %v, want none", blobs)
		}
		if _, err := s.Get(ctx, "nothing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Get missing: err = %v, want ErrNotFound", err)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		s := open(t)
		data := []byte("version: 1.0.0\nstate: {}\n")
		if err := s.Put(ctx, "hero_1", data); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := s.Get(ctx, "hero_1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("Get = %q, want %q", got, data)
		}
	})

	t.Run("never overwrites", func(t *testing.T) {
		s := open(t)
		if err := s.Put(ctx, "hero_1", []byte("first")); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := s.Put(ctx, "hero_1", []byte("second")); !errors.Is(err, storage.ErrExists) {
			t.Fatalf("second Put: err = %v, want ErrExists", err)
		}
		got, err := s.Get(ctx, "hero_1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got) != "first" {
			t.Errorf("Get = %q, want first", got)
		}
	})

	t.Run("list", func(t *testing.T) {
		s := open(t)
		for _, name := range []string{"a_1", "b_2", "c_3"} {
			if err := s.Put(ctx, name, []byte(name)); err != nil {
				t.Fatalf("Put %s: %v", name, err)
			}
		}
		blobs, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(blobs) != 3 {
			t.Fatalf("List = %v, want 3 blobs", blobs)
		}
		for i := 1; i < len(blobs); i++ {
			if blobs[i].ModTime.After(blobs[i-1].ModTime) {
				t.Errorf("List not newest first: %v", blobs)
			}
		}
		for _, b := range blobs {
			if b.ModTime.IsZero() {
				t.Errorf("blob %s has no modification time", b.Name)
			}
		}
	})

	t.Run("rejects unsafe names", func(t *testing.T) {
		s := open(t)
		for _, name := range []string{"", "../escape", "a/b"} {
			if err := s.Put(ctx, name, []byte("x")); err == nil {
				t.Errorf("Put(%q) succeeded", name)
			}
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		s := open(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := s.Put(cctx, "late_1", []byte("x")); !errors.Is(err, context.Canceled) {
			t.Errorf("Put: err = %v, want context.Canceled", err)
		}
	})
}
