// Package filestore keeps one save blob per file in a directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tatianab/donjon/internal/storage"
)

// Ext is the extension of save files.
const Ext = ".yaml"

// Store is a directory of save files.
type Store struct {
	dir string
}

// Open creates the directory if needed.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("save directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create save directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the save directory.
func (s *Store) Dir() string { return s.dir }

// Put writes a new file. The data is written to a temporary file and linked
// into place so a failed write never leaves a partial save behind.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".save-*")
	if err != nil {
		return fmt.Errorf("create temp save: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write save %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close save %s: %w", name, err)
	}
	if err := os.Link(tmp.Name(), s.path(name)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return storage.ErrExists
		}
		return fmt.Errorf("store save %s: %w", name, err)
	}
	return nil
}

// Get reads a save file.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read save %s: %w", name, err)
	}
	return data, nil
}

// List returns every save file, newest first. A missing directory lists as
// empty.
func (s *Store) List(ctx context.Context) ([]storage.Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []storage.Blob{}, nil
		}
		return nil, fmt.Errorf("list saves: %w", err)
	}

	blobs := []storage.Blob{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		blobs = append(blobs, storage.Blob{
			Name:    strings.TrimSuffix(entry.Name(), Ext),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(blobs, func(i, j int) bool {
		if blobs[i].ModTime.Equal(blobs[j].ModTime) {
			return blobs[i].Name > blobs[j].Name
		}
		return blobs[i].ModTime.After(blobs[j].ModTime)
	})
	return blobs, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+Ext)
}
