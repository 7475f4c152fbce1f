// Package storage defines the save blob store. A blob is an opaque byte
// snapshot keyed by name; backends live in subpackages.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a named blob does not exist.
	ErrNotFound = errors.New("blob not found")
	// ErrExists is returned by Put when the name is already taken.
	ErrExists = errors.New("blob already exists")
)

// Blob describes a stored snapshot.
type Blob struct {
	Name    string
	ModTime time.Time
}

// Store persists save blobs. Put never overwrites.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]Blob, error)
	Close() error
}

// ValidateName rejects names that could escape a save directory.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("blob name is required")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("blob name %q: invalid characters", name)
	}
	return nil
}
