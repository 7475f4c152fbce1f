package models

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tatianab/donjon/internal/storage"
	"gopkg.in/yaml.v3"
)

// FormatVersion is written into every save so that future formats can be
// told apart.
const FormatVersion = "1.0.0"

// ErrIncompatibleSave is returned for blobs written by a different major
// format version.
var ErrIncompatibleSave = errors.New("incompatible save format")

// Snapshot is the on-disk form of a save.
type Snapshot struct {
	Version   string       `yaml:"version"`
	Timestamp time.Time    `yaml:"timestamp"`
	State     *GameSession `yaml:"state"`
}

// Encode serializes the whole session.
func Encode(s *GameSession, at time.Time) ([]byte, error) {
	data, err := yaml.Marshal(Snapshot{
		Version:   FormatVersion,
		Timestamp: at.UTC(),
		State:     s,
	})
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

// Decode parses a blob written by Encode.
func Decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if major(snap.Version) != major(FormatVersion) {
		return nil, fmt.Errorf("%w: version %q", ErrIncompatibleSave, snap.Version)
	}
	if snap.State == nil {
		return nil, fmt.Errorf("decode session: missing state")
	}
	snap.State.normalize()
	return &snap, nil
}

func major(version string) string {
	m, _, _ := strings.Cut(version, ".")
	return m
}

var unsafeLabel = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// SaveName builds the blob name for a label and a moment.
func SaveName(label string, at time.Time) string {
	label = strings.Trim(unsafeLabel.ReplaceAllString(label, "_"), "_")
	if label == "" {
		label = "save"
	}
	return fmt.Sprintf("%s_%d", label, at.UnixMilli())
}

// Save writes a snapshot of s under a new name derived from label and
// returns that name. The session is never modified.
func (s *GameSession) Save(ctx context.Context, store storage.Store, label string, now time.Time) (string, error) {
	data, err := Encode(s, now)
	if err != nil {
		return "", err
	}
	at := now
	for range 5 {
		name := SaveName(label, at)
		err := store.Put(ctx, name, data)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, storage.ErrExists) {
			return "", fmt.Errorf("save %s: %w", name, err)
		}
		at = at.Add(time.Millisecond)
	}
	return "", fmt.Errorf("save %s: %w", label, storage.ErrExists)
}

// LoadSession reads and decodes a named save.
func LoadSession(ctx context.Context, store storage.Store, name string) (*GameSession, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return snap.State, nil
}

// ListSessions returns the available saves, newest first.
func ListSessions(ctx context.Context, store storage.Store) ([]storage.Blob, error) {
	blobs, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return blobs, nil
}
