package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"pocketbook/internal/accounts"
	"pocketbook/internal/core"
)

// FileGateway keeps the record as an indented JSON document on disk.
type FileGateway struct {
	path string
}

var _ Gateway = (*FileGateway)(nil)

func NewFileGateway(path string) *FileGateway {
	return &FileGateway{path: path}
}

func (g *FileGateway) Path() string {
	return g.path
}

// Load reads the record. A missing file yields the empty default; anything
// that does not decode is ErrCorruptState.
func (g *FileGateway) Load(ctx context.Context) (accounts.Snapshot, error) {
	data, err := os.ReadFile(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.DebugContext(ctx, "Data file not found, starting empty", "path", g.path)
		return accounts.EmptySnapshot(), nil
	}
	if err != nil {
		return accounts.Snapshot{}, fmt.Errorf("read data file: %w", err)
	}
	return Decode(data)
}

// Save writes the record to a temporary file and renames it into place.
func (g *FileGateway) Save(ctx context.Context, snap accounts.Snapshot) (err error) {
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(g.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".pocketbook-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write data file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close data file: %w", err)
	}
	if err = os.Rename(tmp.Name(), g.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}

	slog.DebugContext(ctx, "Saved data file", "path", g.path, "users", len(snap.Users))
	return nil
}

// Encode renders the record with four-space indentation.
func Encode(snap accounts.Snapshot) ([]byte, error) {
	if snap.Users == nil {
		snap.Users = map[string]*core.Account{}
	}
	data, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a persisted record.
func Decode(data []byte) (accounts.Snapshot, error) {
	var snap accounts.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return accounts.Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if snap.Users == nil {
		snap.Users = map[string]*core.Account{}
	}
	return snap, nil
}
