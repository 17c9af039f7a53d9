// Package storage persists the whole account store between operations.
package storage

import (
	"context"

	"pocketbook/internal/accounts"
)

// ErrCorruptState is returned by Load when the persisted record is malformed.
var ErrCorruptState = accounts.ErrCorruptState

// Gateway loads and saves the complete persisted record. Load on a store
// that was never written returns accounts.EmptySnapshot().
type Gateway interface {
	Load(ctx context.Context) (accounts.Snapshot, error)
	Save(ctx context.Context, snap accounts.Snapshot) error
}
