// Package memory is an in-process storage.Gateway. It keeps an encoded
// copy of the last saved record so later mutations do not leak into it.
package memory

import (
	"context"
	"sync"

	"pocketbook/internal/accounts"
	"pocketbook/internal/storage"
)

type Store struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

var _ storage.Gateway = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Load returns the last saved record, or the empty default.
func (s *Store) Load(_ context.Context) (accounts.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return accounts.EmptySnapshot(), nil
	}
	return storage.Decode(s.data)
}

func (s *Store) Save(_ context.Context, snap accounts.Snapshot) error {
	data, err := storage.Encode(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Bytes returns the encoded record as it would be written to disk.
func (s *Store) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}
