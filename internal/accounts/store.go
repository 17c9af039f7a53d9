// Package accounts owns the username -> account mapping, the credential
// check and the session that selects the active account.
package accounts

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"pocketbook/internal/core"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrUnknownUsername   = errors.New("username not found")
	ErrInvalidCredential = errors.New("incorrect password")
	ErrEmptyUsername     = errors.New("empty username")
)

// Hasher turns a credential into its stored form and checks a candidate
// against a stored value.
type Hasher interface {
	Hash(credential string) (string, error)
	Matches(stored, credential string) bool
}

// PlainHasher stores credentials as given and compares by exact match.
type PlainHasher struct{}

func (PlainHasher) Hash(credential string) (string, error) { return credential, nil }

func (PlainHasher) Matches(stored, credential string) bool { return stored == credential }

// BcryptHasher stores bcrypt hashes. Stored values that are not bcrypt
// hashes (records written before hashing was enabled) are compared by
// exact match.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(credential string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(credential), cost)
	if err != nil {
		return "", fmt.Errorf("hash credential: %w", err)
	}
	return string(b), nil
}

func (BcryptHasher) Matches(stored, credential string) bool {
	if !isBcrypt(stored) {
		return stored == credential
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(credential)) == nil
}

func isBcrypt(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// Store maps usernames to accounts. Keys are unique; accounts are never
// removed.
type Store struct {
	users  map[string]*core.Account
	hasher Hasher
}

// NewStore returns an empty store. A nil hasher stores plain text.
func NewStore(hasher Hasher) *Store {
	if hasher == nil {
		hasher = PlainHasher{}
	}
	return &Store{users: map[string]*core.Account{}, hasher: hasher}
}

// Create inserts a zero-valued account under username.
func (s *Store) Create(username, credential string) error {
	if username == "" {
		return ErrEmptyUsername
	}
	if _, ok := s.users[username]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
	}
	stored, err := s.hasher.Hash(credential)
	if err != nil {
		return err
	}
	s.users[username] = core.NewAccount(stored)
	return nil
}

// Authenticate returns the account for username when credential matches.
func (s *Store) Authenticate(username, credential string) (*core.Account, error) {
	acct, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUsername, username)
	}
	if !s.hasher.Matches(acct.Credential, credential) {
		return nil, ErrInvalidCredential
	}
	return acct, nil
}

// Get returns the account stored under username.
func (s *Store) Get(username string) (*core.Account, bool) {
	acct, ok := s.users[username]
	return acct, ok
}

func (s *Store) Len() int {
	return len(s.users)
}
