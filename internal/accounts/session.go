package accounts

import (
	"errors"

	"pocketbook/internal/core"
)

var ErrNotLoggedIn = errors.New("not logged in")

// Session holds at most one active username. The zero value is LoggedOut.
type Session struct {
	store    *Store
	username string
}

func NewSession(store *Store) *Session {
	return &Session{store: store}
}

// Login authenticates and, on success, makes username the active account.
// On failure the session keeps its previous state.
func (s *Session) Login(username, credential string) (*core.Account, error) {
	acct, err := s.store.Authenticate(username, credential)
	if err != nil {
		return nil, err
	}
	s.username = username
	return acct, nil
}

// Logout clears the active account. Calling it while logged out is a no-op.
func (s *Session) Logout() {
	s.username = ""
}

func (s *Session) LoggedIn() bool {
	return s.username != ""
}

// Username returns the active username, or "" when logged out.
func (s *Session) Username() string {
	return s.username
}

// Active resolves the active account.
func (s *Session) Active() (*core.Account, error) {
	if s.username == "" {
		return nil, ErrNotLoggedIn
	}
	acct, ok := s.store.Get(s.username)
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return acct, nil
}
