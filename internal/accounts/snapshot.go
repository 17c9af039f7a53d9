package accounts

import (
	"errors"
	"fmt"

	"pocketbook/internal/core"
)

// ErrCorruptState reports a persisted record that cannot be turned back
// into a store.
var ErrCorruptState = errors.New("corrupt persisted state")

// Snapshot is the persisted record: every account plus the session.
type Snapshot struct {
	Users       map[string]*core.Account `json:"users"`
	CurrentUser *string                  `json:"current_user"`
}

// EmptySnapshot is what a first run starts from.
func EmptySnapshot() Snapshot {
	return Snapshot{Users: map[string]*core.Account{}}
}

// Snapshot captures the store and the session. Accounts are shared, not
// copied; callers serialize the result before mutating again.
func (s *Store) Snapshot(sess *Session) Snapshot {
	snap := Snapshot{Users: make(map[string]*core.Account, len(s.users))}
	for name, acct := range s.users {
		snap.Users[name] = acct
	}
	if sess != nil && sess.LoggedIn() {
		name := sess.Username()
		snap.CurrentUser = &name
	}
	return snap
}

// Restore rebuilds a store and its session from a snapshot.
func Restore(snap Snapshot, hasher Hasher) (*Store, *Session, error) {
	store := NewStore(hasher)
	for name, acct := range snap.Users {
		if acct == nil {
			return nil, nil, fmt.Errorf("%w: account %q is null", ErrCorruptState, name)
		}
		if acct.Categories == nil {
			acct.Categories = core.NewCategoryTotals()
		}
		store.users[name] = acct
	}
	sess := NewSession(store)
	if snap.CurrentUser != nil && *snap.CurrentUser != "" {
		if _, ok := store.users[*snap.CurrentUser]; !ok {
			return nil, nil, fmt.Errorf("%w: current user %q has no account", ErrCorruptState, *snap.CurrentUser)
		}
		sess.username = *snap.CurrentUser
	}
	return store, sess, nil
}
