// Package state holds the persistent ledger state and the per-call
// transactional overlay every escrow operation runs on.
package state

import (
	"errors"

	"github.com/LeJamon/goAssetLock/internal/core/ledger/keylet"
)

var (
	// ErrEntryExists is returned by Insert when the keylet is already present.
	ErrEntryExists = errors.New("entry already exists")

	// ErrEntryNotFound is returned by Update and Erase on a missing keylet.
	ErrEntryNotFound = errors.New("entry not found")
)

// Reader is a read-only view of ledger state. Read returns (nil, nil) for
// an absent entry.
type Reader interface {
	Read(k keylet.Keylet) ([]byte, error)
	Exists(k keylet.Keylet) (bool, error)
}

// View is a mutable view of ledger state.
type View interface {
	Reader
	Insert(k keylet.Keylet, data []byte) error
	Update(k keylet.Keylet, data []byte) error
	Erase(k keylet.Keylet) error
}

// Action represents the type of modification to a ledger entry
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

func (a Action) String() string {
	switch a {
	case ActionCache:
		return "cache"
	case ActionInsert:
		return "insert"
	case ActionModify:
		return "modify"
	case ActionErase:
		return "erase"
	default:
		return "unknown"
	}
}

// Change is one entry mutation produced by Table.Apply and written by
// Base.Commit.
type Change struct {
	Action Action
	Keylet keylet.Keylet
	Data   []byte // nil for erase
}
