package state

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/LeJamon/goAssetLock/internal/core/ledger/keylet"
)

// TrackedEntry represents a ledger entry being tracked for changes
type TrackedEntry struct {
	Action   Action
	Original []byte // Original state (nil for inserts)
	Current  []byte // Current state
}

// Table is a transactional overlay on a Base. Every read and write of one
// call goes through its table; nothing reaches the base until Apply, so
// dropping the table rolls the call back.
type Table struct {
	ctx   context.Context
	base  *Base
	items map[keylet.Keylet]*TrackedEntry
}

// NewTable opens an overlay on base. ctx is used for base reads and for
// the final commit.
func NewTable(ctx context.Context, base *Base) *Table {
	return &Table{
		ctx:   ctx,
		base:  base,
		items: make(map[keylet.Keylet]*TrackedEntry),
	}
}

// Read reads a ledger entry, tracking it as cached
func (t *Table) Read(k keylet.Keylet) ([]byte, error) {
	if entry, exists := t.items[k]; exists {
		if entry.Action == ActionErase {
			return nil, nil
		}
		return entry.Current, nil
	}

	data, err := t.base.Read(t.ctx, k)
	if err != nil {
		return nil, err
	}

	// Only track entries that exist in the base
	if data != nil {
		t.items[k] = &TrackedEntry{
			Action:   ActionCache,
			Original: data,
			Current:  data,
		}
	}
	return data, nil
}

// Exists checks if an entry exists
func (t *Table) Exists(k keylet.Keylet) (bool, error) {
	if entry, exists := t.items[k]; exists {
		return entry.Action != ActionErase, nil
	}
	return t.base.Exists(t.ctx, k)
}

// Insert adds a new entry
func (t *Table) Insert(k keylet.Keylet, data []byte) error {
	if entry, exists := t.items[k]; exists {
		if entry.Action != ActionErase {
			return fmt.Errorf("%s: %w", k.Type, ErrEntryExists)
		}
		// Re-inserting a deleted entry becomes a modify
		entry.Action = ActionModify
		entry.Current = data
		return nil
	}

	exists, err := t.base.Exists(t.ctx, k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s: %w", k.Type, ErrEntryExists)
	}

	t.items[k] = &TrackedEntry{
		Action:  ActionInsert,
		Current: data,
	}
	return nil
}

// Update modifies an existing entry
func (t *Table) Update(k keylet.Keylet, data []byte) error {
	if entry, exists := t.items[k]; exists {
		if entry.Action == ActionErase {
			return fmt.Errorf("%s (deleted): %w", k.Type, ErrEntryNotFound)
		}
		if entry.Action == ActionCache {
			entry.Action = ActionModify
		}
		// For insert, keep it as insert with new data
		entry.Current = data
		return nil
	}

	original, err := t.base.Read(t.ctx, k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("%s: %w", k.Type, ErrEntryNotFound)
	}

	t.items[k] = &TrackedEntry{
		Action:   ActionModify,
		Original: original,
		Current:  data,
	}
	return nil
}

// Erase removes an entry
func (t *Table) Erase(k keylet.Keylet) error {
	if entry, exists := t.items[k]; exists {
		if entry.Action == ActionErase {
			return fmt.Errorf("%s (already deleted): %w", k.Type, ErrEntryNotFound)
		}
		if entry.Action == ActionInsert {
			// Inserting then deleting = no change
			delete(t.items, k)
			return nil
		}
		entry.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(t.ctx, k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("%s: %w", k.Type, ErrEntryNotFound)
	}

	t.items[k] = &TrackedEntry{
		Action:   ActionErase,
		Original: original,
		Current:  original,
	}
	return nil
}

// Changes returns the pending mutations in storage key order. Reads and
// modifications that restore the original bytes are left out.
func (t *Table) Changes() []Change {
	changes := make([]Change, 0, len(t.items))
	for k, entry := range t.items {
		switch entry.Action {
		case ActionCache:
			continue
		case ActionModify:
			if bytes.Equal(entry.Original, entry.Current) {
				continue
			}
			changes = append(changes, Change{Action: ActionModify, Keylet: k, Data: entry.Current})
		case ActionInsert:
			changes = append(changes, Change{Action: ActionInsert, Keylet: k, Data: entry.Current})
		case ActionErase:
			changes = append(changes, Change{Action: ActionErase, Keylet: k})
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		return bytes.Compare(changes[i].Keylet.Bytes(), changes[j].Keylet.Bytes()) < 0
	})
	return changes
}

// Apply commits all pending changes to the base in a single batch and
// returns them. The table is empty afterwards.
func (t *Table) Apply() ([]Change, error) {
	changes := t.Changes()
	if err := t.base.Commit(t.ctx, changes); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	t.items = make(map[keylet.Keylet]*TrackedEntry)
	return changes, nil
}

// Discard drops every pending change.
func (t *Table) Discard() {
	t.items = make(map[keylet.Keylet]*TrackedEntry)
}
