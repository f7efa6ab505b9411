package scene

import (
	"fmt"

	"github.com/gogpu/ggremote"
)

// Tx is the mutation surface handed to Store.Update.
// A Tx is only valid inside the Update callback.
type Tx struct {
	s         *Store
	dirty     bool
	changed   bool
	discarded bool
}

// Len returns the number of display items.
func (tx *Tx) Len() int { return len(tx.s.items) }

// Append adds an item at the end of the sequence and returns its index.
func (tx *Tx) Append(it Item) int {
	tx.s.items = append(tx.s.items, it)
	tx.changed = true
	return len(tx.s.items) - 1
}

// At returns the live item at index i for in-place mutation.
// Callers that mutate it must call MarkDirty.
func (tx *Tx) At(i int) (Item, error) {
	if i < 0 || i >= len(tx.s.items) {
		return nil, fmt.Errorf("index %d of %d: %w", i, len(tx.s.items), ggremote.ErrIndexOutOfRange)
	}
	return tx.s.items[i], nil
}

// Enqueue appends a resource to the pending queue.
func (tx *Tx) Enqueue(r Resource) {
	tx.s.pending = append(tx.s.pending, r)
	tx.changed = true
}

// MarkDirty requests a redraw when the transaction commits.
func (tx *Tx) MarkDirty() {
	tx.dirty = true
	tx.changed = true
}

// Discard drops the redraw request and the version bump of this
// transaction. It does not undo mutations already made through tx, so it
// is only meaningful before the first one.
func (tx *Tx) Discard() { tx.discarded = true }
