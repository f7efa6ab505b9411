// Package scene holds the mirrored remote scene: an ordered sequence of
// display items, the resources waiting to be resolved, the pending window
// overrides and the redraw flag.
//
// All of that state forms a single consistency domain guarded by one
// mutex. Writers group a logical operation into one Update call; the frame
// producer takes a Snapshot with Drain. A frame therefore never observes a
// batch half applied, nor a drain interleaved with a clear.
//
// Display items are addressed by positional index: the index assigned at
// append time stays valid until the next Clear. Items are never removed
// one at a time.
package scene

import "sync"

// Store is the mutable mirror of the remote scene.
//
// Store is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	items   []Item
	pending []Resource

	position slot[Point]
	size     slot[Size]

	dirty bool

	// version is incremented on each committed mutation.
	version uint64

	clears uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		items:   make([]Item, 0, 64),
		pending: make([]Resource, 0, 8),
	}
}

// Update runs fn inside the store's critical section. Everything fn does
// through tx becomes visible to readers at once, when Update returns.
//
// The redraw flag is set once at the end if fn marked the transaction
// dirty and did not discard it. fn's error is returned unchanged; changes
// made before the error are kept.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := Tx{s: s}
	err := fn(&tx)
	if tx.discarded {
		return err
	}
	if tx.changed {
		s.version++
	}
	if tx.dirty {
		s.dirty = true
	}
	return err
}

// Clear removes every display item and every pending resource and marks
// the scene for redraw. Window overrides are kept.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.items)
	s.items = s.items[:0]
	clear(s.pending)
	s.pending = s.pending[:0]
	s.dirty = true
	s.version++
	s.clears++
}

// SetWindowPosition records a window position for the render loop,
// replacing any value it has not consumed yet.
func (s *Store) SetWindowPosition(p Point) {
	s.mu.Lock()
	s.position.put(p)
	s.mu.Unlock()
}

// TakeWindowPosition consumes the pending window position.
// It returns false if nothing was written since the last take.
func (s *Store) TakeWindowPosition() (Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position.take()
}

// SetWindowSize records a window size for the render loop,
// replacing any value it has not consumed yet.
func (s *Store) SetWindowSize(sz Size) {
	s.mu.Lock()
	s.size.put(sz)
	s.mu.Unlock()
}

// TakeWindowSize consumes the pending window size.
// It returns false if nothing was written since the last take.
func (s *Store) TakeWindowSize() (Size, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size.take()
}

// TakeRedraw reports whether the scene changed since the last call and
// clears the flag.
func (s *Store) TakeRedraw() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.dirty
	s.dirty = false
	return d
}

// Snapshot is a point-in-time view of the store taken by Drain.
// It shares no mutable state with the store.
type Snapshot struct {
	// Resources are the pending resources in arrival order.
	Resources []Resource
	// Items are deep copies of the display items in index order.
	Items []Item
	// Version is the store version the snapshot was taken at.
	Version uint64
}

// Drain atomically removes the pending resources and copies the display
// items. It is the only read path of the frame producer.
func (s *Store) Drain() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Items:   cloneItems(s.items),
		Version: s.version,
	}
	if len(s.pending) > 0 {
		snap.Resources = make([]Resource, len(s.pending))
		copy(snap.Resources, s.pending)
		clear(s.pending)
		s.pending = s.pending[:0]
	}
	return snap
}

// TakeResources atomically removes and returns the pending resources in
// arrival order.
func (s *Store) TakeResources() []Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	out := make([]Resource, len(s.pending))
	copy(out, s.pending)
	clear(s.pending)
	s.pending = s.pending[:0]
	return out
}

// Items returns deep copies of the display items in index order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Len returns the number of display items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// PendingResources returns the number of resources waiting to be drained.
func (s *Store) PendingResources() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Version returns the number of committed mutations so far.
// Readers use it to detect change without copying the items.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Stats is a snapshot of store counters.
type Stats struct {
	Items            int
	PendingResources int
	Version          uint64
	Clears           uint64
	// PositionDrops and SizeDrops count overrides replaced before the
	// render loop consumed them.
	PositionDrops uint64
	SizeDrops     uint64
}

// Stats returns a snapshot of store counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Items:            len(s.items),
		PendingResources: len(s.pending),
		Version:          s.version,
		Clears:           s.clears,
		PositionDrops:    s.position.dropped,
		SizeDrops:        s.size.dropped,
	}
}

func cloneItems(items []Item) []Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
