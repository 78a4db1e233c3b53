package membership

import "sync"

// Store holds the single source of truth for the peers this node currently
// believes it is connected to. It starts empty, and is replaced wholesale
// at the end of every reconciliation cycle; there are no partial updates.
// Only one cycle writes at a time, but snapshot reads may come from
// anywhere (e.g. a debug endpoint), so access is guarded.
type Store struct {
	mtx   sync.RWMutex
	known PeerSet
}

// NewStore returns a Store with an empty known set.
func NewStore() *Store {
	return &Store{known: PeerSet{}}
}

// Current returns a snapshot of the known set. The snapshot is independent:
// mutating it doesn't affect the store.
func (s *Store) Current() PeerSet {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.known.Copy()
}

// Replace swaps in next as the known set.
func (s *Store) Replace(next PeerSet) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.known = next.Copy()
}
