package membership

import (
	"sort"
	"strings"
)

// PeerID uniquely names a peer process in the cluster. It's the shared node
// basename joined with the peer's address, e.g. "myapp@10.0.1.2". Two
// PeerIDs are equal iff their string forms are equal.
type PeerID string

// MakePeerID constructs a PeerID from a basename and an address.
func MakePeerID(basename, addr string) PeerID {
	return PeerID(basename + "@" + addr)
}

// Basename returns the portion of the PeerID before the '@'.
func (id PeerID) Basename() string {
	if i := strings.IndexByte(string(id), '@'); i >= 0 {
		return string(id)[:i]
	}
	return string(id)
}

// Addr returns the portion of the PeerID after the '@'.
func (id PeerID) Addr() string {
	if i := strings.IndexByte(string(id), '@'); i >= 0 {
		return string(id)[i+1:]
	}
	return ""
}

func (id PeerID) String() string {
	return string(id)
}

// PeerSet is an unordered collection of unique PeerIDs.
type PeerSet map[PeerID]struct{}

// NewPeerSet returns a PeerSet of the given IDs. Duplicates collapse.
func NewPeerSet(ids ...PeerID) PeerSet {
	s := make(PeerSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add the ID to the set.
func (s PeerSet) Add(id PeerID) {
	s[id] = struct{}{}
}

// Remove the ID from the set, if present.
func (s PeerSet) Remove(id PeerID) {
	delete(s, id)
}

// Has reports whether the ID is in the set.
func (s PeerSet) Has(id PeerID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of peers in the set.
func (s PeerSet) Len() int {
	return len(s)
}

// Copy returns an independent copy of the set.
func (s PeerSet) Copy() PeerSet {
	c := make(PeerSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Equal reports whether both sets contain exactly the same peers.
func (s PeerSet) Equal(other PeerSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// Slice returns the peers in lexical order, for stable logs and tests.
func (s PeerSet) Slice() []PeerID {
	res := make([]PeerID, 0, len(s))
	for id := range s {
		res = append(res, id)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}
