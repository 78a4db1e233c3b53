package membership

import "sort"

// FailureReport maps each peer that a Connector failed to act upon to the
// reason. A nil or empty report means every peer succeeded. Connectors must
// partition exhaustively: any peer absent from the report was acted upon.
type FailureReport map[PeerID]error

// Failed reports whether the peer appears in the report.
func (r FailureReport) Failed(id PeerID) bool {
	_, ok := r[id]
	return ok
}

// Diff computes the delta between the peers we believe connected and the
// peers the inventory source reports: toAdd is candidate minus known,
// toRemove is known minus candidate. The two slices are disjoint by
// construction, and returned in lexical order.
func Diff(known, candidate PeerSet) (toAdd, toRemove []PeerID) {
	for id := range candidate {
		if !known.Has(id) {
			toAdd = append(toAdd, id)
		}
	}
	for id := range known {
		if !candidate.Has(id) {
			toRemove = append(toRemove, id)
		}
	}
	sort.Slice(toAdd, func(i, j int) bool { return toAdd[i] < toAdd[j] })
	sort.Slice(toRemove, func(i, j int) bool { return toRemove[i] < toRemove[j] })
	return toAdd, toRemove
}

// ApplyDisconnectFailures corrects a proposed next set after disconnects
// have been attempted: every removed peer whose disconnect failed is still
// actually connected, so it's re-inserted. The set is modified in place and
// returned.
func ApplyDisconnectFailures(next PeerSet, removed []PeerID, report FailureReport) PeerSet {
	for _, id := range removed {
		if report.Failed(id) {
			next.Add(id)
		}
	}
	return next
}

// ApplyConnectFailures corrects a proposed next set after connects have
// been attempted: every added peer whose connect failed was never actually
// connected, so it's deleted. The set is modified in place and returned.
func ApplyConnectFailures(next PeerSet, added []PeerID, report FailureReport) PeerSet {
	for _, id := range added {
		if report.Failed(id) {
			next.Remove(id)
		}
	}
	return next
}
