package membership

import (
	"context"
	"time"
)

// Discoverer produces the current candidate peer set from some inventory
// source, typically a cloud provider's tagged-resource listing. Expected
// failure modes (bad credentials, transport errors, non-200 responses) are
// returned as errors, never panics; the Poller degrades them to an empty
// candidate set for the cycle. A successful listing that yields no usable
// peers is an empty set with a nil error.
type Discoverer interface {
	Discover(ctx context.Context) (PeerSet, error)
}

// Connector establishes and tears down transport-level connections to
// peers. Implementations must report per-peer outcomes exhaustively: every
// peer absent from the returned FailureReport was acted upon successfully.
type Connector interface {
	Connect(ctx context.Context, peers []PeerID) FailureReport
	Disconnect(ctx context.Context, peers []PeerID) FailureReport
}

// Instrumentation receives reconciliation outcomes. Implementations must be
// cheap; they're invoked inline at the end of every cycle.
type Instrumentation interface {
	ObserveCycle(added, removed, connectFailures, disconnectFailures, connected int, took time.Duration)
	DiscoveryError()
}

// NopInstrumentation discards all observations.
type NopInstrumentation struct{}

// ObserveCycle implements Instrumentation.
func (NopInstrumentation) ObserveCycle(added, removed, connectFailures, disconnectFailures, connected int, took time.Duration) {
}

// DiscoveryError implements Instrumentation.
func (NopInstrumentation) DiscoveryError() {}
