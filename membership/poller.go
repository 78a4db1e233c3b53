package membership

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// DefaultInterval between reconciliation cycles, used when PollerConfig
// doesn't specify one.
const DefaultInterval = 5 * time.Second

// Poller states, as reported by State.
const (
	StateIdle        = "idle"
	StateReconciling = "reconciling"
)

// PollerConfig describes how to construct a Poller.
type PollerConfig struct {
	// Discoverer produces the candidate peer set each cycle.
	//
	// Required.
	Discoverer Discoverer

	// Connector executes the connects and disconnects the cycle decides on.
	//
	// Required.
	Connector Connector

	// Store holds the known set between cycles.
	//
	// Required.
	Store *Store

	// Interval between cycles. Every cycle, whatever its outcome, re-arms
	// exactly this interval; there is no backoff or jitter.
	//
	// Optional. If not provided, DefaultInterval is used.
	Interval time.Duration

	// Cycle outcomes and diagnostic information are sent via this logger.
	//
	// Optional, but recommended.
	Logger log.Logger

	// Instrumentation receives per-cycle observations.
	//
	// Optional.
	Instrumentation Instrumentation
}

// Poller owns one membership instance: it drives the polling cadence,
// invoking discovery, reconciliation, and the store update, then arms the
// next tick. Exactly one cycle is in flight at a time; concurrency across
// membership groups is achieved by running independent Pollers. Poller
// methods are safe for concurrent use, but Run must be called only once.
type Poller struct {
	discoverer Discoverer
	connector  Connector
	store      *Store
	interval   time.Duration
	logger     log.Logger
	instr      Instrumentation
	kick       chan struct{}
	state      atomic.Value // string
}

// NewPoller validates the config and constructs a Poller. The returned
// Poller isn't polling yet; call Run.
func NewPoller(config PollerConfig) (*Poller, error) {
	if config.Discoverer == nil {
		return nil, errors.New("must provide Discoverer")
	}
	if config.Connector == nil {
		return nil, errors.New("must provide Connector")
	}
	if config.Store == nil {
		return nil, errors.New("must provide Store")
	}
	if config.Interval == 0 {
		config.Interval = DefaultInterval
	}
	if config.Interval < 0 {
		return nil, errors.Errorf("invalid interval %v", config.Interval)
	}
	if config.Logger == nil {
		config.Logger = log.NewNopLogger()
	}
	if config.Instrumentation == nil {
		config.Instrumentation = NopInstrumentation{}
	}

	p := &Poller{
		discoverer: config.Discoverer,
		connector:  config.Connector,
		store:      config.Store,
		interval:   config.Interval,
		logger:     config.Logger,
		instr:      config.Instrumentation,
		kick:       make(chan struct{}, 1),
	}
	p.state.Store(StateIdle)
	return p, nil
}

// Run polls until ctx is canceled, starting with an immediate cycle. Cycle
// errors are absorbed and logged, never returned; recovery is via the next
// tick. The only return value is ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	p.cycle(ctx)

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timer.C:

		case <-p.kick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		p.cycle(ctx)
		timer.Reset(p.interval)
	}
}

// Kick requests an out-of-cadence cycle, e.g. from an operator endpoint.
// Kicks coalesce: at most one extra cycle is buffered, and a kick arriving
// while a cycle is already pending or in flight is dropped without effect.
// Kick never blocks.
func (p *Poller) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// State returns StateIdle or StateReconciling. Useful for debug endpoints.
func (p *Poller) State() string {
	return p.state.Load().(string)
}

func (p *Poller) cycle(ctx context.Context) {
	began := time.Now()
	p.state.Store(StateReconciling)
	defer p.state.Store(StateIdle)

	candidate, err := p.discoverer.Discover(ctx)
	if err != nil {
		level.Warn(p.logger).Log("op", "discover", "err", err, "msg", "treating candidate set as empty")
		p.instr.DiscoveryError()
		candidate = PeerSet{}
	}

	known := p.store.Current()
	toAdd, toRemove := Diff(known, candidate)
	if len(toAdd) == 0 && len(toRemove) == 0 {
		level.Debug(p.logger).Log("op", "cycle", "peers", known.Len(), "msg", "no change")
		p.instr.ObserveCycle(0, 0, 0, 0, known.Len(), time.Since(began))
		return
	}

	// Disconnects run before connects, and the corrected set is built from
	// the candidate: re-insert what we failed to drop, drop what we failed
	// to add.
	next := candidate.Copy()

	var disconnectFailed FailureReport
	if len(toRemove) > 0 {
		disconnectFailed = p.connector.Disconnect(ctx, toRemove)
		next = ApplyDisconnectFailures(next, toRemove, disconnectFailed)
		for id, err := range disconnectFailed {
			level.Warn(p.logger).Log("op", "disconnect", "peer", id, "err", err)
		}
	}

	var connectFailed FailureReport
	if len(toAdd) > 0 {
		connectFailed = p.connector.Connect(ctx, toAdd)
		next = ApplyConnectFailures(next, toAdd, connectFailed)
		for id, err := range connectFailed {
			level.Warn(p.logger).Log("op", "connect", "peer", id, "err", err)
		}
	}

	p.store.Replace(next)

	level.Info(p.logger).Log(
		"op", "cycle",
		"added", len(toAdd)-len(connectFailed),
		"removed", len(toRemove)-len(disconnectFailed),
		"connect_failures", len(connectFailed),
		"disconnect_failures", len(disconnectFailed),
		"peers", next.Len(),
		"took", time.Since(began),
	)
	p.instr.ObserveCycle(len(toAdd), len(toRemove), len(connectFailed), len(disconnectFailed), next.Len(), time.Since(began))
}
