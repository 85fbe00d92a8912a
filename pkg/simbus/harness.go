// Package simbus provides an in-process, virtual-time capability bundle for
// gttcan.Node: a Bus that fans frames out to every node but the sender, a
// Clock that advances in logical time units rather than sleeping, and a
// Harness that wires N simulated nodes together and drives them through a
// reproducible sequence of on_tick/on_frame calls. It is the in-repo stand-in
// for real hardware (see pkg/canbus) used by every multi-node test and by
// cmd/gttcan-sim.
package simbus

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/gttcan/gttcan/pkg/telemetry"
)

// Harness owns a fixed set of simulated nodes sharing one Bus and one Clock.
type Harness struct {
	bus   *Bus
	clock *Clock
	nodes []*Node
	log   logrus.FieldLogger
}

// NewHarness builds a Harness from a list of node configurations. rec may be
// nil (telemetry becomes a no-op); log may be nil (logrus.StandardLogger is
// used).
func NewHarness(configs []NodeConfig, rec *telemetry.Recorder, log logrus.FieldLogger) (*Harness, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	bus := newBus()
	clock := NewClock(len(configs))

	h := &Harness{bus: bus, clock: clock, log: log}
	for i, cfg := range configs {
		n, err := newNode(i, cfg, bus, clock, rec, log)
		if err != nil {
			return nil, fmt.Errorf("simbus: node %d (id %d): %w", i, cfg.NodeID, err)
		}
		bus.register(n)
		h.nodes = append(h.nodes, n)
	}
	return h, nil
}

// Nodes returns the harness's simulated nodes in configuration order.
func (h *Harness) Nodes() []*Node { return h.nodes }

// Clock returns the harness's shared virtual clock, mostly for tests that
// want to assert on elapsed virtual time.
func (h *Harness) Clock() *Clock { return h.clock }

// Start brings every node up concurrently, the way independently-booting
// hardware nodes would power on without coordinating with each other. The
// event loop driven by RunEvents afterwards is strictly single-threaded: a
// gttcan.Node is not safe for concurrent use, and a virtual clock only makes
// sense with one authoritative advancer.
func (h *Harness) Start(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	for _, n := range h.nodes {
		n := n
		g.Go(func() error {
			n.core.Start()
			return nil
		})
	}
	return g.Wait()
}

// RunEvents drives the event loop for exactly maxEvents timer firings (or
// until no node has an outstanding timer, whichever comes first), returning
// the number of events actually processed. This is the mechanism the
// multi-node end-to-end tests use to advance lockstep virtual time
// deterministically.
func (h *Harness) RunEvents(ctx context.Context, maxEvents int) (int, error) {
	for i := 0; i < maxEvents; i++ {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		idx, ok := h.clock.Next()
		if !ok {
			return i, nil
		}
		h.nodes[idx].OnTick()
	}
	return maxEvents, nil
}
