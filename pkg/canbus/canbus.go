// Package canbus wires a gttcan.Node to a real SocketCAN interface through
// github.com/brutella/can, the same transport package gocanopen's driver
// layer builds on. It supplies the four gttcan.Callbacks: transmit_frame
// becomes bus.Publish, frame reception is wired through bus.SubscribeFunc
// into Node.OnFrame, and set_timer_interrupt is realized with a single
// time.Timer whose Reset call always wins over whatever was previously
// pending — Go's closest analogue to a hardware timer peripheral.
package canbus

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/brutella/can"
	"github.com/sirupsen/logrus"

	"github.com/gttcan/gttcan/pkg/gttcan"
	"github.com/gttcan/gttcan/pkg/telemetry"
)

// Config describes one node's hardware binding.
type Config struct {
	Interface                     string // e.g. "can0"
	NodeID                        uint8
	Global                        []gttcan.GlobalScheduleEntry
	SlotDuration                  uint32
	InterruptTimingOffset         uint32
	DynamicSlotDurationCorrection bool
}

// Node binds a gttcan.Node to a live SocketCAN bus.
type Node struct {
	core *gttcan.Node
	bus  *can.Bus
	rec  *telemetry.Recorder
	log  logrus.FieldLogger

	mu    sync.Mutex
	store map[uint16]uint64
	timer *time.Timer
}

// New opens cfg.Interface and constructs a Node bound to it. It does not
// start reading the bus; call Run for that.
func New(cfg Config, rec *telemetry.Recorder, log logrus.FieldLogger) (*Node, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	bus, err := can.NewBusForInterfaceWithName(cfg.Interface)
	if err != nil {
		return nil, fmt.Errorf("canbus: open %s: %w", cfg.Interface, err)
	}

	n := &Node{
		bus:   bus,
		rec:   rec,
		log:   log.WithField("node_id", cfg.NodeID),
		store: make(map[uint16]uint64),
	}

	cb := gttcan.Callbacks{
		TransmitFrame:     n.transmitFrame,
		SetTimerInterrupt: n.setTimerInterrupt,
		ReadValue:         n.readValue,
		WriteValue:        n.writeValue,
	}
	core, err := gttcan.Init(cfg.NodeID, cfg.Global, cfg.SlotDuration, cfg.InterruptTimingOffset, cb, cfg.DynamicSlotDurationCorrection)
	if err != nil {
		return nil, err
	}
	n.core = core

	bus.SubscribeFunc(n.handle)
	return n, nil
}

// Run starts the node's cycle (it calls the core's Start itself, arming the
// first timer interrupt) and blocks, reading the bus, until the bus's
// connection drops or is closed.
func (n *Node) Run() error {
	n.core.Start()
	return n.bus.ConnectAndPublish()
}

// Start arms the node's first timer interrupt. Run already does this as its
// first step.
func (n *Node) Start() { n.core.Start() }

// Close disconnects from the bus and stops any pending timer.
func (n *Node) Close() error {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
	}
	n.mu.Unlock()
	return n.bus.Disconnect()
}

func (n *Node) handle(frame can.Frame) {
	// frame.ID is used as the raw G-TTCAN identifier. Most S=13/D=16 ids need
	// the extended 29-bit range, but the reference frame (slot 0, data 0) has
	// id 0; the extended-frame flag is neither set on transmit nor checked here.
	frameID := frame.ID
	data := binary.BigEndian.Uint64(frame.Data[:])
	_, dataID := gttcan.Decode(frameID)
	n.rec.FrameReceived(n.core.NodeID(), dataID)
	n.log.WithFields(logrus.Fields{"frame_id": frameID, "data_id": dataID}).Debug("on_frame")
	n.core.OnFrame(frameID, data)
}

func (n *Node) transmitFrame(frameID uint32, data uint64) {
	_, dataID := gttcan.Decode(frameID)
	n.rec.FrameSent(n.core.NodeID(), dataID)

	var payload [8]byte
	binary.BigEndian.PutUint64(payload[:], data)
	frame := can.Frame{
		ID:     frameID,
		Length: 8,
		Data:   payload,
	}
	if err := n.bus.Publish(frame); err != nil {
		n.log.WithError(err).Warn("transmit_frame: publish failed")
	}
}

// setTimerInterrupt replaces any outstanding timer with one firing after
// delay time units (interpreted as microseconds), matching the contract
// that the most-recently-requested deadline always wins.
func (n *Node) setTimerInterrupt(delay uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()

	d := time.Duration(delay) * time.Microsecond
	if n.timer == nil {
		n.timer = time.AfterFunc(d, n.fireTick)
		return
	}
	n.timer.Stop()
	n.timer.Reset(d)
}

func (n *Node) fireTick() {
	wasMaster := n.core.IsTimeMaster()
	n.core.OnTick()
	if n.core.IsTimeMaster() && !wasMaster {
		n.rec.MasterChanged(n.core.NodeID())
		n.log.Info("won time-master election")
	}
	n.rec.DriftOffset(n.core.NodeID(), n.core.SlotDurationOffset())
}

func (n *Node) readValue(dataID uint16) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store[dataID]
}

func (n *Node) writeValue(dataID uint16, data uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.store[dataID] = data
}

// Core exposes the underlying protocol state machine for inspection.
func (n *Node) Core() *gttcan.Node { return n.core }
