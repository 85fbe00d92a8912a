package simbus

import (
	"github.com/sirupsen/logrus"

	"github.com/gttcan/gttcan/pkg/gttcan"
	"github.com/gttcan/gttcan/pkg/telemetry"
)

// NodeConfig is everything a simulated node needs beyond the bus and clock
// it shares with its peers.
type NodeConfig struct {
	NodeID                        uint8
	Global                        []gttcan.GlobalScheduleEntry
	SlotDuration                  uint32
	InterruptTimingOffset         uint32
	DynamicSlotDurationCorrection bool
}

// Node binds one gttcan.Node to a shared Bus and Clock, supplying the four
// callbacks with an in-memory application data store. It is the simulated
// analogue of pkg/canbus's hardware-backed capability bundle.
type Node struct {
	idx    int
	core   *gttcan.Node
	bus    *Bus
	clock  *Clock
	rec    *telemetry.Recorder
	log    logrus.FieldLogger
	store  map[uint16]uint64
}

func newNode(idx int, cfg NodeConfig, bus *Bus, clock *Clock, rec *telemetry.Recorder, log logrus.FieldLogger) (*Node, error) {
	n := &Node{
		idx:   idx,
		bus:   bus,
		clock: clock,
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
	return n, nil
}

func (n *Node) transmitFrame(frameID uint32, data uint64) {
	_, dataID := gttcan.Decode(frameID)
	n.rec.FrameSent(n.core.NodeID(), dataID)
	n.log.WithFields(logrus.Fields{"frame_id": frameID, "data_id": dataID}).Debug("transmit_frame")
	n.bus.Publish(n, frameID, data)
}

func (n *Node) setTimerInterrupt(delay uint32) {
	n.clock.Arm(n.idx, delay)
}

func (n *Node) readValue(dataID uint16) uint64 {
	return n.store[dataID]
}

func (n *Node) writeValue(dataID uint16, data uint64) {
	n.store[dataID] = data
}

// OnTick fires this node's timer interrupt, recording a master-election
// transition and a drift sample for telemetry around the call.
func (n *Node) OnTick() {
	wasMaster := n.core.IsTimeMaster()
	n.core.OnTick()
	if n.core.IsTimeMaster() && !wasMaster {
		n.rec.MasterChanged(n.core.NodeID())
		n.log.Info("won time-master election")
	}
	n.rec.DriftOffset(n.core.NodeID(), n.core.SlotDurationOffset())
}

// onFrame delivers a received frame to the core state machine, recording
// telemetry around the call the same way a real CAN driver's receive ISR
// would before handing the frame to gttcan.Node.OnFrame.
func (n *Node) onFrame(frameID uint32, data uint64) {
	_, dataID := gttcan.Decode(frameID)
	n.rec.FrameReceived(n.core.NodeID(), dataID)
	n.core.OnFrame(frameID, data)
}

// Core exposes the underlying protocol state machine for inspection, e.g. in
// tests and the gttcan-sim command's summary output.
func (n *Node) Core() *gttcan.Node { return n.core }
