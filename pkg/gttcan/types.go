// Package gttcan implements the G-TTCAN node state machine: a
// globally-scheduled, time-triggered CAN arbitration protocol. Every node
// running this package holds the same ordered global schedule and transmits
// only in the slots it owns; a dynamically-elected time master emits the
// reference frame that anchors every follower's cycle.
//
// The package is polymorphic over its hardware dependencies (CAN transport,
// timer peripheral, application data store) through the Callbacks bundle
// passed to Init, so the same Node can run against real SocketCAN hardware
// (see package canbus) or a fully virtual bus and clock for testing (see
// package simbus).
package gttcan

import "fmt"

// Compile-time wire-format configuration. S + D must not exceed 29 bits, the
// extended CAN identifier width.
const (
	NumSlotIDBits = 13
	NumDataIDBits = 16
)

// ReferenceFrameDataID is the reserved data_id carried by every reference
// frame. slot_id 0 of the global schedule must always be a reference frame.
const ReferenceFrameDataID uint16 = 0

// MaxLocalScheduleLength bounds the length of the projected local schedule.
// The local schedule is a slice that Init allocates once, not fixed-capacity
// inline storage. A global schedule that projects to more entries than this
// is an init-time configuration error, never a silent truncation.
const MaxLocalScheduleLength = 256

// MaxGlobalScheduleLength bounds the global schedule length G.
const MaxGlobalScheduleLength = 8192

// DefaultStartupPauseSlots staggers the first timer interrupt by node id so
// two nodes booting simultaneously cannot collide on their first transmission.
const DefaultStartupPauseSlots = 2

// NumRoundsBeforeAllNodeAdjust is the number of consecutive reference-frame
// rounds without a master-sourced drift hint before every node (not only
// frames attributed to the master) is allowed to contribute drift hints.
const NumRoundsBeforeAllNodeAdjust = 2

// GlobalScheduleEntry is one row of the schedule every node shares, in cycle
// order. slot_id 0 is reserved for the reference frame, and the entry at
// cycle origin must carry data_id == ReferenceFrameDataID.
type GlobalScheduleEntry struct {
	NodeID uint8
	SlotID uint16
	DataID uint16
}

// LocalScheduleEntry is the projection of a GlobalScheduleEntry onto a single
// node: everything needed to arm a timer and build a frame id, without the
// owning node id (the local schedule is inherently "mine, plus reference
// slots").
type LocalScheduleEntry struct {
	SlotID uint16
	DataID uint16
}

// TransmitFrameFunc queues an extended-id CAN frame for transmission. It must
// not block; it is called from on_tick at interrupt level.
type TransmitFrameFunc func(frameID uint32, data uint64)

// SetTimerInterruptFunc replaces any outstanding timer and requests a single
// future firing after delay time units. The most-recently-requested deadline
// always wins.
type SetTimerInterruptFunc func(delay uint32)

// ReadValueFunc returns the application's current value for a data_id, used
// to populate an outgoing frame's payload.
type ReadValueFunc func(dataID uint16) uint64

// WriteValueFunc stores a received application value for a data_id.
type WriteValueFunc func(dataID uint16, data uint64)

// Callbacks is the capability bundle a Node is initialised with: its entire
// boundary with the outside world (CAN controller, timer peripheral,
// application data store). None of the four fields may be nil.
type Callbacks struct {
	TransmitFrame     TransmitFrameFunc
	SetTimerInterrupt SetTimerInterruptFunc
	ReadValue         ReadValueFunc
	WriteValue        WriteValueFunc
}

// Node is the single-instance protocol state machine that runs on one CAN
// node. Every field below is part of its observable state; there is no
// hidden global state and no allocation once Init returns.
type Node struct {
	// Identity & config.
	nodeID                        uint8
	globalScheduleLength          uint16
	slotDuration                  uint32
	interruptTimingOffset         uint32
	dynamicSlotDurationCorrection bool

	// Lifecycle flags.
	isInitialised bool
	isActive      bool
	isTimeMaster  bool

	// Schedule cursor.
	local              []LocalScheduleEntry
	localScheduleIndex int

	// Global schedule kept only for sender lookup in OnFrame; the node never
	// re-derives its local schedule from it after Init.
	global []GlobalScheduleEntry

	// Drift tracking.
	slotDurationOffset                int32
	reachedEndOfScheduleEarly         bool
	roundsWithoutShuffleAgainstMaster uint8

	// Election tracking. 0 is the "unset" sentinel.
	lastLowestSeenNodeID    uint8
	currentLowestSeenNodeID uint8

	cb Callbacks
}

// NodeID returns this node's configured identity.
func (n *Node) NodeID() uint8 { return n.nodeID }

// IsActive reports whether the node currently participates in the cycle.
func (n *Node) IsActive() bool { return n.isActive }

// IsTimeMaster reports whether this node is currently entitled to emit
// reference frames.
func (n *Node) IsTimeMaster() bool { return n.isTimeMaster }

// LocalScheduleIndex returns the node's current cursor into its projected
// local schedule, mostly useful for tests and diagnostics.
func (n *Node) LocalScheduleIndex() int { return n.localScheduleIndex }

// LocalScheduleLen returns the length L of the projected local schedule.
func (n *Node) LocalScheduleLen() int { return len(n.local) }

// SlotDuration returns the node's current (possibly drift-corrected) slot
// duration.
func (n *Node) SlotDuration() uint32 { return n.slotDuration }

// SlotDurationOffset returns the signed drift accumulator; +ve means "I'm
// fast", -ve means "I'm slow".
func (n *Node) SlotDurationOffset() int32 { return n.slotDurationOffset }

// InitError reports a misconfiguration detected at Init time. The core never
// recovers from these; integration must fix the configuration and retry.
type InitError struct {
	Reason string
}

func (e *InitError) Error() string {
	return fmt.Sprintf("gttcan: init error: %s", e.Reason)
}
