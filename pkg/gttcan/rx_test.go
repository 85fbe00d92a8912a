package gttcan

import "testing"

// TestOnFrameReferenceFrameResync mirrors a follower that has fallen behind:
// receiving a reference frame for slot 3 while still camped on slot 0 must
// jump the cursor forward to the next entry past slot 3 and re-arm the timer
// using that entry's slot distance.
func TestOnFrameReferenceFrameResync(t *testing.T) {
	global := []GlobalScheduleEntry{
		{NodeID: 1, SlotID: 0, DataID: 0},
		{NodeID: 2, SlotID: 5, DataID: 1},
	}
	const offset = 50
	var armed uint32
	cb := noopCallbacks()
	cb.SetTimerInterrupt = func(delay uint32) { armed = delay }

	n, err := Init(2, global, 300, offset, cb, false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	n.isActive = true // resync is meaningful once the node has joined the cycle

	n.OnFrame(Encode(3, ReferenceFrameDataID), 0)

	if got := n.LocalScheduleIndex(); got != 1 {
		t.Fatalf("index = %d, want 1 (pointing at slot 5)", got)
	}
	want := uint32(2*300 - offset) // two slots (3 -> 5) at the unchanged slot duration
	if armed != want {
		t.Fatalf("armed timer with %d, want %d", armed, want)
	}
}

// TestOnFrameDriftHintThenReferenceFrameAppliesSpeedUp replays a follower
// that is running slow (a later-than-expected frame from the established
// master nudges slot_duration_offset negative) and then receives the next
// reference frame: with dynamic correction on, slot_duration must shrink by
// exactly one unit.
func TestOnFrameDriftHintThenReferenceFrameAppliesSpeedUp(t *testing.T) {
	global := []GlobalScheduleEntry{
		{NodeID: 1, SlotID: 0, DataID: 0},
		{NodeID: 2, SlotID: 4, DataID: 1},
		{NodeID: 1, SlotID: 5, DataID: 1},
	}
	n, err := Init(2, global, 300, 0, noopCallbacks(), true)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	n.isActive = true
	n.localScheduleIndex = 1 // already past slot 0, waiting on its own slot 4
	n.lastLowestSeenNodeID = 1
	n.currentLowestSeenNodeID = 1 // node 1 is the established master

	// A frame from node 1's slot 5 arrives before we've reached our slot 4:
	// we're behind, so this is a "slow" hint.
	n.OnFrame(Encode(5, 1), 0)
	if got := n.SlotDurationOffset(); got != -1 {
		t.Fatalf("slot_duration_offset after drift hint = %d, want -1", got)
	}

	// The next reference frame applies the accumulated correction.
	n.OnFrame(Encode(0, ReferenceFrameDataID), 0)
	if got := n.SlotDuration(); got != 299 {
		t.Fatalf("slot_duration after correction = %d, want 299", got)
	}
	if got := n.SlotDurationOffset(); got != 0 {
		t.Fatalf("slot_duration_offset after reference frame = %d, want reset to 0", got)
	}
}

// TestOnFrameReferenceFrameWithoutDynamicCorrectionLeavesSlotDurationAlone
// checks that with dynamic correction disabled, a drift hint followed by a
// reference frame never touches the pacing itself.
func TestOnFrameReferenceFrameWithoutDynamicCorrectionLeavesSlotDurationAlone(t *testing.T) {
	global := []GlobalScheduleEntry{
		{NodeID: 1, SlotID: 0, DataID: 0},
		{NodeID: 2, SlotID: 4, DataID: 1},
		{NodeID: 1, SlotID: 5, DataID: 1},
	}
	n, err := Init(2, global, 300, 0, noopCallbacks(), false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	n.isActive = true
	n.localScheduleIndex = 1
	n.lastLowestSeenNodeID = 1
	n.currentLowestSeenNodeID = 1

	n.OnFrame(Encode(5, 1), 0)
	n.OnFrame(Encode(0, ReferenceFrameDataID), 0)

	if got := n.SlotDuration(); got != 300 {
		t.Fatalf("slot_duration = %d, want unchanged 300 (dynamic correction disabled)", got)
	}
}

// TestOnFrameDataFrameWritesValue checks the plain data-reception path: a
// non-reference frame is handed straight to the application store and never
// touches the schedule cursor.
func TestOnFrameDataFrameWritesValue(t *testing.T) {
	global := []GlobalScheduleEntry{
		{NodeID: 1, SlotID: 0, DataID: 0},
		{NodeID: 2, SlotID: 1, DataID: 9},
	}
	var gotDataID uint16
	var gotValue uint64
	cb := noopCallbacks()
	cb.WriteValue = func(dataID uint16, data uint64) {
		gotDataID, gotValue = dataID, data
	}

	n, err := Init(1, global, 300, 0, cb, false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	n.isActive = true
	beforeIndex := n.LocalScheduleIndex()

	n.OnFrame(Encode(1, 9), 42)

	if gotDataID != 9 || gotValue != 42 {
		t.Fatalf("WriteValue(%d, %d), want (9, 42)", gotDataID, gotValue)
	}
	if n.LocalScheduleIndex() != beforeIndex {
		t.Fatalf("index moved on a data frame: %d -> %d", beforeIndex, n.LocalScheduleIndex())
	}
}

// TestOnFramePassiveActivation checks a node that has been initialised but
// not started joins the cycle the moment it overhears a reference frame.
func TestOnFramePassiveActivation(t *testing.T) {
	global := []GlobalScheduleEntry{
		{NodeID: 1, SlotID: 0, DataID: 0},
		{NodeID: 2, SlotID: 1, DataID: 1},
	}
	n, err := Init(2, global, 300, 0, noopCallbacks(), false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if n.IsActive() {
		t.Fatal("freshly initialised node should not be active before Start or passive activation")
	}

	n.OnFrame(Encode(0, ReferenceFrameDataID), 0)

	if !n.IsActive() {
		t.Fatal("receiving a reference frame should passively activate the node")
	}
}

func TestSignAndAddSigned(t *testing.T) {
	if sign(5) != 1 || sign(-5) != -1 || sign(0) != 0 {
		t.Fatal("sign: unexpected result")
	}
	if got := addSigned(300, -1); got != 299 {
		t.Fatalf("addSigned(300, -1) = %d, want 299", got)
	}
	if got := addSigned(0, -1); got != 0 {
		t.Fatalf("addSigned(0, -1) = %d, want 0 (floor at zero)", got)
	}
	if got := addSigned(300, 1); got != 301 {
		t.Fatalf("addSigned(300, 1) = %d, want 301", got)
	}
}
