package gttcan

import "testing"

func noopCallbacks() Callbacks {
	return Callbacks{
		TransmitFrame:     func(uint32, uint64) {},
		SetTimerInterrupt: func(uint32) {},
		ReadValue:         func(uint16) uint64 { return 0 },
		WriteValue:        func(uint16, uint64) {},
	}
}

func TestInitRejectsNodeIDZero(t *testing.T) {
	global := []GlobalScheduleEntry{{NodeID: 1, SlotID: 0, DataID: 0}}
	_, err := Init(0, global, 300, 0, noopCallbacks(), false)
	if err == nil {
		t.Fatal("Init with node id 0 should fail")
	}
}

func TestInitRejectsNilCallback(t *testing.T) {
	global := []GlobalScheduleEntry{{NodeID: 1, SlotID: 0, DataID: 0}}
	cb := noopCallbacks()
	cb.ReadValue = nil
	_, err := Init(1, global, 300, 0, cb, false)
	if err == nil {
		t.Fatal("Init with a nil callback should fail")
	}
}

func TestInitRejectsEmptyProjection(t *testing.T) {
	// node 2 owns nothing and there is no reference frame entry at all.
	global := []GlobalScheduleEntry{{NodeID: 1, SlotID: 0, DataID: 5}}
	_, err := Init(2, global, 300, 0, noopCallbacks(), false)
	if err == nil {
		t.Fatal("Init with an empty projected local schedule should fail")
	}
}

func TestInitRejectsOversizedGlobalSchedule(t *testing.T) {
	global := make([]GlobalScheduleEntry, MaxGlobalScheduleLength+1)
	for i := range global {
		global[i] = GlobalScheduleEntry{NodeID: 1, SlotID: uint16(i), DataID: 0}
	}
	_, err := Init(1, global, 300, 0, noopCallbacks(), false)
	if err == nil {
		t.Fatal("Init with an over-length global schedule should fail")
	}
}

func TestStartArmsStaggeredTimer(t *testing.T) {
	global := []GlobalScheduleEntry{
		{NodeID: 1, SlotID: 0, DataID: 0},
		{NodeID: 1, SlotID: 1, DataID: 1},
	}
	var armed uint32
	cb := noopCallbacks()
	cb.SetTimerInterrupt = func(delay uint32) { armed = delay }

	n, err := Init(3, global, 300, 0, cb, false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	n.Start()

	want := (uint32(len(global)) + 3*DefaultStartupPauseSlots) * 300
	if armed != want {
		t.Fatalf("Start armed timer with %d, want %d", armed, want)
	}
	if !n.IsActive() {
		t.Fatal("Start should mark the node active")
	}
	if n.LocalScheduleIndex() != 0 {
		t.Fatalf("Start should reset the schedule cursor, got index %d", n.LocalScheduleIndex())
	}
}
