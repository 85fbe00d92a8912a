package gttcan

// Init constructs a Node from a global schedule and configuration, projects
// the local schedule, zeroes drift state, and stores the callback bundle.
// It rejects node id 0, a nil callback, a global schedule longer than
// MaxGlobalScheduleLength, and a projected local schedule that would exceed
// MaxLocalScheduleLength or come out empty. None of these are recoverable;
// the caller must fix the configuration and call Init again.
//
// dynamicSlotDurationCorrection toggles whether accumulated drift hints are
// ever applied to slotDuration at a reference frame; when false the node
// still tracks drift hints but never corrects its pacing.
func Init(
	nodeID uint8,
	global []GlobalScheduleEntry,
	slotDuration uint32,
	interruptTimingOffset uint32,
	cb Callbacks,
	dynamicSlotDurationCorrection bool,
) (*Node, error) {
	if nodeID == 0 {
		return nil, errNodeIDZero
	}
	if cb.TransmitFrame == nil || cb.SetTimerInterrupt == nil || cb.ReadValue == nil || cb.WriteValue == nil {
		return nil, errNilCallbacks
	}
	if len(global) > MaxGlobalScheduleLength {
		return nil, errScheduleTooLong
	}

	local := Project(global, nodeID)
	if len(local) == 0 {
		return nil, errEmptyLocal
	}
	if len(local) > MaxLocalScheduleLength {
		return nil, errLocalScheduleOver
	}

	n := &Node{
		nodeID:                        nodeID,
		globalScheduleLength:          uint16(len(global)),
		slotDuration:                  slotDuration,
		interruptTimingOffset:         interruptTimingOffset,
		dynamicSlotDurationCorrection: dynamicSlotDurationCorrection,
		isInitialised:                 true,
		local:                         local,
		global:                        global,
		cb:                            cb,
	}
	return n, nil
}

// Start enters operation: marks the node active, resets the schedule cursor
// to the beginning, seeds last-seen-lowest with self, and arms a first timer
// staggered by node id so two simultaneously-booting nodes cannot collide on
// their first transmission.
func (n *Node) Start() {
	n.isActive = true
	n.localScheduleIndex = 0
	n.lastLowestSeenNodeID = n.nodeID

	startupWait := (uint32(n.globalScheduleLength) + uint32(n.nodeID)*DefaultStartupPauseSlots) * n.slotDuration
	n.cb.SetTimerInterrupt(startupWait)
}
