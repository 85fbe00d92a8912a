package gttcan

// OnTick is the transmission engine: it must be called from the timer ISR
// (or equivalent) whenever the armed timer fires. It arms the next timer
// before emitting a frame, so jitter in the CAN driver cannot delay
// subsequent slots.
func (n *Node) OnTick() {
	if !n.isActive {
		return
	}

	entry := n.local[n.localScheduleIndex]
	slotID, dataID := entry.SlotID, entry.DataID

	if n.localScheduleIndex == 0 {
		n.isTimeMaster = n.lastLowestSeenNodeID == n.currentLowestSeenNodeID &&
			n.currentLowestSeenNodeID == n.nodeID &&
			n.currentLowestSeenNodeID != 0
		n.lastLowestSeenNodeID = n.currentLowestSeenNodeID
		n.currentLowestSeenNodeID = 0
	}

	n.localScheduleIndex = (n.localScheduleIndex + 1) % len(n.local)
	if n.localScheduleIndex == 0 && !n.isTimeMaster {
		n.reachedEndOfScheduleEarly = true
	}

	dt := n.TimeToNext(slotID)
	n.cb.SetTimerInterrupt(dt)

	frameID := Encode(slotID, dataID)
	payload := n.cb.ReadValue(dataID)
	if dataID != ReferenceFrameDataID || n.isTimeMaster {
		n.cb.TransmitFrame(frameID, payload)
	}

	if n.nodeID < n.currentLowestSeenNodeID || n.currentLowestSeenNodeID == 0 {
		n.currentLowestSeenNodeID = n.nodeID
	}
}
