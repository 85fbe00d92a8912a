package gttcan

import "math"

// OnFrame is the reception/sync engine: it must be called from the CAN-RX
// ISR (or equivalent) whenever a frame arrives on the bus, including frames
// this node itself transmitted if the hardware echoes its own traffic (the
// protocol is defined in terms of received frames regardless of origin).
func (n *Node) OnFrame(frameID uint32, data uint64) {
	if !n.isInitialised {
		return
	}

	slotID, dataID := Decode(frameID)
	rxNodeID := findSenderNodeID(n.global, slotID)

	isFromMaster := rxNodeID == n.lastLowestSeenNodeID &&
		rxNodeID == n.currentLowestSeenNodeID &&
		n.lastLowestSeenNodeID != 0

	roundsSaturated := n.roundsWithoutShuffleAgainstMaster >= NumRoundsBeforeAllNodeAdjust
	hintsGate := (isFromMaster || roundsSaturated) && n.localScheduleIndex > 0 && !n.reachedEndOfScheduleEarly
	if hintsGate {
		hinted := false
		if slotID > n.local[n.localScheduleIndex].SlotID {
			// A frame we expected to precede us arrived after our next slot: we're slow.
			n.slotDurationOffset--
			hinted = true
		}
		if slotID != 0 && slotID < n.local[n.localScheduleIndex-1].SlotID {
			// A frame we already passed arrived: we're fast.
			n.slotDurationOffset++
			hinted = true
		}
		if hinted && isFromMaster {
			n.roundsWithoutShuffleAgainstMaster = 0
		}
	}

	if !n.isActive && slotID == 0 {
		n.isActive = true
	}

	if dataID == ReferenceFrameDataID {
		if slotID == 0 && !n.isTimeMaster {
			if n.dynamicSlotDurationCorrection {
				n.slotDuration = addSigned(n.slotDuration, sign(n.slotDurationOffset))
			}
			if n.slotDurationOffset == 0 && n.roundsWithoutShuffleAgainstMaster < math.MaxUint8 {
				n.roundsWithoutShuffleAgainstMaster++
			}
			n.slotDurationOffset = 0
			n.reachedEndOfScheduleEarly = false
		}

		speedUpGate := (isFromMaster || roundsSaturated) && !n.reachedEndOfScheduleEarly
		if idx := findNextLocalIndex(n.local, slotID); idx >= 0 {
			behind := n.localScheduleIndex < idx || (idx == 0 && n.localScheduleIndex != 0)
			if behind && speedUpGate {
				n.slotDurationOffset--
			}
			n.localScheduleIndex = idx
		} else {
			if speedUpGate {
				n.slotDurationOffset--
			}
			n.localScheduleIndex = 0
		}

		n.cb.SetTimerInterrupt(n.TimeToNext(slotID))
	} else {
		n.cb.WriteValue(dataID, data)
	}

	if rxNodeID < n.currentLowestSeenNodeID || n.currentLowestSeenNodeID == 0 {
		n.currentLowestSeenNodeID = rxNodeID
	}
}

// sign returns -1, 0, or +1 matching the sign of v.
func sign(v int32) int32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// addSigned adds a small signed correction to an unsigned slot duration,
// never underflowing past zero.
func addSigned(v uint32, delta int32) uint32 {
	if delta < 0 && uint32(-delta) > v {
		return 0
	}
	return uint32(int64(v) + int64(delta))
}
