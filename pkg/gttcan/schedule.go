package gttcan

// Project filters a global schedule down to the entries a given node must
// act on: every entry it owns, plus every reference-frame entry (so a
// follower can always resynchronize regardless of who currently holds
// mastership). Order is preserved from the global schedule.
//
// Project is idempotent and order-preserving: re-projecting an already
// projected schedule for the same node id is a no-op, since every surviving
// entry already satisfies the filter predicate.
func Project(global []GlobalScheduleEntry, nodeID uint8) []LocalScheduleEntry {
	local := make([]LocalScheduleEntry, 0, len(global))
	for _, e := range global {
		if e.NodeID == nodeID || e.DataID == ReferenceFrameDataID {
			local = append(local, LocalScheduleEntry{SlotID: e.SlotID, DataID: e.DataID})
		}
	}
	return local
}

// findSenderNodeID resolves the node that owns slotID in the global
// schedule: a linear scan returning the first match. A second entry sharing
// the same slot_id is a configuration smell the protocol itself does not
// reject; this scan deliberately keeps the simple first-match behavior
// rather than guessing at stricter semantics nothing else depends on.
func findSenderNodeID(global []GlobalScheduleEntry, slotID uint16) uint8 {
	for _, e := range global {
		if e.SlotID == slotID {
			return e.NodeID
		}
	}
	return 0
}

// findNextLocalIndex returns the smallest index i such that local[i].SlotID
// is strictly greater than slotID, or -1 if no such index exists (i.e. the
// frame belongs at or past the end of this cycle, and the schedule should
// wrap back to the beginning).
func findNextLocalIndex(local []LocalScheduleEntry, slotID uint16) int {
	for i, e := range local {
		if e.SlotID > slotID {
			return i
		}
	}
	return -1
}
