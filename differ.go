package defconboard

import "time"

// StateTable remembers the last observed state of each command.
//
// A Board owns exactly one table for its lifetime. StateTable is not safe for
// concurrent use; the Board serializes access behind its refresh lock.
type StateTable map[CommandID]AlertState

// Diff records next as the state of id and reports whether it is a
// transition.
//
// changed is true iff a previous entry exists and differs from next; a first
// sighting is never a change. flashUntil is now+[FlashDuration] when changed
// and the zero time otherwise. The entry is overwritten unconditionally.
func (t StateTable) Diff(id CommandID, next AlertState, now time.Time) (changed bool, flashUntil time.Time) {
	prev, seen := t[id]
	t[id] = next
	if !seen || prev == next {
		return false, time.Time{}
	}
	return true, now.Add(FlashDuration)
}

// Clone returns an independent copy of the table.
func (t StateTable) Clone() StateTable {
	out := make(StateTable, len(t))
	for id, s := range t {
		out[id] = s
	}
	return out
}
