package defconboard

import "time"

// AlertState is the two-valued status of a command.
type AlertState string

const (
	// StateRaised indicates the command was mentioned on the source page.
	StateRaised AlertState = "raised"

	// StateNormal indicates the command was absent from the source page.
	StateNormal AlertState = "normal"
)

// String returns the string representation of the state.
func (s AlertState) String() string {
	return string(s)
}

// FlashDuration is how long a command keeps flashing after a transition.
const FlashDuration = 10 * time.Minute

// CommandState is the per-command record inside a [Snapshot].
type CommandState struct {
	// State is the state observed in the cycle that produced the snapshot.
	State AlertState

	// URL is the command's alert page.
	URL string

	// Changed is true only in the cycle where State differs from the
	// previous cycle's state. It is never true on first sighting.
	Changed bool

	// FlashUntil is the end of the flash window opened by a transition.
	// Zero when no window is open.
	FlashUntil time.Time
}

// Flashing reports whether the flash window is still open at now.
// The window is half-open: it closes exactly at FlashUntil.
func (c CommandState) Flashing(now time.Time) bool {
	return !c.FlashUntil.IsZero() && now.Before(c.FlashUntil)
}

// Snapshot is an immutable view of one successful refresh cycle.
//
// Every configured command appears in every snapshot. Accessors return
// copies, so a Snapshot may be shared across goroutines without locking.
// The zero value means "no data yet"; see [Snapshot.IsZero].
type Snapshot struct {
	updated  time.Time
	level    int
	hasLevel bool
	order    []CommandID
	commands map[CommandID]CommandState
}

func newSnapshot(updated time.Time, level int, hasLevel bool, order []CommandID, commands map[CommandID]CommandState) Snapshot {
	return Snapshot{
		updated:  updated,
		level:    level,
		hasLevel: hasLevel,
		order:    order,
		commands: commands,
	}
}

// Updated returns when the cycle that produced this snapshot ran.
func (s Snapshot) Updated() time.Time {
	return s.updated
}

// Level returns the national DEFCON level. ok is false when the page carried
// no recognisable level.
func (s Snapshot) Level() (level int, ok bool) {
	return s.level, s.hasLevel
}

// Command returns the state of a single command.
func (s Snapshot) Command(id CommandID) (CommandState, bool) {
	cs, ok := s.commands[id]
	return cs, ok
}

// Commands returns a copy of every command's state.
func (s Snapshot) Commands() map[CommandID]CommandState {
	out := make(map[CommandID]CommandState, len(s.commands))
	for id, cs := range s.commands {
		out[id] = cs
	}
	return out
}

// IDs returns the command IDs in configuration order.
func (s Snapshot) IDs() []CommandID {
	return append([]CommandID(nil), s.order...)
}

// Flashing reports whether command id is inside its flash window at now.
// Unknown commands never flash.
func (s Snapshot) Flashing(id CommandID, now time.Time) bool {
	cs, ok := s.commands[id]
	return ok && cs.Flashing(now)
}

// Raised returns the IDs of raised commands in configuration order.
func (s Snapshot) Raised() []CommandID {
	var out []CommandID
	for _, id := range s.order {
		if s.commands[id].State == StateRaised {
			out = append(out, id)
		}
	}
	return out
}

// IsZero reports whether s is the zero Snapshot.
func (s Snapshot) IsZero() bool {
	return s.updated.IsZero() && s.commands == nil
}
