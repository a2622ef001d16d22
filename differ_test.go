package defconboard

import (
	"testing"
	"time"
)

func TestStateTable_Diff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		prev        map[CommandID]AlertState
		next        AlertState
		wantChanged bool
	}{
		{"first sight raised", nil, StateRaised, false},
		{"first sight normal", nil, StateNormal, false},
		{"stable normal", map[CommandID]AlertState{Socom: StateNormal}, StateNormal, false},
		{"stable raised", map[CommandID]AlertState{Socom: StateRaised}, StateRaised, false},
		{"normal to raised", map[CommandID]AlertState{Socom: StateNormal}, StateRaised, true},
		{"raised to normal", map[CommandID]AlertState{Socom: StateRaised}, StateNormal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := StateTable{}
			for id, s := range tt.prev {
				table[id] = s
			}

			changed, flashUntil := table.Diff(Socom, tt.next, now)
			if changed != tt.wantChanged {
				t.Errorf("Diff() changed = %v, want %v", changed, tt.wantChanged)
			}
			if tt.wantChanged && !flashUntil.Equal(now.Add(10*time.Minute)) {
				t.Errorf("Diff() flashUntil = %v, want %v", flashUntil, now.Add(10*time.Minute))
			}
			if !tt.wantChanged && !flashUntil.IsZero() {
				t.Errorf("Diff() flashUntil = %v, want zero", flashUntil)
			}
			if table[Socom] != tt.next {
				t.Errorf("table[SOCOM] = %v, want %v", table[Socom], tt.next)
			}
		})
	}
}

func TestStateTable_DiffSequence(t *testing.T) {
	table := StateTable{}
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if changed, _ := table.Diff(Fincom, StateNormal, t0); changed {
		t.Error("cycle 1 changed = true")
	}
	if changed, _ := table.Diff(Fincom, StateRaised, t0.Add(5*time.Minute)); !changed {
		t.Error("cycle 2 changed = false, want true")
	}
	if changed, _ := table.Diff(Fincom, StateRaised, t0.Add(10*time.Minute)); changed {
		t.Error("cycle 3 changed = true for stable state")
	}
}

func TestStateTable_DiffIsolatesCommands(t *testing.T) {
	table := StateTable{Socom: StateRaised}
	now := time.Now()

	if changed, _ := table.Diff(Biocom, StateNormal, now); changed {
		t.Error("Diff(BIOCOM) changed = true on first sight")
	}
	if table[Socom] != StateRaised {
		t.Errorf("table[SOCOM] = %v, want untouched", table[Socom])
	}
}

func TestStateTable_Clone(t *testing.T) {
	table := StateTable{Socom: StateRaised}
	cp := table.Clone()
	cp[Socom] = StateNormal
	cp[Fincom] = StateRaised

	if table[Socom] != StateRaised {
		t.Errorf("original table[SOCOM] = %v after clone mutation", table[Socom])
	}
	if _, ok := table[Fincom]; ok {
		t.Error("original table gained FINCOM after clone mutation")
	}
}
