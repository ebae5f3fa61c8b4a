package machine

import (
	"time"

	"github.com/cjeanneret/SprayGo/internal/logic/pattern"
)

// Positions holds the axis positions in steps.
type Positions struct {
	X        int64 `json:"x"`
	Y        int64 `json:"y"`
	Rotation int64 `json:"rotation"`
}

// Snapshot is an immutable copy of the machine status, published after
// every tick for readers outside the control goroutine.
type Snapshot struct {
	State     State             `json:"state"`
	Selection pattern.Selection `json:"selection"`
	Sides     string            `json:"sides"`
	Cursor    pattern.Cursor    `json:"cursor"`
	CycleID   string            `json:"cycle_id,omitempty"`
	Positions Positions         `json:"positions"`
	Spray     bool              `json:"spray"`
	Moving    bool              `json:"moving"`
	Time      time.Time         `json:"time"`
}

// Snapshot returns the status published by the latest tick. Safe for concurrent use.
func (m *Machine) Snapshot() Snapshot {
	return *m.snapshot.Load()
}

func (m *Machine) publish() {
	m.snapshot.Store(&Snapshot{
		State:     m.state,
		Selection: m.selection,
		Sides:     m.selection.String(),
		Cursor:    m.seq.Cursor(),
		CycleID:   m.cycleID,
		Positions: Positions{
			X:        m.axes.X.CurrentPosition(),
			Y:        m.axes.Y.CurrentPosition(),
			Rotation: m.axes.Rotation.CurrentPosition(),
		},
		Spray:  m.spray.On(),
		Moving: !m.axes.Idle(),
		Time:   m.lastTick,
	})
}
