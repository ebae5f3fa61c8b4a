package homing

import (
	"github.com/cjeanneret/SprayGo/internal/debug"
	"github.com/cjeanneret/SprayGo/internal/logic/motion"
)

// DefaultTravel is the homing target distance in steps.
// It only has to be further than any real axis travel.
const DefaultTravel = 1_000_000

// Sensor is a debounced home switch.
type Sensor interface {
	Triggered() bool
}

// Target pairs an axis with the switch that marks its zero.
type Target struct {
	Name   string
	Axis   motion.Axis
	Sensor Sensor
}

// Params describes how an axis seeks its switch.
type Params struct {
	Profile   motion.Profile
	Direction int   // -1 or +1
	Travel    int64 // steps; 0 = DefaultTravel
}

// Sequencer drives one axis at a time toward its home switch.
// It never computes a distance: the switch edge alone ends the move.
type Sequencer struct {
	params Params
}

// NewSequencer creates a sequencer.
func NewSequencer(p Params) *Sequencer {
	if p.Direction >= 0 {
		p.Direction = 1
	} else {
		p.Direction = -1
	}
	if p.Travel <= 0 {
		p.Travel = DefaultTravel
	}
	return &Sequencer{params: p}
}

// Step runs one homing check for t and reports whether t is homed.
// On the tick the switch reads triggered the current position becomes zero,
// which also cancels the outstanding seek move.
func (s *Sequencer) Step(t Target) bool {
	if t.Sensor.Triggered() {
		t.Axis.SetCurrentPosition(0)
		debug.Info("Homing: %s switch triggered, position zeroed", t.Name)
		return true
	}
	if !t.Axis.IsRunning() {
		s.params.Profile.Apply(t.Axis)
		t.Axis.MoveTo(int64(s.params.Direction) * s.params.Travel)
		debug.Live("Homing: seeking %s switch", t.Name)
	}
	return false
}
