// Package motiontest provides recording fakes for motion.Axis and motion.Actuator.
package motiontest

import (
	"errors"
	"time"
)

// Axis is a fake axis that moves StepsPerRun steps toward its target on every Run.
type Axis struct {
	Name         string
	Position     int64
	Target       int64
	StepsPerRun  int64
	MaxSpeed     float64
	Acceleration float64

	Moves    []int64 // relative moves, in call order
	MoveTos  []int64
	Stops    int
	Zeroings int
}

// NewAxis returns a fake axis stepping one step per Run.
func NewAxis(name string) *Axis {
	return &Axis{Name: name, StepsPerRun: 1}
}

func (a *Axis) Move(steps int64) {
	a.Moves = append(a.Moves, steps)
	a.Target = a.Position + steps
}

func (a *Axis) MoveTo(position int64) {
	a.MoveTos = append(a.MoveTos, position)
	a.Target = position
}

func (a *Axis) Run(time.Time) bool {
	d := a.Target - a.Position
	switch {
	case d > 0:
		a.Position += min(d, a.StepsPerRun)
	case d < 0:
		a.Position -= min(-d, a.StepsPerRun)
	}
	return a.IsRunning()
}

func (a *Axis) IsRunning() bool        { return a.Target != a.Position }
func (a *Axis) DistanceToGo() int64    { return a.Target - a.Position }
func (a *Axis) CurrentPosition() int64 { return a.Position }

func (a *Axis) SetCurrentPosition(position int64) {
	a.Zeroings++
	a.Position = position
	a.Target = position
}

// Stop halts immediately; the fake has no deceleration ramp.
func (a *Axis) Stop() {
	a.Stops++
	a.Target = a.Position
}

func (a *Axis) SetMaxSpeed(v float64)     { a.MaxSpeed = v }
func (a *Axis) SetAcceleration(v float64) { a.Acceleration = v }

// Actuator records every Set call.
type Actuator struct {
	State   bool
	History []bool
	Fail    bool
}

// ErrActuator is returned by Set when Fail is true.
var ErrActuator = errors.New("actuator write failed")

func (a *Actuator) Set(on bool) error {
	if a.Fail {
		return ErrActuator
	}
	a.History = append(a.History, on)
	a.State = on
	return nil
}

func (a *Actuator) On() bool { return a.State }
