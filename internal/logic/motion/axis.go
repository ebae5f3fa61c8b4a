package motion

import "time"

// Axis is a non-blocking motor axis. Setters only record targets;
// the motor moves when Run is called from the control loop.
type Axis interface {
	// Move sets a target relative to the current position.
	Move(steps int64)
	// MoveTo sets an absolute target position.
	MoveTo(position int64)
	// Run emits at most one step if one is due at now.
	// It returns true while motion is outstanding.
	Run(now time.Time) bool
	IsRunning() bool
	DistanceToGo() int64
	CurrentPosition() int64
	// SetCurrentPosition redefines the current position and cancels motion.
	SetCurrentPosition(position int64)
	// Stop decelerates to rest as quickly as the acceleration allows.
	Stop()
	SetMaxSpeed(stepsPerSecond float64)
	SetAcceleration(stepsPerSecond2 float64)
}

// Actuator is the binary spray output.
type Actuator interface {
	Set(on bool) error
	On() bool
}

// Profile is a speed/acceleration pair applied to an axis before a move.
type Profile struct {
	MaxSpeed     float64 // steps/s
	Acceleration float64 // steps/s²
}

// Apply pushes the profile to an axis.
func (p Profile) Apply(a Axis) {
	a.SetMaxSpeed(p.MaxSpeed)
	a.SetAcceleration(p.Acceleration)
}

// Axes groups the three axes of the gantry.
type Axes struct {
	X        Axis
	Y        Axis
	Rotation Axis
}

// Get returns the axis for id, or nil.
func (a Axes) Get(id AxisID) Axis {
	switch id {
	case AxisX:
		return a.X
	case AxisY:
		return a.Y
	case AxisRotation:
		return a.Rotation
	default:
		return nil
	}
}

// All returns the axes in X, Y, rotation order.
func (a Axes) All() []Axis {
	return []Axis{a.X, a.Y, a.Rotation}
}

// RunAll advances every step generator once.
func (a Axes) RunAll(now time.Time) {
	a.X.Run(now)
	a.Y.Run(now)
	a.Rotation.Run(now)
}

// Idle reports whether all three axes have zero outstanding motion.
func (a Axes) Idle() bool {
	for _, ax := range a.All() {
		if ax.IsRunning() || ax.DistanceToGo() != 0 {
			return false
		}
	}
	return true
}

// StopAll issues a decelerating stop to every axis.
func (a Axes) StopAll() {
	a.X.Stop()
	a.Y.Stop()
	a.Rotation.Stop()
}
