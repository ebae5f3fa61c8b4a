package motion

import (
	"fmt"

	"github.com/cjeanneret/SprayGo/internal/debug"
	"github.com/cjeanneret/SprayGo/internal/logic/geometry"
)

// Executor translates pattern commands into axis targets and spray state.
// It is the intermediate layer between the pattern sequencer and the hardware.
// Execute sets targets and returns immediately; it never waits for motion.
type Executor struct {
	axes     Axes
	spray    Actuator
	steps    *geometry.StepsCalculator
	profiles [3]Profile
}

// NewExecutor creates an executor. profiles are the run speeds for
// X, Y and rotation, re-applied before every move since homing uses its own.
func NewExecutor(axes Axes, spray Actuator, steps *geometry.StepsCalculator, x, y, rotation Profile) *Executor {
	return &Executor{
		axes:     axes,
		spray:    spray,
		steps:    steps,
		profiles: [3]Profile{x, y, rotation},
	}
}

// Execute issues one command.
func (e *Executor) Execute(cmd Command) error {
	switch c := cmd.(type) {
	case MoveAxis:
		return e.moveAxis(c)
	case Rotate:
		n := e.steps.RotationSteps(c.Degrees)
		e.profiles[AxisRotation].Apply(e.axes.Rotation)
		debug.Move(AxisRotation.String(), n)
		e.axes.Rotation.Move(n)
		return nil
	case SetSpray:
		if err := e.spray.Set(c.On); err != nil {
			return fmt.Errorf("set spray %v: %w", c.On, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
}

func (e *Executor) moveAxis(c MoveAxis) error {
	var n int64
	switch c.Axis {
	case AxisX:
		n = e.steps.XSteps(c.Distance)
	case AxisY:
		n = e.steps.YSteps(c.Distance)
	default:
		return fmt.Errorf("move on non-linear axis %s", c.Axis)
	}

	if c.Spray {
		if err := e.spray.Set(true); err != nil {
			return fmt.Errorf("assert spray before %s: %w", c, err)
		}
	}

	ax := e.axes.Get(c.Axis)
	e.profiles[c.Axis].Apply(ax)
	debug.Move(c.Axis.String(), n)
	ax.Move(n)
	return nil
}
