package motion

import "fmt"

// AxisID names one driven degree of freedom.
type AxisID int

const (
	AxisX AxisID = iota
	AxisY
	AxisRotation
)

func (a AxisID) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisRotation:
		return "rotation"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Command is one step of a painting pattern.
// The concrete types are MoveAxis, Rotate and SetSpray; values are never mutated.
type Command interface {
	Kind() string
	String() string
	isCommand()
}

// MoveAxis moves a linear axis by a signed distance in calibration units.
// With Spray set the actuator is switched on before the move is issued
// and stays on until a later SetSpray{On: false}.
type MoveAxis struct {
	Axis     AxisID
	Distance float64
	Spray    bool
}

// Rotate turns the tray by a signed angle in degrees.
type Rotate struct {
	Degrees float64
}

// SetSpray switches the spray actuator without moving anything.
type SetSpray struct {
	On bool
}

func (MoveAxis) isCommand() {}
func (Rotate) isCommand()   {}
func (SetSpray) isCommand() {}

func (c MoveAxis) Kind() string { return "move_" + c.Axis.String() }
func (Rotate) Kind() string     { return "rotate" }

func (c SetSpray) Kind() string {
	if c.On {
		return "spray_on"
	}
	return "spray_off"
}

func (c MoveAxis) String() string {
	if c.Spray {
		return fmt.Sprintf("%s(%g, spray)", c.Kind(), c.Distance)
	}
	return fmt.Sprintf("%s(%g)", c.Kind(), c.Distance)
}

func (c Rotate) String() string   { return fmt.Sprintf("rotate(%g)", c.Degrees) }
func (c SetSpray) String() string { return c.Kind() }
