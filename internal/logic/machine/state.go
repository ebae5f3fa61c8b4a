package machine

import "fmt"

// State is the top-level mode of the paint head.
type State int

const (
	Idle State = iota
	HomingX
	HomingY
	HomedWaiting
	ExecutingPattern
	Error
	CycleComplete
)

var stateNames = [...]string{
	Idle:             "idle",
	HomingX:          "homing_x",
	HomingY:          "homing_y",
	HomedWaiting:     "homed_waiting",
	ExecutingPattern: "executing_pattern",
	Error:            "error",
	CycleComplete:    "cycle_complete",
}

// States lists every state in declaration order.
var States = []State{Idle, HomingX, HomingY, HomedWaiting, ExecutingPattern, Error, CycleComplete}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
