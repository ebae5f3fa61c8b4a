package machine

import (
	"github.com/cjeanneret/SprayGo/internal/logic/motion"
	"github.com/cjeanneret/SprayGo/internal/logic/pattern"
	"github.com/cjeanneret/SprayGo/internal/operator"
)

// Observer is notified from inside the control tick.
// Implementations must return quickly and must not block.
type Observer interface {
	StateChanged(from, to State)
	SelectionChanged(sel pattern.Selection)
	OperatorCommand(cmd operator.Command)
	GuardViolation(state State, cmd operator.Command)
	CommandExecuted(cursor pattern.Cursor, cmd motion.Command)
	EmergencyStop(from State)
	Fault(err error)
	CycleCompleted(cycleID string)
}

// NopObserver implements Observer with no-ops. Embed it to override a subset.
type NopObserver struct{}

func (NopObserver) StateChanged(State, State)                      {}
func (NopObserver) SelectionChanged(pattern.Selection)             {}
func (NopObserver) OperatorCommand(operator.Command)               {}
func (NopObserver) GuardViolation(State, operator.Command)         {}
func (NopObserver) CommandExecuted(pattern.Cursor, motion.Command) {}
func (NopObserver) EmergencyStop(State)                            {}
func (NopObserver) Fault(error)                                    {}
func (NopObserver) CycleCompleted(string)                          {}
