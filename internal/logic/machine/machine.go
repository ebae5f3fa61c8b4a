// Package machine is the top-level orchestrator of the paint head: it owns
// the state, the side selection and the per-tick routing of sensor, operator
// and motion events.
package machine

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cjeanneret/SprayGo/internal/debug"
	"github.com/cjeanneret/SprayGo/internal/logic/homing"
	"github.com/cjeanneret/SprayGo/internal/logic/motion"
	"github.com/cjeanneret/SprayGo/internal/logic/pattern"
	"github.com/cjeanneret/SprayGo/internal/operator"
)

// Sensor is a home switch polled once per tick.
type Sensor interface {
	homing.Sensor
	Update(now time.Time) error
}

// Config wires a Machine to its hardware.
type Config struct {
	Axes     motion.Axes
	Spray    motion.Actuator
	XSensor  Sensor
	YSensor  Sensor
	Executor pattern.Executor
	Patterns pattern.Set
	Homing   homing.Params
}

// Machine runs one control tick at a time. It is not safe for concurrent use;
// other goroutines read its state through Snapshot.
type Machine struct {
	axes     motion.Axes
	spray    motion.Actuator
	xSensor  Sensor
	ySensor  Sensor
	homer    *homing.Sequencer
	seq      *pattern.Sequencer
	log      zerolog.Logger

	state         State
	faultReported bool // a persisting fault has been logged in Error
	selection     pattern.Selection
	cycleID       string
	lastTick      time.Time

	observers []Observer
	snapshot  atomic.Pointer[Snapshot]
}

// New creates a machine in Idle with every side selected.
func New(cfg Config) (*Machine, error) {
	switch {
	case cfg.Axes.X == nil || cfg.Axes.Y == nil || cfg.Axes.Rotation == nil:
		return nil, errors.New("machine: all three axes are required")
	case cfg.Spray == nil:
		return nil, errors.New("machine: spray actuator is required")
	case cfg.XSensor == nil || cfg.YSensor == nil:
		return nil, errors.New("machine: both home sensors are required")
	case cfg.Executor == nil:
		return nil, errors.New("machine: executor is required")
	}

	m := &Machine{
		axes:      cfg.Axes,
		spray:     cfg.Spray,
		xSensor:   cfg.XSensor,
		ySensor:   cfg.YSensor,
		homer:     homing.NewSequencer(cfg.Homing),
		seq:       pattern.NewSequencer(cfg.Patterns, cfg.Executor),
		log:       debug.WithComponent("machine"),
		state:     Idle,
		selection: pattern.AllSides(),
	}
	m.publish()
	return m, nil
}

// AddObserver registers o. Call before the control loop starts.
func (m *Machine) AddObserver(o Observer) {
	m.observers = append(m.observers, o)
}

// State returns the current state. Control goroutine only.
func (m *Machine) State() State { return m.state }

// Selection returns the current side selection. Control goroutine only.
func (m *Machine) Selection() pattern.Selection { return m.selection }

// CycleID identifies the current or last pattern cycle.
func (m *Machine) CycleID() string { return m.cycleID }

// Tick runs one control iteration: poll sensors, advance every axis once,
// consume cmd (Kind None for no command), then perform one state action.
func (m *Machine) Tick(now time.Time, cmd operator.Command) {
	m.lastTick = now

	if err := m.pollSensors(now); err != nil {
		// Only an emergency is honoured while the switches cannot be read.
		m.fault(err)
		m.axes.RunAll(now)
		if cmd.Kind == operator.Emergency {
			m.handle(cmd)
		}
		m.publish()
		return
	}
	m.faultReported = false
	m.axes.RunAll(now)
	m.handle(cmd)
	m.act()
	m.publish()
}

// Settle advances the axes without any state action and reports whether
// they are all idle. It is used to let a decelerating stop finish on shutdown.
func (m *Machine) Settle(now time.Time) bool {
	m.lastTick = now
	m.axes.RunAll(now)
	m.publish()
	return m.axes.Idle()
}

func (m *Machine) pollSensors(now time.Time) error {
	if err := m.xSensor.Update(now); err != nil {
		return fmt.Errorf("poll x home sensor: %w", err)
	}
	if err := m.ySensor.Update(now); err != nil {
		return fmt.Errorf("poll y home sensor: %w", err)
	}
	return nil
}

func (m *Machine) handle(cmd operator.Command) {
	if cmd.Kind == operator.None {
		return
	}
	for _, o := range m.observers {
		o.OperatorCommand(cmd)
	}

	switch cmd.Kind {
	case operator.Emergency:
		m.emergency()
	case operator.Home:
		if m.guard(Idle, cmd) {
			debug.Info("Homing X axis")
			m.setState(HomingX)
		}
	case operator.Start:
		if m.guard(HomedWaiting, cmd) {
			m.seq.Reset()
			m.cycleID = uuid.NewString()
			m.log.Info().Str("cycle", m.cycleID).Str("sides", m.selection.String()).Msg("Starting pattern cycle")
			m.setState(ExecutingPattern)
		}
	case operator.Reset:
		if m.guard(Error, cmd) {
			debug.Info("Reset: re-home before starting a new cycle")
			m.setState(Idle)
		}
	case operator.Select:
		m.selection = cmd.Sides
		debug.Info("Selected sides to paint: %s", m.selection.String())
		for _, o := range m.observers {
			o.SelectionChanged(m.selection)
		}
	case operator.Speed:
		debug.Info("Speed for side %d (%d%%) is not supported, ignored", cmd.Side, cmd.Value)
	}
}

// guard reports whether the machine is in want; otherwise the command is
// dropped as a guard violation.
func (m *Machine) guard(want State, cmd operator.Command) bool {
	if m.state == want {
		return true
	}
	debug.Trace("Ignoring %s in state %s", cmd.Kind, m.state)
	for _, o := range m.observers {
		o.GuardViolation(m.state, cmd)
	}
	return false
}

func (m *Machine) act() {
	switch m.state {
	case HomingX:
		if m.homer.Step(homing.Target{Name: "x", Axis: m.axes.X, Sensor: m.xSensor}) {
			debug.Info("Homing Y axis")
			m.setState(HomingY)
		}
	case HomingY:
		if m.homer.Step(homing.Target{Name: "y", Axis: m.axes.Y, Sensor: m.ySensor}) {
			debug.Info("Homing complete. Enter 'S' to start painting.")
			m.setState(HomedWaiting)
		}
	case ExecutingPattern:
		if !m.axes.Idle() {
			return
		}
		step, err := m.seq.Advance(m.selection)
		if err != nil {
			m.fault(err)
			return
		}
		if step.Done {
			m.setState(CycleComplete)
			for _, o := range m.observers {
				o.CycleCompleted(m.cycleID)
			}
			return
		}
		for _, o := range m.observers {
			o.CommandExecuted(step.Cursor, step.Command)
		}
	case CycleComplete:
		if m.axes.Idle() {
			m.log.Info().Str("cycle", m.cycleID).Msg("Cycle complete")
			m.setState(Idle)
		}
	}
}

// emergency stops everything and enters Error, whatever the current state.
func (m *Machine) emergency() {
	from := m.state
	m.failSafe()
	debug.Info("EMERGENCY STOP")
	m.setState(Error)
	for _, o := range m.observers {
		o.EmergencyStop(from)
	}
}

// fault handles a hardware failure the same way as an emergency stop.
// A fault that persists once the machine is in Error is logged once and
// otherwise ignored.
func (m *Machine) fault(err error) {
	if m.state == Error {
		if !m.faultReported {
			debug.Info("Fault persists in error state: %v", err)
			m.faultReported = true
		}
		return
	}
	m.faultReported = true
	debug.Error(err)
	m.failSafe()
	m.setState(Error)
	for _, o := range m.observers {
		o.Fault(err)
	}
}

func (m *Machine) failSafe() {
	if err := m.spray.Set(false); err != nil {
		debug.Error(fmt.Errorf("release spray: %w", err))
	}
	m.axes.StopAll()
}

func (m *Machine) setState(to State) {
	from := m.state
	if from == to {
		return
	}
	m.state = to
	debug.Live("State: %s -> %s", from, to)
	for _, o := range m.observers {
		o.StateChanged(from, to)
	}
}
