package gpio

import (
	"fmt"

	"github.com/cjeanneret/SprayGo/internal/debug"
)

// Level represents the logical state of a GPIO pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// PinMode indicates whether a GPIO is input or output.
type PinMode int

const (
	Input PinMode = iota
	Output
	InputPullUp // input with internal pull-up, used for active-low switches
)

// Driver defines the abstract interface for controlling GPIOs.
// This allows plugging in a real Raspberry Pi implementation
// or a mock for development on PC.
type Driver interface {
	SetupPin(pin int, mode PinMode) error
	WritePin(pin int, level Level) error
	ReadPin(pin int) (Level, error)
	Close() error
}

// Driver names accepted by NewDriver.
const (
	DriverMock     = "mock"
	DriverRPi      = "rpio"
	DriverGPIOCdev = "gpiocdev"
)

// MockDriver is a test implementation that logs actions and remembers levels.
// Unwritten pins read Low, so active-low inputs look asserted in dev mode.
type MockDriver struct {
	levels map[int]Level
}

// NewDriver creates a GPIO driver by name.
// chip is only used by the gpiocdev driver (e.g. "gpiochip0").
func NewDriver(name, chip string) (Driver, error) {
	switch name {
	case DriverMock, "":
		debug.Info("Using MOCK GPIO driver (development mode)")
		return &MockDriver{}, nil
	case DriverRPi:
		return NewRPiRealDriver()
	case DriverGPIOCdev:
		return NewCdevDriver(chip)
	default:
		return nil, fmt.Errorf("unknown gpio driver %q", name)
	}
}

func (m *MockDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)
	return nil
}

func (m *MockDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)
	m.SetLevel(pin, level)
	return nil
}

func (m *MockDriver) ReadPin(pin int) (Level, error) {
	debug.GPIO("ReadPin", pin, nil)
	return m.levels[pin], nil
}

// SetLevel forces the level seen by ReadPin, simulating an external input.
func (m *MockDriver) SetLevel(pin int, level Level) {
	if m.levels == nil {
		m.levels = make(map[int]Level)
	}
	m.levels[pin] = level
}

func (m *MockDriver) Close() error {
	debug.Trace("GPIO Close (mock)")
	return nil
}
