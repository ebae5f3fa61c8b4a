package gpio

import (
	"fmt"

	"github.com/cjeanneret/SprayGo/internal/debug"
	"github.com/warthog618/go-gpiocdev"
)

// CdevDriver drives lines through the GPIO character device.
// Needed on the Raspberry Pi 5, where /dev/gpiomem no longer maps the RP1 block.
type CdevDriver struct {
	chip  string
	lines map[int]*gpiocdev.Line
}

// NewCdevDriver creates a driver bound to a gpiochip (default "gpiochip0").
func NewCdevDriver(chip string) (*CdevDriver, error) {
	if chip == "" {
		chip = "gpiochip0"
	}
	debug.Info("Initializing GPIO character device driver on %s", chip)
	return &CdevDriver{
		chip:  chip,
		lines: make(map[int]*gpiocdev.Line),
	}, nil
}

func (c *CdevDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)

	if l, ok := c.lines[pin]; ok {
		_ = l.Close()
		delete(c.lines, pin)
	}

	var opts []gpiocdev.LineReqOption
	switch mode {
	case Input:
		opts = append(opts, gpiocdev.AsInput)
	case InputPullUp:
		opts = append(opts, gpiocdev.AsInput, gpiocdev.WithPullUp)
	case Output:
		opts = append(opts, gpiocdev.AsOutput(1))
	default:
		return fmt.Errorf("unknown pin mode: %d", mode)
	}

	l, err := gpiocdev.RequestLine(c.chip, pin, opts...)
	if err != nil {
		return fmt.Errorf("request line %d on %s: %w", pin, c.chip, err)
	}
	c.lines[pin] = l
	return nil
}

func (c *CdevDriver) WritePin(pin int, level Level) error {
	l, ok := c.lines[pin]
	if !ok {
		if err := c.SetupPin(pin, Output); err != nil {
			return err
		}
		l = c.lines[pin]
	}
	v := 0
	if level == High {
		v = 1
	}
	return l.SetValue(v)
}

func (c *CdevDriver) ReadPin(pin int) (Level, error) {
	l, ok := c.lines[pin]
	if !ok {
		if err := c.SetupPin(pin, Input); err != nil {
			return Low, err
		}
		l = c.lines[pin]
	}
	v, err := l.Value()
	if err != nil {
		return Low, fmt.Errorf("read line %d: %w", pin, err)
	}
	return Level(v != 0), nil
}

func (c *CdevDriver) Close() error {
	debug.Trace("GPIO Close (gpiocdev)")

	var firstErr error
	for pin, l := range c.lines {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close line %d: %w", pin, err)
		}
	}
	c.lines = make(map[int]*gpiocdev.Line)
	return firstErr
}
