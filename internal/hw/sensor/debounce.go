package sensor

import (
	"fmt"
	"time"

	"github.com/cjeanneret/SprayGo/internal/debug"
	"github.com/cjeanneret/SprayGo/internal/hw/gpio"
)

// DefaultInterval is the debounce window of the homing switches.
const DefaultInterval = 10 * time.Millisecond

// Config describes one digital switch input.
type Config struct {
	Name      string
	Pin       int
	ActiveLow bool          // switch pulls the line LOW when triggered (pull-up wiring)
	Interval  time.Duration // 0 = DefaultInterval
}

// Debounced filters contact bounce on a digital input.
// The reported level only changes once the raw reading has held the new
// value for a full interval. Time is supplied by the caller on every Update.
type Debounced struct {
	gpio gpio.Driver
	cfg  Config

	stable     gpio.Level
	unstable   gpio.Level
	lastChange time.Time
	changed    bool
}

// New configures the pin (with pull-up for active-low wiring) and samples
// its initial level as the stable state.
func New(g gpio.Driver, cfg Config) (*Debounced, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	mode := gpio.Input
	if cfg.ActiveLow {
		mode = gpio.InputPullUp
	}
	if err := g.SetupPin(cfg.Pin, mode); err != nil {
		return nil, fmt.Errorf("setup sensor %s pin %d: %w", cfg.Name, cfg.Pin, err)
	}
	lvl, err := g.ReadPin(cfg.Pin)
	if err != nil {
		return nil, fmt.Errorf("read sensor %s pin %d: %w", cfg.Name, cfg.Pin, err)
	}
	return &Debounced{
		gpio:     g,
		cfg:      cfg,
		stable:   lvl,
		unstable: lvl,
	}, nil
}

// Update samples the pin. It must be called every tick.
func (d *Debounced) Update(now time.Time) error {
	d.changed = false
	raw, err := d.gpio.ReadPin(d.cfg.Pin)
	if err != nil {
		return fmt.Errorf("read sensor %s: %w", d.cfg.Name, err)
	}

	if raw != d.unstable {
		d.unstable = raw
		d.lastChange = now
		return nil
	}
	if raw != d.stable && now.Sub(d.lastChange) >= d.cfg.Interval {
		d.stable = raw
		d.lastChange = now
		d.changed = true
		debug.Trace("Sensor %s: stable %v", d.cfg.Name, raw)
	}
	return nil
}

// Triggered reports the debounced switch state.
func (d *Debounced) Triggered() bool {
	if d.cfg.ActiveLow {
		return d.stable == gpio.Low
	}
	return d.stable == gpio.High
}

// Changed reports whether the last Update committed a new stable level.
func (d *Debounced) Changed() bool {
	return d.changed
}

// Name returns the configured sensor name.
func (d *Debounced) Name() string {
	return d.cfg.Name
}
