package spray

import (
	"fmt"

	"github.com/cjeanneret/SprayGo/internal/debug"
	"github.com/cjeanneret/SprayGo/internal/hw/gpio"
)

// Relay is the spray gun valve driven through a relay module on one GPIO pin.
// Most relay boards are active-low: the coil pulls in when the input is LOW.
//
// The relay is released at construction so the gun never fires on boot.
type Relay struct {
	gpio      gpio.Driver
	pin       int
	activeLow bool
	on        bool
}

// NewRelay configures pin as an output and releases the relay.
func NewRelay(g gpio.Driver, pin int, activeLow bool) (*Relay, error) {
	r := &Relay{
		gpio:      g,
		pin:       pin,
		activeLow: activeLow,
	}
	if err := g.SetupPin(pin, gpio.Output); err != nil {
		return nil, fmt.Errorf("setup spray pin %d: %w", pin, err)
	}
	if err := g.WritePin(pin, r.level(false)); err != nil {
		return nil, fmt.Errorf("release spray relay: %w", err)
	}
	return r, nil
}

// Set energizes (on) or releases (off) the relay.
// The cached state only changes when the write succeeded.
func (r *Relay) Set(on bool) error {
	debug.Verbose("Spray: %s (pin %d -> %v)", onOff(on), r.pin, r.level(on))
	if err := r.gpio.WritePin(r.pin, r.level(on)); err != nil {
		return err
	}
	r.on = on
	return nil
}

// On reports the last successfully written state.
func (r *Relay) On() bool {
	return r.on
}

func (r *Relay) level(on bool) gpio.Level {
	return gpio.Level(on != r.activeLow)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
