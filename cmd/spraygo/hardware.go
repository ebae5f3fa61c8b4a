package main

import (
	"fmt"

	"github.com/cjeanneret/SprayGo/internal/config"
	"github.com/cjeanneret/SprayGo/internal/debug"
	"github.com/cjeanneret/SprayGo/internal/hw/gpio"
	"github.com/cjeanneret/SprayGo/internal/hw/sensor"
	"github.com/cjeanneret/SprayGo/internal/hw/spray"
	"github.com/cjeanneret/SprayGo/internal/hw/stepper"
	"github.com/cjeanneret/SprayGo/internal/logic/motion"
)

// rig is the paint head hardware on one GPIO driver.
type rig struct {
	steppers []*stepper.Stepper
	axes     motion.Axes
	xHome    *sensor.Debounced
	yHome    *sensor.Debounced
	spray    *spray.Relay
}

func newRig(drv gpio.Driver, cfg *config.Config) (*rig, error) {
	debug.Step(1, "Initializing stepper motors")
	x := stepper.NewStepper(drv, stepper.Config{
		Name:         "x",
		StepPin:      cfg.XAxis.StepPin,
		DirPin:       cfg.XAxis.DirPin,
		EnablePin:    cfg.XAxis.EnablePin,
		InvertDir:    cfg.XAxis.InvertDir,
		MaxSpeed:     cfg.XAxis.MaxSpeed,
		Acceleration: cfg.XAxis.Acceleration,
	})
	debug.PrintStruct("X axis config", cfg.XAxis)
	y := stepper.NewStepper(drv, stepper.Config{
		Name:         "y",
		StepPin:      cfg.YAxis.StepPin,
		DirPin:       cfg.YAxis.DirPin,
		EnablePin:    cfg.YAxis.EnablePin,
		InvertDir:    cfg.YAxis.InvertDir,
		MaxSpeed:     cfg.YAxis.MaxSpeed,
		Acceleration: cfg.YAxis.Acceleration,
	})
	debug.PrintStruct("Y axis config", cfg.YAxis)
	r := stepper.NewStepper(drv, stepper.Config{
		Name:         "rotation",
		StepPin:      cfg.RotationAxis.StepPin,
		DirPin:       cfg.RotationAxis.DirPin,
		EnablePin:    cfg.RotationAxis.EnablePin,
		InvertDir:    cfg.RotationAxis.InvertDir,
		MaxSpeed:     cfg.RotationAxis.MaxSpeed,
		Acceleration: cfg.RotationAxis.Acceleration,
	})
	debug.PrintStruct("Rotation axis config", cfg.RotationAxis)

	debug.Step(2, "Initializing home switches")
	xHome, err := sensor.New(drv, sensor.Config{
		Name:      "x_home",
		Pin:       cfg.Homing.XSensorPin,
		ActiveLow: true,
		Interval:  cfg.DebounceInterval(),
	})
	if err != nil {
		return nil, fmt.Errorf("x home switch: %w", err)
	}
	yHome, err := sensor.New(drv, sensor.Config{
		Name:      "y_home",
		Pin:       cfg.Homing.YSensorPin,
		ActiveLow: true,
		Interval:  cfg.DebounceInterval(),
	})
	if err != nil {
		return nil, fmt.Errorf("y home switch: %w", err)
	}
	debug.Value("X home pin", cfg.Homing.XSensorPin)
	debug.Value("Y home pin", cfg.Homing.YSensorPin)

	debug.Step(3, "Initializing spray relay")
	relay, err := spray.NewRelay(drv, cfg.Spray.Pin, cfg.SprayActiveLow())
	if err != nil {
		return nil, fmt.Errorf("spray relay: %w", err)
	}
	debug.Value("Spray pin", cfg.Spray.Pin)
	debug.Value("Spray active low", cfg.SprayActiveLow())

	return &rig{
		steppers: []*stepper.Stepper{x, y, r},
		axes:     motion.Axes{X: x, Y: y, Rotation: r},
		xHome:    xHome,
		yHome:    yHome,
		spray:    relay,
	}, nil
}

// release cuts the spray and lets the motors freewheel.
func (r *rig) release() {
	if err := r.spray.Set(false); err != nil {
		debug.Error(err)
	}
	for _, s := range r.steppers {
		if err := s.Disable(); err != nil {
			debug.Error(err)
		}
	}
}
