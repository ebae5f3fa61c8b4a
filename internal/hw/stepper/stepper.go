package stepper

import (
	"math"
	"time"

	"github.com/cjeanneret/SprayGo/internal/debug"
	"github.com/cjeanneret/SprayGo/internal/hw/gpio"
)

// Config holds the hardware configuration for a stepper motor.
type Config struct {
	Name         string
	StepPin      int
	DirPin       int
	EnablePin    int  // A4988 ENABLE pin (BCM). 0 = not used. Active LOW (LOW=enabled).
	InvertDir    bool // swap the DIR level for positive moves (motor wired the other way round)
	MaxSpeed     float64
	Acceleration float64
}

// Stepper is a non-blocking step/dir generator with a trapezoidal speed ramp.
// Targets are set by Move/MoveTo; Run must be called every control tick and
// emits at most one step pulse per call, when the current step interval has elapsed.
type Stepper struct {
	gpio gpio.Driver
	cfg  Config

	pos    int64
	target int64

	speed        float64 // signed steps/s of the step just taken
	maxSpeed     float64
	acceleration float64
	interval     time.Duration // 0 = no step pending
	lastStep     time.Time

	dirForward bool
	dirKnown   bool
}

// NewStepper creates a new stepper motor controller.
// MaxSpeed defaults to 1000 steps/s when unset.
func NewStepper(g gpio.Driver, cfg Config) *Stepper {
	_ = g.SetupPin(cfg.StepPin, gpio.Output)
	_ = g.SetupPin(cfg.DirPin, gpio.Output)
	_ = g.WritePin(cfg.StepPin, gpio.Low)

	s := &Stepper{
		gpio:         g,
		cfg:          cfg,
		maxSpeed:     cfg.MaxSpeed,
		acceleration: cfg.Acceleration,
	}
	if s.maxSpeed <= 0 {
		s.maxSpeed = 1000
	}

	// A4988 ENABLE: active LOW. LOW = enabled, HIGH = disabled.
	if cfg.EnablePin > 0 {
		_ = g.SetupPin(cfg.EnablePin, gpio.Output)
		_ = g.WritePin(cfg.EnablePin, gpio.Low) // enable by default
	}

	return s
}

// Move sets a target relative to the current position.
func (s *Stepper) Move(steps int64) {
	s.MoveTo(s.pos + steps)
}

// MoveTo sets an absolute target position.
func (s *Stepper) MoveTo(position int64) {
	if s.target == position {
		return
	}
	debug.Verbose("Stepper %s: target %d -> %d (pos %d)", s.cfg.Name, s.target, position, s.pos)
	s.target = position
	s.computeNewSpeed()
}

// Run emits one step if it is due at now and returns true while motion is outstanding.
// Steps are scheduled on a fixed grid so tick jitter does not slow the motor;
// after a pause longer than one interval the grid restarts at now.
func (s *Stepper) Run(now time.Time) bool {
	if s.interval > 0 && now.Sub(s.lastStep) >= s.interval {
		s.step()
		next := s.lastStep.Add(s.interval)
		if now.Sub(next) >= s.interval {
			next = now
		}
		s.lastStep = next
		s.computeNewSpeed()
	}
	return s.IsRunning()
}

// IsRunning reports whether the motor is moving or has a step pending.
func (s *Stepper) IsRunning() bool {
	return s.speed != 0 || s.target != s.pos
}

// DistanceToGo returns the signed number of steps left to the target.
func (s *Stepper) DistanceToGo() int64 {
	return s.target - s.pos
}

// CurrentPosition returns the position in steps.
func (s *Stepper) CurrentPosition() int64 {
	return s.pos
}

// SetCurrentPosition redefines the current position and cancels any motion.
func (s *Stepper) SetCurrentPosition(position int64) {
	s.pos = position
	s.target = position
	s.speed = 0
	s.interval = 0
}

// Stop retargets the motor so it comes to rest as quickly as the
// acceleration allows. Without acceleration it stops on the spot.
func (s *Stepper) Stop() {
	if s.speed == 0 || s.acceleration <= 0 {
		s.target = s.pos
		s.speed = 0
		s.interval = 0
		return
	}
	stopSteps := int64(math.Ceil(s.speed * s.speed / (2 * s.acceleration)))
	if s.speed > 0 {
		s.target = s.pos + stopSteps
	} else {
		s.target = s.pos - stopSteps
	}
	s.computeNewSpeed()
}

// SetMaxSpeed sets the cruise speed in steps/s.
func (s *Stepper) SetMaxSpeed(stepsPerSecond float64) {
	if stepsPerSecond <= 0 {
		return
	}
	s.maxSpeed = stepsPerSecond
	if math.Abs(s.speed) > stepsPerSecond {
		s.speed = math.Copysign(stepsPerSecond, s.speed)
		s.interval = intervalFor(s.speed)
	}
}

// SetAcceleration sets the ramp in steps/s². 0 disables ramping.
func (s *Stepper) SetAcceleration(stepsPerSecond2 float64) {
	if stepsPerSecond2 < 0 {
		return
	}
	s.acceleration = stepsPerSecond2
}

// Enable turns on the motor driver (A4988 ENABLE=LOW). Motors hold position.
func (s *Stepper) Enable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.Low)
}

// Disable turns off the motor driver (A4988 ENABLE=HIGH). Motors freewheel, no holding torque.
func (s *Stepper) Disable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.High)
}

// computeNewSpeed picks the speed for the next step: accelerate toward the
// target until the remaining distance equals the braking distance, then brake.
// A move against the current direction first brakes to rest, then reverses.
func (s *Stepper) computeNewSpeed() {
	dist := s.target - s.pos

	if s.acceleration <= 0 {
		if dist == 0 {
			s.speed, s.interval = 0, 0
			return
		}
		s.speed = math.Copysign(s.maxSpeed, float64(dist))
		s.interval = intervalFor(s.speed)
		return
	}

	startSpeed := math.Min(math.Sqrt(2*s.acceleration), s.maxSpeed)
	mag := math.Abs(s.speed)
	if dist == 0 && mag <= startSpeed*(1+1e-9) {
		s.speed, s.interval = 0, 0
		return
	}

	brakeSteps := mag * mag / (2 * s.acceleration)
	towards := dist != 0 && (s.speed == 0 || (s.speed > 0) == (dist > 0))

	if !towards || brakeSteps >= math.Abs(float64(dist)) {
		v2 := mag*mag - 2*s.acceleration
		if v2 > startSpeed*startSpeed {
			s.speed = math.Copysign(math.Sqrt(v2), s.speed)
		} else {
			// crawl speed: creep toward the target, reversing if needed
			dir := float64(dist)
			if dist == 0 {
				dir = s.speed
			}
			s.speed = math.Copysign(startSpeed, dir)
		}
	} else {
		mag = math.Min(math.Sqrt(mag*mag+2*s.acceleration), s.maxSpeed)
		s.speed = math.Copysign(mag, float64(dist))
	}
	s.interval = intervalFor(s.speed)
}

func intervalFor(speed float64) time.Duration {
	return time.Duration(float64(time.Second) / math.Abs(speed))
}

func (s *Stepper) step() {
	forward := s.speed > 0
	if !s.dirKnown || forward != s.dirForward {
		level := gpio.Level(forward != s.cfg.InvertDir)
		if err := s.gpio.WritePin(s.cfg.DirPin, level); err != nil {
			debug.Error(err)
		}
		s.dirForward = forward
		s.dirKnown = true
	}

	if err := s.gpio.WritePin(s.cfg.StepPin, gpio.High); err != nil {
		debug.Error(err)
	}
	if err := s.gpio.WritePin(s.cfg.StepPin, gpio.Low); err != nil {
		debug.Error(err)
	}

	if forward {
		s.pos++
	} else {
		s.pos--
	}
}
