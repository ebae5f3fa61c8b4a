package machine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjeanneret/SprayGo/internal/hw/gpio"
	"github.com/cjeanneret/SprayGo/internal/hw/sensor"
	"github.com/cjeanneret/SprayGo/internal/hw/spray"
	"github.com/cjeanneret/SprayGo/internal/hw/stepper"
	"github.com/cjeanneret/SprayGo/internal/logic/geometry"
	"github.com/cjeanneret/SprayGo/internal/logic/homing"
	"github.com/cjeanneret/SprayGo/internal/logic/motion"
	"github.com/cjeanneret/SprayGo/internal/logic/pattern"
	"github.com/cjeanneret/SprayGo/internal/operator"
)

const (
	pinXSensor = 5
	pinYSensor = 6
	pinSpray   = 26
)

type bench struct {
	t       *testing.T
	drv     *gpio.MockDriver
	x, y, r *stepper.Stepper
	m       *Machine
	now     time.Time
}

// newBench wires a machine to real step generators, debounced switches and
// the relay, all on the mock GPIO driver.
func newBench(t *testing.T, set pattern.Set) *bench {
	t.Helper()
	drv := &gpio.MockDriver{}
	drv.SetLevel(pinXSensor, gpio.High)
	drv.SetLevel(pinYSensor, gpio.High)

	b := &bench{
		t:   t,
		drv: drv,
		x:   stepper.NewStepper(drv, stepper.Config{Name: "x", StepPin: 17, DirPin: 27}),
		y:   stepper.NewStepper(drv, stepper.Config{Name: "y", StepPin: 22, DirPin: 23}),
		r:   stepper.NewStepper(drv, stepper.Config{Name: "rotation", StepPin: 24, DirPin: 25}),
		now: time.Unix(5000, 0),
	}
	xs, err := sensor.New(drv, sensor.Config{Name: "x", Pin: pinXSensor, ActiveLow: true})
	require.NoError(t, err)
	ys, err := sensor.New(drv, sensor.Config{Name: "y", Pin: pinYSensor, ActiveLow: true})
	require.NoError(t, err)
	relay, err := spray.NewRelay(drv, pinSpray, true)
	require.NoError(t, err)

	axes := motion.Axes{X: b.x, Y: b.y, Rotation: b.r}
	exec := motion.NewExecutor(axes, relay,
		geometry.NewStepsCalculator(127, 169, 5000),
		motion.Profile{MaxSpeed: 5000, Acceleration: 20000},
		motion.Profile{MaxSpeed: 5000, Acceleration: 5000},
		motion.Profile{MaxSpeed: 1000, Acceleration: 200},
	)
	b.m, err = New(Config{
		Axes:     axes,
		Spray:    relay,
		XSensor:  xs,
		YSensor:  ys,
		Executor: exec,
		Patterns: set,
		Homing:   homing.Params{Profile: motion.Profile{MaxSpeed: 500, Acceleration: 1000}, Direction: -1},
	})
	require.NoError(t, err)
	return b
}

func (b *bench) tick(line string) {
	b.now = b.now.Add(time.Millisecond)
	b.m.Tick(b.now, operator.Parse(line))
}

func (b *bench) tickUntil(cond func() bool) {
	b.t.Helper()
	for i := 0; i < 200000; i++ {
		if cond() {
			return
		}
		b.tick("")
	}
	b.t.Fatalf("condition not reached, state %s", b.m.State())
}

func (b *bench) level(pin int) gpio.Level {
	lvl, err := b.drv.ReadPin(pin)
	require.NoError(b.t, err)
	return lvl
}

func (b *bench) home() {
	b.t.Helper()
	b.tick("H")
	for i := 0; i < 200; i++ {
		b.tick("")
	}
	require.Equal(b.t, HomingX, b.m.State())
	require.Less(b.t, b.x.CurrentPosition(), int64(0), "x seeks toward its switch")

	b.drv.SetLevel(pinXSensor, gpio.Low)
	b.tickUntil(func() bool { return b.m.State() == HomingY })
	b.drv.SetLevel(pinXSensor, gpio.High)
	assert.Equal(b.t, int64(0), b.x.CurrentPosition())

	for i := 0; i < 200; i++ {
		b.tick("")
	}
	require.Less(b.t, b.y.CurrentPosition(), int64(0))
	b.drv.SetLevel(pinYSensor, gpio.Low)
	b.tickUntil(func() bool { return b.m.State() == HomedWaiting })
	b.drv.SetLevel(pinYSensor, gpio.High)
	assert.Equal(b.t, int64(0), b.y.CurrentPosition())
}

func TestBench_HomeAndPaintOneSide(t *testing.T) {
	set := pattern.Set{{
		motion.MoveAxis{Axis: motion.AxisX, Distance: 0.5, Spray: true},
		motion.SetSpray{On: false},
		motion.Rotate{Degrees: 10},
	}}
	b := newBench(t, set)
	assert.Equal(t, gpio.High, b.level(pinSpray), "relay released at boot")

	b.home()
	b.tick("1")
	b.tick("S")
	require.Equal(t, ExecutingPattern, b.m.State())
	assert.Equal(t, gpio.Low, b.level(pinSpray), "active-low relay energized")

	b.tickUntil(func() bool { return b.m.State() == Idle })
	assert.Equal(t, int64(63), b.x.CurrentPosition())
	assert.Equal(t, int64(138), b.r.CurrentPosition())
	assert.Equal(t, gpio.High, b.level(pinSpray))
}

func TestBench_SwitchBounceIsFiltered(t *testing.T) {
	b := newBench(t, pattern.Set{})
	b.tick("H")
	for i := 0; i < 50; i++ {
		b.tick("")
	}

	for i := 0; i < 20; i++ {
		lvl := gpio.Low
		if i%2 == 1 {
			lvl = gpio.High
		}
		b.drv.SetLevel(pinXSensor, lvl)
		b.tick("")
		b.tick("")
	}
	assert.Equal(t, HomingX, b.m.State(), "a bouncing contact never homes the axis")
}

func TestBench_EmergencyDuringMove(t *testing.T) {
	set := pattern.Set{{motion.MoveAxis{Axis: motion.AxisX, Distance: 20, Spray: true}}}
	b := newBench(t, set)
	b.home()
	b.tick("S")
	for i := 0; i < 300; i++ {
		b.tick("")
	}
	require.True(t, b.x.IsRunning())

	b.tick("E")
	assert.Equal(t, Error, b.m.State())
	assert.Equal(t, gpio.High, b.level(pinSpray))

	for !b.m.Settle(b.now) {
		b.now = b.now.Add(time.Millisecond)
	}
	assert.Less(t, b.x.CurrentPosition(), int64(20*127), "stopped short of the target")
}
