package machine

import (
	"context"
	"runtime"
	"time"

	"github.com/cjeanneret/SprayGo/internal/debug"
	"github.com/cjeanneret/SprayGo/internal/operator"
)

// DefaultSettleTimeout bounds how long Run lets the axes decelerate on shutdown.
const DefaultSettleTimeout = 5 * time.Second

// Clock supplies the tick time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Loop drives a Machine from a goroutine, feeding it queued operator commands.
type Loop struct {
	machine  *Machine
	queue    *operator.Queue
	interval time.Duration
	clock    Clock
	settle   time.Duration
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithClock replaces the system clock.
func WithClock(c Clock) LoopOption {
	return func(l *Loop) { l.clock = c }
}

// WithSettleTimeout sets how long shutdown waits for the axes to stop.
func WithSettleTimeout(d time.Duration) LoopOption {
	return func(l *Loop) { l.settle = d }
}

// NewLoop creates a loop ticking every interval. A non-positive interval
// ticks as fast as possible, yielding the processor between ticks.
func NewLoop(m *Machine, q *operator.Queue, interval time.Duration, opts ...LoopOption) *Loop {
	l := &Loop{
		machine:  m,
		queue:    q,
		interval: interval,
		clock:    systemClock{},
		settle:   DefaultSettleTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run ticks until ctx is cancelled. On cancellation the machine gets an
// emergency stop and the axes are given time to decelerate to rest.
func (l *Loop) Run(ctx context.Context) error {
	debug.Info("Control loop started (tick %s)", l.interval)

	var tick <-chan time.Time
	if l.interval > 0 {
		t := time.NewTicker(l.interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				l.shutdown()
				return nil
			case <-tick:
			}
		} else {
			if ctx.Err() != nil {
				l.shutdown()
				return nil
			}
			runtime.Gosched()
		}

		l.step()
	}
}

// step runs one tick with the next operator command, emergency first.
func (l *Loop) step() {
	cmd, _ := l.queue.Next()
	l.machine.Tick(l.clock.Now(), cmd)
}

func (l *Loop) shutdown() {
	debug.Info("Control loop stopping")
	l.machine.Tick(l.clock.Now(), operator.Command{Kind: operator.Emergency, Raw: "shutdown"})

	deadline := time.Now().Add(l.settle)
	for !l.machine.Settle(l.clock.Now()) {
		if time.Now().After(deadline) {
			debug.Info("Axes still moving after %s, giving up", l.settle)
			return
		}
		runtime.Gosched()
	}
}
