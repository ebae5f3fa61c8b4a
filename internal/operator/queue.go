package operator

import (
	"sync/atomic"

	"github.com/cjeanneret/SprayGo/internal/debug"
)

// DefaultQueueSize is used when the configured size is not positive.
const DefaultQueueSize = 16

// Queue is the bounded hand-off between operator sources and the control loop.
// Any goroutine may Submit; only the control loop calls Next.
//
// Emergency stops bypass the FIFO: they are latched, never rejected, and
// returned by the next call to Next ahead of anything already queued.
type Queue struct {
	ch        chan Command
	emergency atomic.Pointer[Command]
}

// NewQueue creates a queue holding up to size pending commands.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan Command, size)}
}

// Submit enqueues cmd without blocking. It returns false when the queue is full.
// None commands are dropped and reported as accepted. Emergency is always accepted.
func (q *Queue) Submit(cmd Command) bool {
	switch cmd.Kind {
	case None:
		debug.Trace("Operator: ignoring %q", cmd.Raw)
		return true
	case Emergency:
		q.emergency.Store(&cmd)
		return true
	}
	select {
	case q.ch <- cmd:
		return true
	default:
		debug.Info("Operator: queue full, dropping %q", cmd.Raw)
		return false
	}
}

// SubmitLine parses line and enqueues the result.
func (q *Queue) SubmitLine(line string) bool {
	return q.Submit(Parse(line))
}

// Next returns the pending command, if any, without blocking. A latched
// emergency comes first and discards the commands queued before it.
func (q *Queue) Next() (Command, bool) {
	if e := q.emergency.Swap(nil); e != nil {
		if n := q.drain(); n > 0 {
			debug.Info("Operator: emergency stop, discarding %d queued commands", n)
		}
		return *e, true
	}
	select {
	case cmd := <-q.ch:
		return cmd, true
	default:
		return Command{}, false
	}
}

func (q *Queue) drain() int {
	n := 0
	for {
		select {
		case <-q.ch:
			n++
		default:
			return n
		}
	}
}

// Len returns the number of pending commands, a latched emergency included.
func (q *Queue) Len() int {
	n := len(q.ch)
	if q.emergency.Load() != nil {
		n++
	}
	return n
}
