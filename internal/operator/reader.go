package operator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tarm/serial"

	"github.com/cjeanneret/SprayGo/internal/debug"
)

// DefaultBaud matches the operator console of the paint head.
const DefaultBaud = 115200

// OpenSerial opens the operator serial port.
func OpenSerial(port string, baud int) (io.ReadWriteCloser, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	// Blocking reads: a timed-out read returns 0 bytes, which bufio.Scanner
	// eventually rejects. Reader.Run closes the port to unblock it.
	cfg := &serial.Config{Name: port, Baud: baud}
	p, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}
	debug.Info("Operator: serial port %s open at %d baud", port, baud)
	return p, nil
}

// Reader pumps newline-terminated operator lines from a stream into a Queue.
type Reader struct {
	name  string
	src   io.Reader
	queue *Queue
}

// NewReader creates a reader. name identifies the source in logs.
func NewReader(name string, src io.Reader, queue *Queue) *Reader {
	return &Reader{name: name, src: src, queue: queue}
}

// Run reads lines until the stream ends or ctx is cancelled.
// On cancellation the stream is closed if it is an io.Closer, which
// unblocks a pending read. End of stream is not an error.
func (r *Reader) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	if c, ok := r.src.(io.Closer); ok {
		go func() {
			select {
			case <-ctx.Done():
				_ = c.Close()
			case <-done:
			}
		}()
	}

	sc := bufio.NewScanner(r.src)
	for sc.Scan() {
		line := sc.Text()
		debug.Verbose("Operator[%s]: %q", r.name, line)
		r.queue.SubmitLine(line)
		if ctx.Err() != nil {
			return nil
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, io.ErrClosedPipe) && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("operator %s: %w", r.name, err)
	}
	return nil
}
