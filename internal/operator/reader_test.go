package operator

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func drainKinds(q *Queue) []Kind {
	var got []Kind
	for {
		cmd, ok := q.Next()
		if !ok {
			return got
		}
		got = append(got, cmd.Kind)
	}
}

func TestReader_EndOfStream(t *testing.T) {
	q := NewQueue(8)
	r := NewReader("test", strings.NewReader("h\r\n13\n?\n\nE\n"), q)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []Kind{Home, Select, Emergency}, drainKinds(q))
}

func TestReader_CancelClosesStream(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	q := NewQueue(8)
	r := NewReader("pipe", pr, q)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx) }()

	_, err := pw.Write([]byte("S\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reader did not stop after cancel")
	}
}
