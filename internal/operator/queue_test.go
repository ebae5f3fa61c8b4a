package operator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue(4)
	require.True(t, q.SubmitLine("H"))
	require.True(t, q.SubmitLine("24"))
	require.True(t, q.SubmitLine("S"))
	assert.Equal(t, 3, q.Len())

	var got []Kind
	for {
		cmd, ok := q.Next()
		if !ok {
			break
		}
		got = append(got, cmd.Kind)
	}
	assert.Equal(t, []Kind{Home, Select, Start}, got)
}

func TestQueue_NextEmptyDoesNotBlock(t *testing.T) {
	q := NewQueue(1)
	_, ok := q.Next()
	assert.False(t, ok)
}

func TestQueue_FullDrops(t *testing.T) {
	q := NewQueue(1)
	assert.True(t, q.SubmitLine("H"))
	assert.False(t, q.SubmitLine("S"))
	cmd, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, Home, cmd.Kind)
}

func TestQueue_NoneNotQueued(t *testing.T) {
	q := NewQueue(1)
	assert.True(t, q.SubmitLine("?"))
	assert.Equal(t, 0, q.Len())
}

func TestQueue_DefaultSize(t *testing.T) {
	q := NewQueue(0)
	assert.Equal(t, DefaultQueueSize, cap(q.ch))
}

func TestQueue_EmergencyAcceptedWhenFull(t *testing.T) {
	q := NewQueue(16)
	for i := 0; i < 16; i++ {
		require.True(t, q.SubmitLine("13"))
	}
	require.False(t, q.SubmitLine("24"), "queue should be full")

	assert.True(t, q.SubmitLine("E"), "emergency must never be rejected")
	assert.Equal(t, 17, q.Len())

	cmd, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, Emergency, cmd.Kind)
	assert.Equal(t, 0, q.Len(), "commands queued before the emergency are discarded")
}

func TestQueue_EmergencyJumpsAhead(t *testing.T) {
	q := NewQueue(4)
	require.True(t, q.SubmitLine("R"))
	require.True(t, q.SubmitLine("e"))

	cmd, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, Emergency, cmd.Kind)
	assert.Equal(t, "e", cmd.Raw)

	_, ok = q.Next()
	assert.False(t, ok, "a reset queued before the emergency must not run after it")
}

func TestQueue_RepeatedEmergencyDeliveredOnce(t *testing.T) {
	q := NewQueue(1)
	q.SubmitLine("E")
	q.SubmitLine("E")

	cmd, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, Emergency, cmd.Kind)
	_, ok = q.Next()
	assert.False(t, ok)

	require.True(t, q.SubmitLine("H"), "queue usable after an emergency")
	cmd, _ = q.Next()
	assert.Equal(t, Home, cmd.Kind)
}
