package pattern

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjeanneret/SprayGo/internal/logic/motion"
)

// recordingExecutor records executed commands.
type recordingExecutor struct {
	got  []motion.Command
	fail error
}

func (r *recordingExecutor) Execute(cmd motion.Command) error {
	if r.fail != nil {
		return r.fail
	}
	r.got = append(r.got, cmd)
	return nil
}

func mx(d float64, spray bool) motion.Command {
	return motion.MoveAxis{Axis: motion.AxisX, Distance: d, Spray: spray}
}

func my(d float64) motion.Command {
	return motion.MoveAxis{Axis: motion.AxisY, Distance: d}
}

func testSet() Set {
	return Set{
		{mx(4.5, false), motion.SetSpray{On: true}, mx(26, true), motion.SetSpray{On: false}, motion.Rotate{Degrees: 180}},
		{motion.SetSpray{On: true}, mx(-26, true), motion.SetSpray{On: false}, motion.Rotate{Degrees: 90}},
		{my(4.5), motion.Rotate{Degrees: 180}},
		{motion.SetSpray{On: true}, mx(35, true), motion.SetSpray{On: false}},
	}
}

// drain advances until Done and returns the number of Advance calls that executed something.
func drain(t *testing.T, s *Sequencer, sel Selection) int {
	t.Helper()
	n := 0
	for i := 0; i < 1000; i++ {
		st, err := s.Advance(sel)
		require.NoError(t, err)
		if st.Done {
			return n
		}
		n++
	}
	t.Fatal("sequencer never finished")
	return 0
}

func TestAdvance_AllSidesInOrder(t *testing.T) {
	exec := &recordingExecutor{}
	set := testSet()
	s := NewSequencer(set, exec)

	n := drain(t, s, AllSides())

	var want []motion.Command
	for _, p := range set {
		want = append(want, p...)
	}
	assert.Equal(t, len(want), n)
	if diff := cmp.Diff(want, exec.got); diff != "" {
		t.Errorf("executed commands mismatch (-want +got):\n%s", diff)
	}
}

func TestAdvance_SelectedSidesOnly(t *testing.T) {
	exec := &recordingExecutor{}
	set := testSet()
	set[0], set[2] = nil, nil // indexing an unselected side would panic
	s := NewSequencer(set, exec)

	sel := Selection{false, true, false, true}
	n := drain(t, s, sel)

	want := append(append([]motion.Command{}, set[1]...), set[3]...)
	assert.Equal(t, len(set[1])+len(set[3]), n)
	assert.Equal(t, set.Len(sel), n)
	if diff := cmp.Diff(want, exec.got); diff != "" {
		t.Errorf("executed commands mismatch (-want +got):\n%s", diff)
	}
}

func TestAdvance_OneCommandPerCall(t *testing.T) {
	exec := &recordingExecutor{}
	s := NewSequencer(testSet(), exec)

	st, err := s.Advance(AllSides())
	require.NoError(t, err)
	assert.Len(t, exec.got, 1)
	assert.Equal(t, Cursor{Side: 0, Index: 0}, st.Cursor)
	assert.Equal(t, Cursor{Side: 0, Index: 1}, s.Cursor())
}

func TestAdvance_LastCommandMovesToNextSide(t *testing.T) {
	exec := &recordingExecutor{}
	set := testSet()
	s := NewSequencer(set, exec)

	for i := 0; i < len(set[0]); i++ {
		_, err := s.Advance(AllSides())
		require.NoError(t, err)
	}
	assert.Equal(t, Cursor{Side: 1, Index: 0}, s.Cursor())
}

func TestAdvance_CursorIsMonotonic(t *testing.T) {
	s := NewSequencer(testSet(), &recordingExecutor{})
	sel := Selection{true, false, true, true}

	prev := s.Cursor()
	for {
		st, err := s.Advance(sel)
		require.NoError(t, err)
		cur := s.Cursor()
		assert.True(t, cur.Side > prev.Side || (cur.Side == prev.Side && cur.Index >= prev.Index),
			"cursor went back from %+v to %+v", prev, cur)
		prev = cur
		if st.Done {
			break
		}
	}
	assert.Equal(t, Sides, s.Cursor().Side)
}

func TestAdvance_DoneIsStable(t *testing.T) {
	exec := &recordingExecutor{}
	s := NewSequencer(testSet(), exec)
	drain(t, s, Selection{false, false, false, true})
	before := len(exec.got)

	for i := 0; i < 3; i++ {
		st, err := s.Advance(AllSides())
		require.NoError(t, err)
		assert.True(t, st.Done)
	}
	assert.Len(t, exec.got, before, "no commands after the cycle is exhausted")
}

func TestAdvance_NothingSelected(t *testing.T) {
	exec := &recordingExecutor{}
	s := NewSequencer(testSet(), exec)

	st, err := s.Advance(Selection{})
	require.NoError(t, err)
	assert.True(t, st.Done)
	assert.Empty(t, exec.got)
}

func TestAdvance_EmptySelectedSideSkipped(t *testing.T) {
	exec := &recordingExecutor{}
	set := testSet()
	set[1] = Pattern{}
	s := NewSequencer(set, exec)

	n := drain(t, s, Selection{false, true, false, true})
	assert.Equal(t, len(set[3]), n)
}

func TestReset_RewindsCursor(t *testing.T) {
	exec := &recordingExecutor{}
	s := NewSequencer(testSet(), exec)
	drain(t, s, AllSides())
	require.Equal(t, Sides, s.Cursor().Side)

	s.Reset()
	assert.Equal(t, Cursor{}, s.Cursor())
	st, err := s.Advance(AllSides())
	require.NoError(t, err)
	assert.Equal(t, mx(4.5, false), st.Command)
}

func TestAdvance_ExecutorError(t *testing.T) {
	boom := errors.New("relay stuck")
	exec := &recordingExecutor{fail: boom}
	s := NewSequencer(testSet(), exec)

	st, err := s.Advance(AllSides())
	require.ErrorIs(t, err, boom)
	assert.False(t, st.Done)
	assert.Contains(t, err.Error(), "side 1 command 1")
}

func TestSelection_String(t *testing.T) {
	assert.Equal(t, "1 3", Selection{true, false, true, false}.String())
	assert.Equal(t, "", Selection{}.String())
	assert.True(t, AllSides().Any())
	assert.False(t, Selection{}.Any())
}
