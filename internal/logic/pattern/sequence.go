package pattern

import (
	"fmt"

	"github.com/cjeanneret/SprayGo/internal/debug"
	"github.com/cjeanneret/SprayGo/internal/logic/motion"
)

// Executor issues a single motion command.
type Executor interface {
	Execute(cmd motion.Command) error
}

// Step describes what one Advance call did.
type Step struct {
	Done    bool // every selected side has been painted
	Cursor  Cursor
	Command motion.Command // nil when Done
}

// Sequencer walks the patterns of the selected sides, one command per call.
// The cursor only moves forward; Reset rewinds it for a new cycle.
type Sequencer struct {
	patterns Set
	exec     Executor
	cursor   Cursor
}

// NewSequencer creates a sequencer over a fixed pattern set.
func NewSequencer(patterns Set, exec Executor) *Sequencer {
	return &Sequencer{
		patterns: patterns,
		exec:     exec,
	}
}

// Reset moves the cursor back to the first command of side 1.
func (s *Sequencer) Reset() {
	s.cursor = Cursor{}
}

// Cursor returns the current position.
func (s *Sequencer) Cursor() Cursor {
	return s.cursor
}

// Patterns returns the pattern set.
func (s *Sequencer) Patterns() Set {
	return s.patterns
}

// Advance executes the next command of the selected sides. The caller only
// invokes it when all axes are idle. Unselected sides are skipped without
// looking at their pattern; so are selected sides with an empty pattern.
func (s *Sequencer) Advance(sel Selection) (Step, error) {
	for s.cursor.Side < Sides && (!sel[s.cursor.Side] || len(s.patterns[s.cursor.Side]) == 0) {
		s.cursor.Side++
		s.cursor.Index = 0
	}
	if s.cursor.Side >= Sides {
		return Step{Done: true, Cursor: s.cursor}, nil
	}

	at := s.cursor
	cmd := s.patterns[at.Side][at.Index]
	debug.Live("Pattern: side %d command %d/%d %s", at.Side+1, at.Index+1, len(s.patterns[at.Side]), cmd)

	s.cursor.Index++
	if s.cursor.Index >= len(s.patterns[at.Side]) {
		s.cursor.Index = 0
		s.cursor.Side++
	}

	if err := s.exec.Execute(cmd); err != nil {
		return Step{Cursor: at, Command: cmd}, fmt.Errorf("side %d command %d (%s): %w", at.Side+1, at.Index+1, cmd, err)
	}
	return Step{Cursor: at, Command: cmd}, nil
}
