package pattern

import (
	"strconv"
	"strings"

	"github.com/cjeanneret/SprayGo/internal/logic/motion"
)

// Sides is the number of canvas sides.
const Sides = 4

// Pattern is the ordered command list that paints one side.
type Pattern []motion.Command

// Set holds the four side patterns, side 1 first.
type Set [Sides]Pattern

// Len returns the total number of commands of the selected sides.
func (s Set) Len(sel Selection) int {
	n := 0
	for i, p := range s {
		if sel[i] {
			n += len(p)
		}
	}
	return n
}

// Selection marks which sides take part in a cycle. Index 0 is side 1.
type Selection [Sides]bool

// AllSides selects every side.
func AllSides() Selection {
	return Selection{true, true, true, true}
}

// Any reports whether at least one side is selected.
func (s Selection) Any() bool {
	for _, v := range s {
		if v {
			return true
		}
	}
	return false
}

// String lists the selected side numbers, e.g. "1 3".
func (s Selection) String() string {
	var parts []string
	for i, v := range s {
		if v {
			parts = append(parts, strconv.Itoa(i+1))
		}
	}
	return strings.Join(parts, " ")
}

// Cursor is the position of the sequencer: side index (4 = past the end)
// and the index of the next command within that side.
type Cursor struct {
	Side  int `json:"side"`
	Index int `json:"index"`
}
