// Package operator turns operator text lines into commands for the machine.
package operator

import (
	"strconv"
	"strings"

	"github.com/cjeanneret/SprayGo/internal/logic/pattern"
)

// Kind identifies an operator command.
type Kind int

const (
	None Kind = iota
	Home
	Start
	Emergency
	Reset
	Select
	Speed
)

func (k Kind) String() string {
	switch k {
	case Home:
		return "home"
	case Start:
		return "start"
	case Emergency:
		return "emergency"
	case Reset:
		return "reset"
	case Select:
		return "select"
	case Speed:
		return "speed"
	default:
		return "none"
	}
}

// Command is one parsed operator line.
type Command struct {
	Kind  Kind
	Sides pattern.Selection // Select only
	Side  int               // Speed only, 1..4
	Value int               // Speed only, percent 1..100
	Raw   string
}

const speedPrefix = "speed_"

// Parse interprets a line. A lone digit and every line of two or more
// characters is a side selection, even when it holds no valid digit.
// Other single characters and malformed speed lines yield a None command.
func Parse(line string) Command {
	s := strings.TrimSpace(line)
	cmd := Command{Raw: s}

	switch {
	case s == "":
		return cmd
	case len(s) == 1 && (s[0] < '0' || s[0] > '9'):
		switch strings.ToUpper(s) {
		case "H":
			cmd.Kind = Home
		case "S":
			cmd.Kind = Start
		case "E":
			cmd.Kind = Emergency
		case "R":
			cmd.Kind = Reset
		}
		return cmd
	case strings.HasPrefix(strings.ToLower(s), speedPrefix):
		if side, value, ok := parseSpeed(s[len(speedPrefix):]); ok {
			cmd.Kind, cmd.Side, cmd.Value = Speed, side, value
		}
		return cmd
	}

	cmd.Kind = Select
	cmd.Sides = ParseSelection(s)
	return cmd
}

// ParseSelection selects each side whose number 1..4 appears in s.
// Other characters are ignored, so "1133" equals "13" and "0" selects nothing.
func ParseSelection(s string) pattern.Selection {
	var sel pattern.Selection
	for _, r := range s {
		if r >= '1' && r <= '4' {
			sel[r-'1'] = true
		}
	}
	return sel
}

// parseSpeed reads "N V" with N in 1..4 and V in 1..100.
func parseSpeed(rest string) (int, int, bool) {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return 0, 0, false
	}
	side, err := strconv.Atoi(fields[0])
	if err != nil || side < 1 || side > pattern.Sides {
		return 0, 0, false
	}
	value, err := strconv.Atoi(fields[1])
	if err != nil || value < 1 || value > 100 {
		return 0, 0, false
	}
	return side, value, true
}
