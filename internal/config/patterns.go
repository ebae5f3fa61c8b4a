package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/SprayGo/internal/logic/motion"
	"github.com/cjeanneret/SprayGo/internal/logic/pattern"
)

// Pattern file operations.
const (
	OpMoveX    = "move_x"
	OpMoveY    = "move_y"
	OpRotate   = "rotate"
	OpSprayOn  = "spray_on"
	OpSprayOff = "spray_off"
)

// CommandSpec is one pattern command as written in the patterns file.
type CommandSpec struct {
	Op       string   `yaml:"op"`
	Distance *float64 `yaml:"distance,omitempty"` // inches, move_x / move_y
	Degrees  *float64 `yaml:"degrees,omitempty"`  // rotate
	Spray    bool     `yaml:"spray,omitempty"`    // move_x / move_y: switch the spray on first
}

// SideSpec is the pattern of one canvas side.
type SideSpec struct {
	Name     string        `yaml:"name"`
	Commands []CommandSpec `yaml:"commands"`
}

// PatternsFile is the root of the patterns YAML document.
type PatternsFile struct {
	Sides []SideSpec `yaml:"sides"`
}

// Command converts the YAML entry into a motion command.
func (c CommandSpec) Command() (motion.Command, error) {
	switch c.Op {
	case OpMoveX, OpMoveY:
		if c.Distance == nil {
			return nil, fmt.Errorf("%s requires distance", c.Op)
		}
		if c.Degrees != nil {
			return nil, fmt.Errorf("%s does not take degrees", c.Op)
		}
		axis := motion.AxisX
		if c.Op == OpMoveY {
			axis = motion.AxisY
		}
		return motion.MoveAxis{Axis: axis, Distance: *c.Distance, Spray: c.Spray}, nil
	case OpRotate:
		if c.Degrees == nil {
			return nil, errors.New("rotate requires degrees")
		}
		if c.Distance != nil || c.Spray {
			return nil, errors.New("rotate only takes degrees")
		}
		return motion.Rotate{Degrees: *c.Degrees}, nil
	case OpSprayOn, OpSprayOff:
		if c.Distance != nil || c.Degrees != nil {
			return nil, fmt.Errorf("%s takes no arguments", c.Op)
		}
		return motion.SetSpray{On: c.Op == OpSprayOn}, nil
	case "":
		return nil, errors.New("missing op")
	default:
		return nil, fmt.Errorf("unknown op %q", c.Op)
	}
}

// LoadPatterns reads the per-side patterns. Sides missing from the file
// have empty patterns.
func LoadPatterns(path string) (pattern.Set, error) {
	var set pattern.Set

	data, err := readLimited(path)
	if err != nil {
		return set, fmt.Errorf("read patterns file: %w", err)
	}
	var doc PatternsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return set, fmt.Errorf("unmarshal patterns yaml: %w", err)
	}
	return ParsePatterns(doc)
}

// ParsePatterns converts a decoded patterns document into a pattern set.
func ParsePatterns(doc PatternsFile) (pattern.Set, error) {
	var set pattern.Set
	if len(doc.Sides) == 0 {
		return set, errors.New("patterns: no sides defined")
	}
	if len(doc.Sides) > pattern.Sides {
		return set, fmt.Errorf("patterns: %d sides defined, at most %d allowed", len(doc.Sides), pattern.Sides)
	}
	for i, side := range doc.Sides {
		p := make(pattern.Pattern, 0, len(side.Commands))
		for j, spec := range side.Commands {
			cmd, err := spec.Command()
			if err != nil {
				return set, fmt.Errorf("patterns: side %d command %d: %w", i+1, j+1, err)
			}
			p = append(p, cmd)
		}
		set[i] = p
	}
	return set, nil
}
