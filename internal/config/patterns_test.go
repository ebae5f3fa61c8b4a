package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cjeanneret/SprayGo/internal/logic/motion"
	"github.com/cjeanneret/SprayGo/internal/logic/pattern"
)

func writePatterns(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPatterns(t *testing.T) {
	path := writePatterns(t, `
sides:
  - name: front
    commands:
      - {op: move_x, distance: 4.5}
      - {op: spray_on}
      - {op: move_x, distance: -26, spray: true}
      - {op: spray_off}
      - {op: rotate, degrees: 180}
  - name: back
    commands:
      - {op: move_y, distance: -4.415}
`)
	set, err := LoadPatterns(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := pattern.Set{
		{
			motion.MoveAxis{Axis: motion.AxisX, Distance: 4.5},
			motion.SetSpray{On: true},
			motion.MoveAxis{Axis: motion.AxisX, Distance: -26, Spray: true},
			motion.SetSpray{On: false},
			motion.Rotate{Degrees: 180},
		},
		{
			motion.MoveAxis{Axis: motion.AxisY, Distance: -4.415},
		},
	}
	if diff := cmp.Diff(want, set); diff != "" {
		t.Errorf("patterns mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPatterns_Errors(t *testing.T) {
	cases := map[string]string{
		"no sides":          "sides: []",
		"too many sides":    "sides: [{commands: []}, {commands: []}, {commands: []}, {commands: []}, {commands: []}]",
		"unknown op":        "sides: [{commands: [{op: jump}]}]",
		"missing op":        "sides: [{commands: [{distance: 1}]}]",
		"move no distance":  "sides: [{commands: [{op: move_x}]}]",
		"move with degrees": "sides: [{commands: [{op: move_y, distance: 1, degrees: 2}]}]",
		"rotate no degrees": "sides: [{commands: [{op: rotate}]}]",
		"rotate spray":      "sides: [{commands: [{op: rotate, degrees: 90, spray: true}]}]",
		"spray with args":   "sides: [{commands: [{op: spray_on, distance: 3}]}]",
		"invalid yaml":      "sides: [",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadPatterns(writePatterns(t, content)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadPatterns_ErrorNamesCommand(t *testing.T) {
	path := writePatterns(t, "sides: [{commands: []}, {commands: [{op: spray_on}, {op: fly}]}]")
	_, err := LoadPatterns(path)
	if err == nil || !strings.Contains(err.Error(), "side 2 command 2") {
		t.Errorf("error should locate the bad command, got %v", err)
	}
}

func TestLoadPatterns_FileNotFound(t *testing.T) {
	if _, err := LoadPatterns(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
