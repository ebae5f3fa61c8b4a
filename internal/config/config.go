package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/SprayGo/internal/hw/gpio"
	"github.com/cjeanneret/SprayGo/internal/logic/geometry"
	"github.com/cjeanneret/SprayGo/internal/logic/homing"
	"github.com/cjeanneret/SprayGo/internal/logic/motion"
)

// MaxConfigFileBytes bounds the size of config and pattern files.
const MaxConfigFileBytes = 1 << 20

// AxisConfig holds the wiring, calibration and run profile of a linear axis.
type AxisConfig struct {
	StepPin      int     `yaml:"step_pin"`
	DirPin       int     `yaml:"dir_pin"`
	EnablePin    int     `yaml:"enable_pin"` // A4988 ENABLE pin (BCM). 0 = not used. Active LOW.
	InvertDir    bool    `yaml:"invert_dir"`
	StepsPerUnit float64 `yaml:"steps_per_unit"` // steps per inch of travel
	MaxSpeed     float64 `yaml:"max_speed"`      // steps/s while painting
	Acceleration float64 `yaml:"acceleration"`   // steps/s²
}

// RotationConfig describes the tray rotation axis.
type RotationConfig struct {
	StepPin      int     `yaml:"step_pin"`
	DirPin       int     `yaml:"dir_pin"`
	EnablePin    int     `yaml:"enable_pin"`
	InvertDir    bool    `yaml:"invert_dir"`
	StepsPerRev  float64 `yaml:"steps_per_rev"`
	MaxSpeed     float64 `yaml:"max_speed"`
	Acceleration float64 `yaml:"acceleration"`
}

// HomingConfig describes how the linear axes find their switches.
type HomingConfig struct {
	Speed        float64 `yaml:"speed"`        // steps/s
	Acceleration float64 `yaml:"acceleration"` // steps/s²
	Direction    int     `yaml:"direction"`    // -1 or +1
	TravelSteps  int64   `yaml:"travel_steps"`
	DebounceMs   int     `yaml:"debounce_ms"`
	XSensorPin   int     `yaml:"x_sensor_pin"`
	YSensorPin   int     `yaml:"y_sensor_pin"`
}

// SprayConfig is the spray relay output.
type SprayConfig struct {
	Pin       int   `yaml:"pin"`
	ActiveLow *bool `yaml:"active_low"` // default true
}

// OperatorConfig is the operator command channel.
type OperatorConfig struct {
	SerialPort string `yaml:"serial_port"` // empty = stdin
	Baud       int    `yaml:"baud"`
	QueueSize  int    `yaml:"queue_size"`
}

// WebConfig is the HTTP operator console.
type WebConfig struct {
	Listen         string   `yaml:"listen"`           // e.g. ":8080"; empty = disabled
	CommandsPerMin int      `yaml:"commands_per_min"` // POST /api/command rate limit per client
	AllowedOrigins []string `yaml:"allowed_origins"`  // websocket origins; empty = same host only
}

// DefaultsConfig contains generic runtime parameters.
type DefaultsConfig struct {
	TickUs     int    `yaml:"tick_us"`     // control loop period in µs; 0 = free running
	DebugLevel int    `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	GPIODriver string `yaml:"gpio_driver"` // mock, rpio or gpiocdev
	GPIOChip   string `yaml:"gpio_chip"`   // gpiocdev only
}

// Config aggregates all application configuration.
type Config struct {
	XAxis        AxisConfig     `yaml:"x_axis"`
	YAxis        AxisConfig     `yaml:"y_axis"`
	RotationAxis RotationConfig `yaml:"rotation_axis"`
	Homing       HomingConfig   `yaml:"homing"`
	Spray        SprayConfig    `yaml:"spray"`
	Operator     OperatorConfig `yaml:"operator"`
	Web          WebConfig      `yaml:"web"`
	Defaults     DefaultsConfig `yaml:"defaults"`
	PatternsFile string         `yaml:"patterns_file"` // relative to the config file

	dir string
}

// ValidateConfigPath accepts only *.yaml files directly inside a configs/ directory.
func ValidateConfigPath(path string) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	clean := filepath.Clean(path)
	for _, elem := range strings.Split(filepath.ToSlash(clean), "/") {
		if elem == ".." {
			return fmt.Errorf("config path %q escapes its directory", path)
		}
	}
	if filepath.Ext(clean) != ".yaml" {
		return fmt.Errorf("config path %q must end in .yaml", path)
	}
	if filepath.Base(filepath.Dir(clean)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// readLimited reads a whole file, refusing anything over MaxConfigFileBytes.
func readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxConfigFileBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxConfigFileBytes {
		return nil, fmt.Errorf("%s is larger than %d bytes", path, MaxConfigFileBytes)
	}
	return data, nil
}

// Load reads a YAML file and returns the configuration.
// Unknown keys are ignored; missing values get the paint head defaults.
func Load(path string) (*Config, error) {
	data, err := readLimited(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	cfg.dir = filepath.Dir(path)

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	axisDefaults(&c.XAxis, 127, 5000, 20000)
	axisDefaults(&c.YAxis, 169, 5000, 5000)

	r := &c.RotationAxis
	if r.StepsPerRev <= 0 {
		r.StepsPerRev = 5000
	}
	if r.MaxSpeed <= 0 {
		r.MaxSpeed = 1000
	}
	if r.Acceleration <= 0 {
		r.Acceleration = 200
	}

	h := &c.Homing
	if h.Speed <= 0 {
		h.Speed = 500
	}
	if h.Acceleration <= 0 {
		h.Acceleration = 5000
	}
	if h.Direction == 0 {
		h.Direction = -1
	}
	if h.TravelSteps <= 0 {
		h.TravelSteps = homing.DefaultTravel
	}
	if h.DebounceMs <= 0 {
		h.DebounceMs = 10
	}

	if c.Spray.ActiveLow == nil {
		activeLow := true
		c.Spray.ActiveLow = &activeLow
	}

	if c.Operator.Baud <= 0 {
		c.Operator.Baud = 115200
	}
	if c.Operator.QueueSize <= 0 {
		c.Operator.QueueSize = 16
	}

	if c.Web.CommandsPerMin <= 0 {
		c.Web.CommandsPerMin = 120
	}

	if c.Defaults.TickUs < 0 {
		c.Defaults.TickUs = 0
	}
	if c.Defaults.GPIODriver == "" {
		c.Defaults.GPIODriver = gpio.DriverMock
	}
	if c.Defaults.GPIOChip == "" {
		c.Defaults.GPIOChip = "gpiochip0"
	}
	if c.PatternsFile == "" {
		c.PatternsFile = "patterns.yaml"
	}
}

func axisDefaults(a *AxisConfig, stepsPerUnit, maxSpeed, accel float64) {
	if a.StepsPerUnit <= 0 {
		a.StepsPerUnit = stepsPerUnit
	}
	if a.MaxSpeed <= 0 {
		a.MaxSpeed = maxSpeed
	}
	if a.Acceleration <= 0 {
		a.Acceleration = accel
	}
}

func (c *Config) validate() error {
	axes := []struct {
		name          string
		step, dir, en int
	}{
		{"x_axis", c.XAxis.StepPin, c.XAxis.DirPin, c.XAxis.EnablePin},
		{"y_axis", c.YAxis.StepPin, c.YAxis.DirPin, c.YAxis.EnablePin},
		{"rotation_axis", c.RotationAxis.StepPin, c.RotationAxis.DirPin, c.RotationAxis.EnablePin},
	}
	for _, a := range axes {
		if a.step <= 0 || a.dir <= 0 {
			return fmt.Errorf("%s.step_pin and %s.dir_pin are required", a.name, a.name)
		}
	}
	if c.Homing.XSensorPin <= 0 || c.Homing.YSensorPin <= 0 {
		return errors.New("homing.x_sensor_pin and homing.y_sensor_pin are required")
	}
	if c.Spray.Pin <= 0 {
		return errors.New("spray.pin is required")
	}
	if c.Homing.Direction != -1 && c.Homing.Direction != 1 {
		return fmt.Errorf("homing.direction must be -1 or 1, got %d", c.Homing.Direction)
	}
	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}

	seen := make(map[int]string)
	pins := []struct {
		name string
		pin  int
	}{
		{"x_axis.step_pin", c.XAxis.StepPin}, {"x_axis.dir_pin", c.XAxis.DirPin}, {"x_axis.enable_pin", c.XAxis.EnablePin},
		{"y_axis.step_pin", c.YAxis.StepPin}, {"y_axis.dir_pin", c.YAxis.DirPin}, {"y_axis.enable_pin", c.YAxis.EnablePin},
		{"rotation_axis.step_pin", c.RotationAxis.StepPin}, {"rotation_axis.dir_pin", c.RotationAxis.DirPin},
		{"rotation_axis.enable_pin", c.RotationAxis.EnablePin},
		{"homing.x_sensor_pin", c.Homing.XSensorPin}, {"homing.y_sensor_pin", c.Homing.YSensorPin},
		{"spray.pin", c.Spray.Pin},
	}
	for _, p := range pins {
		if p.pin <= 0 {
			continue
		}
		if other, ok := seen[p.pin]; ok {
			return fmt.Errorf("pin %d used by both %s and %s", p.pin, other, p.name)
		}
		seen[p.pin] = p.name
	}

	switch c.Defaults.GPIODriver {
	case gpio.DriverMock, gpio.DriverRPi, gpio.DriverGPIOCdev:
	default:
		return fmt.Errorf("unknown gpio_driver %q", c.Defaults.GPIODriver)
	}
	return nil
}

// Dir returns the directory of the loaded config file.
func (c *Config) Dir() string {
	return c.dir
}

// PatternsPath resolves patterns_file against the config directory.
func (c *Config) PatternsPath() string {
	if filepath.IsAbs(c.PatternsFile) {
		return c.PatternsFile
	}
	return filepath.Join(c.dir, c.PatternsFile)
}

// TickInterval returns the control loop period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Defaults.TickUs) * time.Microsecond
}

// DebounceInterval returns the home switch debounce window.
func (c *Config) DebounceInterval() time.Duration {
	return time.Duration(c.Homing.DebounceMs) * time.Millisecond
}

// SprayActiveLow reports whether the spray relay is energized by a LOW level.
func (c *Config) SprayActiveLow() bool {
	return c.Spray.ActiveLow == nil || *c.Spray.ActiveLow
}

// Calibration returns the distance to steps converter.
func (c *Config) Calibration() *geometry.StepsCalculator {
	return geometry.NewStepsCalculator(c.XAxis.StepsPerUnit, c.YAxis.StepsPerUnit, c.RotationAxis.StepsPerRev)
}

// XProfile returns the X run profile.
func (c *Config) XProfile() motion.Profile {
	return motion.Profile{MaxSpeed: c.XAxis.MaxSpeed, Acceleration: c.XAxis.Acceleration}
}

// YProfile returns the Y run profile.
func (c *Config) YProfile() motion.Profile {
	return motion.Profile{MaxSpeed: c.YAxis.MaxSpeed, Acceleration: c.YAxis.Acceleration}
}

// RotationProfile returns the tray rotation profile.
func (c *Config) RotationProfile() motion.Profile {
	return motion.Profile{MaxSpeed: c.RotationAxis.MaxSpeed, Acceleration: c.RotationAxis.Acceleration}
}

// HomingParams returns the parameters of the homing seek.
func (c *Config) HomingParams() homing.Params {
	return homing.Params{
		Profile:   motion.Profile{MaxSpeed: c.Homing.Speed, Acceleration: c.Homing.Acceleration},
		Direction: c.Homing.Direction,
		Travel:    c.Homing.TravelSteps,
	}
}
