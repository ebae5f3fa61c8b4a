package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cjeanneret/SprayGo/internal/config"
	"github.com/cjeanneret/SprayGo/internal/debug"
	"github.com/cjeanneret/SprayGo/internal/hw/gpio"
	"github.com/cjeanneret/SprayGo/internal/logic/machine"
	"github.com/cjeanneret/SprayGo/internal/logic/motion"
	"github.com/cjeanneret/SprayGo/internal/logic/pattern"
	"github.com/cjeanneret/SprayGo/internal/metrics"
	"github.com/cjeanneret/SprayGo/internal/operator"
	"github.com/cjeanneret/SprayGo/internal/web"
)

// runFlags override config values from the command line. Empty or
// negative values keep the config.
type runFlags struct {
	web    string
	serial string
	gpio   string
	debug  int
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the paint head control loop",
		Long: `Run the paint head control loop.

Operator commands are read line by line from the serial port (or stdin):
  H        home the X and Y axes
  S        start painting the selected sides
  E        emergency stop
  R        reset after an emergency stop or fault
  1..4     select the sides to paint, e.g. "13"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("load config failed: %w", err)
			}
			flags.apply(cfg)

			debug.Init(cfg.Defaults.DebugLevel)
			debug.Section("Initialization")
			debug.Value("Config path", opts.configPath)
			debug.Value("Debug level", cfg.Defaults.DebugLevel)

			set, err := config.LoadPatterns(cfg.PatternsPath())
			if err != nil {
				return fmt.Errorf("load patterns failed: %w", err)
			}
			debug.Value("Patterns", cfg.PatternsPath())
			debug.Value("Pattern commands", set.Len(pattern.AllSides()))

			debug.Value("GPIO driver", cfg.Defaults.GPIODriver)
			drv, err := gpio.NewDriver(cfg.Defaults.GPIODriver, cfg.Defaults.GPIOChip)
			if err != nil {
				return fmt.Errorf("init GPIO failed: %w", err)
			}
			defer func() {
				if err := drv.Close(); err != nil {
					debug.Error(fmt.Errorf("closing GPIO driver failed: %w", err))
				}
			}()

			a, err := newApp(cfg, set, drv)
			if err != nil {
				return err
			}

			in, name, err := openInput(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return a.run(ctx, name, in)
		},
	}
	cmd.Flags().StringVar(&flags.web, "web", "", "serve the operator console on this address, e.g. :8080")
	cmd.Flags().StringVar(&flags.serial, "serial", "", "read operator commands from this serial port instead of stdin")
	cmd.Flags().StringVar(&flags.gpio, "gpio", "", "GPIO driver: mock, rpio or gpiocdev")
	cmd.Flags().IntVar(&flags.debug, "debug", -1, "debug level 0-4")
	return cmd
}

func (f *runFlags) apply(cfg *config.Config) {
	if f.web != "" {
		cfg.Web.Listen = f.web
	}
	if f.serial != "" {
		cfg.Operator.SerialPort = f.serial
	}
	if f.gpio != "" {
		cfg.Defaults.GPIODriver = f.gpio
	}
	if f.debug >= 0 {
		cfg.Defaults.DebugLevel = f.debug
	}
}

// openInput returns the operator command source.
func openInput(cfg *config.Config) (io.Reader, string, error) {
	if cfg.Operator.SerialPort == "" {
		return os.Stdin, "stdin", nil
	}
	port, err := operator.OpenSerial(cfg.Operator.SerialPort, cfg.Operator.Baud)
	if err != nil {
		return nil, "", err
	}
	return port, cfg.Operator.SerialPort, nil
}

// app is the wired paint head: hardware, machine, operator queue and the
// optional web console.
type app struct {
	cfg         *config.Config
	rig         *rig
	machine     *machine.Machine
	queue       *operator.Queue
	registry    *prometheus.Registry
	broadcaster *web.StatusBroadcaster
}

func newApp(cfg *config.Config, set pattern.Set, drv gpio.Driver) (*app, error) {
	hw, err := newRig(drv, cfg)
	if err != nil {
		return nil, err
	}

	debug.Step(4, "Creating executor and state machine")
	exec := motion.NewExecutor(hw.axes, hw.spray, cfg.Calibration(),
		cfg.XProfile(), cfg.YProfile(), cfg.RotationProfile())
	m, err := machine.New(machine.Config{
		Axes:     hw.axes,
		Spray:    hw.spray,
		XSensor:  hw.xHome,
		YSensor:  hw.yHome,
		Executor: exec,
		Patterns: set,
		Homing:   cfg.HomingParams(),
	})
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.AddObserver(metrics.New(reg))

	a := &app{
		cfg:      cfg,
		rig:      hw,
		machine:  m,
		queue:    operator.NewQueue(cfg.Operator.QueueSize),
		registry: reg,
	}
	if cfg.Web.Listen != "" {
		a.broadcaster = web.NewStatusBroadcaster()
		m.AddObserver(web.NewEventObserver(a.broadcaster, m))
	}
	return a, nil
}

// run blocks until ctx is cancelled or a component fails. The control
// loop always gets to perform its shutdown stop before run returns.
func (a *app) run(ctx context.Context, inputName string, in io.Reader) error {
	defer a.rig.release()

	var srv *web.Server
	if a.broadcaster != nil {
		var err error
		srv, err = web.NewServer(web.Options{
			Addr:           a.cfg.Web.Listen,
			CommandsPerMin: a.cfg.Web.CommandsPerMin,
			AllowedOrigins: a.cfg.Web.AllowedOrigins,
			Gatherer:       a.registry,
		}, a.broadcaster, a.machine, a.queue)
		if err != nil {
			return err
		}
		debug.SetOutput(io.MultiWriter(
			zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05.000000"},
			web.BroadcastWriter(a.broadcaster),
		))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	loop := machine.NewLoop(a.machine, a.queue, a.cfg.TickInterval())
	g.Go(func() error {
		return loop.Run(gctx)
	})
	if srv != nil {
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	// The reader stays outside the group: a read blocked on a terminal
	// is not guaranteed to return when stdin is closed.
	readErr := make(chan error, 1)
	reader := operator.NewReader(inputName, in, a.queue)
	go func() {
		if err := reader.Run(gctx); err != nil {
			readErr <- err
			cancel()
		}
	}()

	debug.Section("Ready")
	debug.Info("Enter 'H' to home, 1-4 to select sides, 'S' to start, 'E' to stop")

	start := time.Now()
	err := g.Wait()
	if err == nil {
		select {
		case err = <-readErr:
		default:
		}
	}
	debug.Info("Stopped after %s", time.Since(start).Round(time.Second))
	return err
}
