package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Important info (state changes, homing, cycle summary)
	LevelLive    = 2 // Live info (commands executed, operator input)
	LevelVerbose = 3 // Verbose (step counts, profiles)
	LevelTrace   = 4 // Trace (GPIO, dropped commands, very low level)
)

var (
	mu     sync.RWMutex
	level  int
	logger zerolog.Logger = zerolog.Nop()
)

// Init initializes the debug system with a level (0-4).
// 0 = no output
// 1 = important info (state changes, homing complete, cycle complete)
// 2 = live info (pattern commands, operator input)
// 3 = verbose (step counts, speed profiles)
// 4 = trace (GPIO, very low level)
func Init(debugLevel int) {
	InitWithOutput(debugLevel, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05.000000"})
}

// InitWithOutput is Init with an explicit writer. Tests pass a buffer.
func InitWithOutput(debugLevel int, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	level = debugLevel
	if level <= LevelOff {
		logger = zerolog.Nop()
		return
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger = zerolog.New(w).Level(zerologLevel(level)).With().
		Timestamp().
		Str("service", "spraygo").
		Logger()
}

// SetOutput redirects output while keeping the current level.
// Used to tee log lines to the web status stream.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if level <= LevelOff {
		return
	}
	logger = logger.Output(w)
}

func zerologLevel(l int) zerolog.Level {
	switch {
	case l >= LevelTrace:
		return zerolog.TraceLevel
	case l >= LevelLive:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

func current() (int, zerolog.Logger) {
	mu.RLock()
	defer mu.RUnlock()
	return level, logger
}

// Level returns the current debug level.
func Level() int {
	l, _ := current()
	return l
}

// IsEnabled returns true if debug level is >= the requested level.
func IsEnabled(minLevel int) bool {
	return Level() >= minLevel
}

// WithComponent returns a child logger tagged with a component name.
// Disabled levels cost nothing, so callers may log from the tick path.
func WithComponent(component string) zerolog.Logger {
	_, l := current()
	return l.With().Str("component", component).Logger()
}

// --- Level 1 functions (Info): important info ---

// Info prints a level 1 message (important info).
func Info(format string, args ...interface{}) {
	if l, lg := current(); l >= LevelInfo {
		lg.Info().Msgf(format, args...)
	}
}

// Summary prints an important summary (level 1).
func Summary(title string) {
	if l, lg := current(); l >= LevelInfo {
		lg.Info().Str("summary", title).Msg("═══ " + title + " ═══")
	}
}

// --- Level 2 functions (Live): real-time info ---

// Live prints a level 2 message (live info).
func Live(format string, args ...interface{}) {
	if l, lg := current(); l >= LevelLive {
		lg.Debug().Str("tag", "live").Msgf(format, args...)
	}
}

// Move prints an axis movement (level 2).
func Move(axis string, steps int64) {
	if l, lg := current(); l >= LevelLive {
		lg.Debug().Str("tag", "live").Str("axis", axis).Int64("steps", steps).Msg("axis move")
	}
}

// --- Level 3 functions (Verbose): everything ---

// Verbose prints a level 3 message (verbose).
func Verbose(format string, args ...interface{}) {
	if l, lg := current(); l >= LevelVerbose {
		lg.Debug().Str("tag", "verbose").Msgf(format, args...)
	}
}

// Printf is an alias for Verbose.
func Printf(format string, args ...interface{}) {
	Verbose(format, args...)
}

// PrintStruct prints a struct in formatted form (level 3).
func PrintStruct(name string, v interface{}) {
	if l, lg := current(); l >= LevelVerbose {
		lg.Debug().Str("tag", "verbose").Msgf("%s: %+v", name, v)
	}
}

// Section prints a section separator (level 3).
func Section(name string) {
	if l, lg := current(); l >= LevelVerbose {
		lg.Debug().Str("section", name).Msg("━━━ " + name + " ━━━")
	}
}

// Step prints a numbered step (level 3).
func Step(num int, description string) {
	if l, lg := current(); l >= LevelVerbose {
		lg.Debug().Int("step", num).Msg(description)
	}
}

// Value prints a named value (level 1).
func Value(name string, value interface{}) {
	if l, lg := current(); l >= LevelInfo {
		lg.Info().Interface(name, value).Msg("value")
	}
}

// --- Level 4 functions (Trace): very low level ---

// Trace prints a level 4 message (trace, GPIO).
func Trace(format string, args ...interface{}) {
	if l, lg := current(); l >= LevelTrace {
		lg.Trace().Msgf(format, args...)
	}
}

// GPIO prints a GPIO operation (level 4).
func GPIO(operation string, pin int, value interface{}) {
	if l, lg := current(); l >= LevelTrace {
		lg.Trace().Str("op", operation).Int("pin", pin).Interface("value", value).Msg("gpio")
	}
}

// --- General functions ---

// Error prints a debug error (level 1+).
func Error(err error) {
	if l, lg := current(); l >= LevelInfo {
		lg.Error().Err(err).Msg("error")
	}
}

// Fmt is a helper function that returns a formatted string
// only if debug is enabled (to avoid unnecessary allocations).
func Fmt(format string, args ...interface{}) string {
	if Level() > 0 {
		return fmt.Sprintf(format, args...)
	}
	return ""
}
