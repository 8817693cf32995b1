// Package logger holds the process-wide zerolog logger.
//
// Call Init once from main, then Get or Component anywhere else.
// Levels, lowest first: trace, debug, info, warn, error.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger behaviour at initialisation time.
type Options struct {
	// Level is the minimum log level. Unknown values fall back to info.
	Level string
	// Pretty switches to coloured console output instead of JSON.
	Pretty bool
	// Service is attached to every entry as the "service" field.
	Service string
	// Output defaults to os.Stdout.
	Output io.Writer
}

var (
	mu          sync.RWMutex
	instance    zerolog.Logger
	initialized bool
)

// Init builds the singleton logger. Only the first call has any effect
// until Reset is called.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if initialized {
		return instance
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	lvl := parseLevel(opts.Level)
	zerolog.SetGlobalLevel(lvl)

	ctx := zerolog.New(out).Level(lvl).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	if !opts.Pretty {
		ctx = ctx.Caller()
	}
	instance = ctx.Logger()
	initialized = true
	return instance
}

// Get returns the singleton logger. Panics if Init has not been called yet.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !initialized {
		panic("logger: Get() called before Init()")
	}
	return instance
}

// Component returns a child logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset drops the singleton so the next Init rebuilds it. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = zerolog.Logger{}
	initialized = false
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
