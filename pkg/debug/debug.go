// Package debug provides conditional debug logging for kc.
//
// Debug logging is enabled by setting the KC_DEBUG environment variable:
//
//	KC_DEBUG=1 kc
//
// When enabled, debug messages are written to stderr with timestamps.
// When disabled (default), all debug functions are no-ops with zero overhead.
//
// Usage:
//
//	import "github.com/bluerabbit/kcore/pkg/debug"
//
//	func myFunc() {
//	    debug.Log("loading %s", fileName)
//	    // ...
//	    debug.LogTiming("myFunc", elapsed)
//	}
package debug

import (
	"log"
	"os"
	"time"
)

var (
	// enabled is true when KC_DEBUG env var is set
	enabled bool
	// logger writes to stderr with [KC_DEBUG] prefix
	logger *log.Logger
)

func init() {
	if os.Getenv("KC_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, "[KC_DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, "[KC_DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}
