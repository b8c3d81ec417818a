// Package logger provides leveled, printf-style logging for aikit.
//
// All output goes to stderr so that the toolkit process launched by aikit
// keeps stdout to itself. The package exposes plain functions rather than a
// logger object because the CLI has exactly one logging destination and no
// per-component configuration.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents a log severity level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var (
	mu     sync.Mutex
	out    io.Writer = os.Stderr
	minLvl           = LevelInfo
)

// SetDebug enables or disables debug-level output.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	if enabled {
		minLvl = LevelDebug
	} else {
		minLvl = LevelInfo
	}
}

// SetOutput redirects log output. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func logf(lvl Level, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if lvl < minLvl {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(out, "%s [%s] %s\n", ts, lvl, fmt.Sprintf(format, args...))
}

// Debug logs a debug message. Suppressed unless SetDebug(true) was called.
func Debug(format string, args ...interface{}) {
	logf(LevelDebug, format, args...)
}

// Info logs an informational message.
func Info(format string, args ...interface{}) {
	logf(LevelInfo, format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	logf(LevelWarn, format, args...)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	logf(LevelError, format, args...)
}
