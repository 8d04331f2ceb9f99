// Package logging provides leveled wrappers around the standard logger.
package logging

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// Log level constants
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var levels = []string{LevelDebug, LevelInfo, LevelWarn, LevelError}

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(1)
}

// SetLevel sets the global logging level. Unknown names return an error and
// leave the level unchanged.
func SetLevel(level string) error {
	idx := indexOf(strings.ToLower(strings.TrimSpace(level)))
	if idx < 0 {
		return fmt.Errorf("unknown log level %q", level)
	}
	currentLevel.Store(int32(idx))
	return nil
}

// Level returns the current level name.
func Level() string {
	return levels[currentLevel.Load()]
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	if shouldLog(LevelDebug) {
		log.Output(2, fmt.Sprintf("[DEBUG] "+format, args...))
	}
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	if shouldLog(LevelInfo) {
		log.Output(2, fmt.Sprintf(format, args...))
	}
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	if shouldLog(LevelWarn) {
		log.Output(2, fmt.Sprintf("[WARN] "+format, args...))
	}
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	if shouldLog(LevelError) {
		log.Output(2, fmt.Sprintf("[ERROR] "+format, args...))
	}
}

func shouldLog(level string) bool {
	return indexOf(level) >= int(currentLevel.Load())
}

func indexOf(level string) int {
	for i, l := range levels {
		if l == level {
			return i
		}
	}
	return -1
}
