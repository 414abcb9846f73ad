package logger

import (
	"sync"
)

// Log levels used across the service.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Output encodings.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process logger with console output.
// The first call to Get or Init wins; later calls return the same instance.
func Get(level string) *Logger {
	return Init(level, FormatConsole)
}

// Init builds the process logger with the configured level and encoding.
func Init(level, format string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level, format)
	})
	return globalLogger
}
