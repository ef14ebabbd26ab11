package logger

import (
	"io"
)

var global = New("hepkit")

// SetLevel sets the logging level for the global logger.
func SetLevel(lvl string) {
	global.SetLevel(lvl)
}

// SetOutput sets the output for the global logger.
func SetOutput(w io.Writer) {
	global.SetOutput(w)
}

// Discard discards the output for the global logger.
func Discard() {
	global.Discard()
}

// Debug logs to the global logger at the Debug level.
func Debug(msg string, args ...interface{}) {
	global.Debug(msg, args...)
}

// Info logs to the global logger at the Info level.
func Info(msg string, args ...interface{}) {
	global.Info(msg, args...)
}

// Warn logs to the global logger at the Warn level.
func Warn(msg string, args ...interface{}) {
	global.Warn(msg, args...)
}

// Error logs to the global logger at the Error level.
func Error(msg string, args ...interface{}) {
	global.Error(msg, args...)
}

// Configure configures the global logger.
func Configure(c Config) {
	global.Configure(c)
}

// NewSubLogger returns a child of the global logger with its own namespace.
// Sub-loggers follow later changes to the global level, output and formatter.
func NewSubLogger(ns string, args ...interface{}) *Logger {
	return global.NewSubLogger(ns, args...)
}
