// Package logger wraps logrus with a key/value field API and a
// namespace field ("ns") carried by every logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/sirupsen/logrus"
)

// Logger handles structured logging.
type Logger struct {
	base *logrus.Logger
	log  *logrus.Entry
}

// NewLogger returns a new Logger with the given namespace and configuration.
func NewLogger(ns string, conf Config) *Logger {
	l := New(ns)
	l.Configure(conf)
	return l
}

// New returns a new Logger with the given namespace and base fields.
func New(ns string, args ...interface{}) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	f := fields(args...)
	f["ns"] = ns
	l := &Logger{base: base, log: base.WithFields(f)}
	l.SetFormatter(&textFormatter{
		TextFormatConfig: DefaultConfig().TextFormat,
	})
	return l
}

// NewSubLogger returns a new Logger that shares output and level with l,
// but has its own namespace.
func (l *Logger) NewSubLogger(ns string, args ...interface{}) *Logger {
	f := fields(args...)
	f["ns"] = ns
	return &Logger{base: l.base, log: l.log.WithFields(f)}
}

// SetLevel sets the level of logging.
func (l *Logger) SetLevel(lvl string) {
	switch strings.ToLower(lvl) {
	case "debug":
		l.base.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		l.base.SetLevel(logrus.WarnLevel)
	case "error":
		l.base.SetLevel(logrus.ErrorLevel)
	default:
		l.base.SetLevel(logrus.InfoLevel)
	}
}

// SetFormatter sets the formatter used by the logger.
func (l *Logger) SetFormatter(f logrus.Formatter) {
	l.base.Formatter = f
}

// SetOutput sets the output of the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.base.SetOutput(w)
}

// Discard sets the output to io.Discard.
func (l *Logger) Discard() {
	l.base.SetOutput(io.Discard)
}

// Debug logs a debug message.
//
// After the first argument, arguments are key-value pairs which are written as structured logs.
//
//	log.Debug("Some message here", "key1", value1, "key2", value2)
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l == nil {
		return
	}
	defer recoverLogErr()
	l.log.WithFields(fields(args...)).Debug(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	if l == nil {
		return
	}
	defer recoverLogErr()
	l.log.WithFields(fields(args...)).Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l == nil {
		return
	}
	defer recoverLogErr()
	l.log.WithFields(fields(args...)).Warn(msg)
}

// Error logs an error message.
//
// Error has a two-argument version that can be used as a shortcut.
//
//	err := copyFile()
//	log.Error("Couldn't copy file", err)
func (l *Logger) Error(msg string, args ...interface{}) {
	if l == nil {
		return
	}
	defer recoverLogErr()
	l.log.WithFields(fields(args...)).Error(msg)
}

// WithFields returns a new Logger instance with the given fields added to all log messages.
func (l *Logger) WithFields(args ...interface{}) *Logger {
	if l == nil {
		return nil
	}
	defer recoverLogErr()
	return &Logger{base: l.base, log: l.log.WithFields(fields(args...))}
}

// recoverLogErr is used to recover from any panics during logging.
func recoverLogErr() {
	if r := recover(); r != nil {
		fmt.Fprintln(os.Stderr, "Recovered from logging panic", r)
	}
}

// PrintSimpleError prints out an error message with a red "ERROR:" prefix.
func PrintSimpleError(err error) {
	fmt.Fprintf(os.Stderr, "%s %s\n", aurora.Red("ERROR:"), err.Error())
}

func fields(args ...interface{}) map[string]interface{} {
	f := make(map[string]interface{}, len(args)/2)
	if len(args) == 1 {
		if err, ok := args[0].(error); ok {
			f["error"] = err.Error()
		} else {
			f["unknown"] = args[0]
		}
		return f
	}
	for i := 0; i+1 < len(args); i += 2 {
		k, ok := args[i].(string)
		if !ok {
			k = fmt.Sprint(args[i])
		}
		v := args[i+1]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		f[k] = v
	}
	if len(args)%2 != 0 {
		f["unknown"] = args[len(args)-1]
	}
	return f
}
