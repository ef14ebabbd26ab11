package logger

import (
	"os"
	"time"
)

const defaultTimestampFormat = time.RFC3339

// Config provides configuration for a logger.
type Config struct {
	Level      string
	Formatter  string
	OutputFile string
	TextFormat TextFormatConfig
	JSONFormat JSONFormatConfig
}

// TextFormatConfig provides configuration for the text logger.
type TextFormatConfig struct {
	// Force disabling colors.
	DisableColors bool
	// Force formatted layout, even for non-TTY output.
	ForceFormatting bool
	// Disable timestamp logging.
	DisableTimestamp bool
	// Enable logging the full timestamp instead of seconds since start.
	FullTimestamp bool
	// Timestamp format to use when FullTimestamp is enabled.
	TimestampFormat string
	// Disable sorting of field keys.
	DisableSorting bool
	// Indent every line by this prefix.
	Indent string
}

// JSONFormatConfig provides configuration for the JSON logger.
type JSONFormatConfig struct {
	DisableTimestamp bool
	TimestampFormat  string
}

// DefaultConfig returns a Config instance with default values.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Formatter: "text",
		TextFormat: TextFormatConfig{
			FullTimestamp:   true,
			TimestampFormat: defaultTimestampFormat,
		},
		JSONFormat: JSONFormatConfig{
			TimestampFormat: defaultTimestampFormat,
		},
	}
}

// DebugConfig returns a Config instance useful for testing and debugging.
func DebugConfig() Config {
	c := DefaultConfig()
	c.Level = "debug"
	c.TextFormat.ForceFormatting = true
	return c
}

// Configure configures the logging level, formatter and output path.
func (l *Logger) Configure(conf Config) {
	l.SetLevel(conf.Level)

	switch conf.Formatter {
	case "json":
		l.SetFormatter(&jsonFormatter{conf: conf.JSONFormat})
	default:
		l.SetFormatter(&textFormatter{
			TextFormatConfig: conf.TextFormat,
			json:             jsonFormatter{conf: conf.JSONFormat},
		})
	}

	if conf.OutputFile != "" {
		logFile, err := os.OpenFile(
			conf.OutputFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666,
		)
		if err != nil {
			l.Error("Can't open log output", "output", conf.OutputFile)
		} else {
			l.SetOutput(logFile)
		}
	}
}
