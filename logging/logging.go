// Package logging builds the logrus logger shared by the pipeline stages.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// TimestampFormat matches the day-first stamp used in run logs.
const TimestampFormat = "Mon, 02 Jan 2006 15:04:05"

// New returns a logger writing to stdout at the given level ("debug",
// "info", "warn", "error") in "text" or "json" format.
func New(level, format string) *logrus.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(ParseLevel(level))

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: TimestampFormat})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: TimestampFormat,
			DisableColors:   true,
		})
	}
	return logger
}

// ParseLevel maps a config level to logrus, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch level {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
