// Package logger provides a wrapper around logrus for structured logging.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a new configured logger instance. ENVIRONMENT=production
// switches to JSON output.
func NewLogger(logLevel string) *logrus.Logger {
	return NewLoggerWithOutput(logLevel, os.Getenv("ENVIRONMENT"), os.Stdout)
}

// NewLoggerWithOutput creates a logger for environment writing to out
func NewLoggerWithOutput(logLevel, environment string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', defaulting to info", logLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// Discard returns a logger that drops everything
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
