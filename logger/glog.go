package logger

import (
	"github.com/golang/glog"
)

// debugVerbosity is the glog -v level at which Debugf output is written.
const debugVerbosity = 2

// GlogLogger implements the Logger interface on top of glog with a configurable call depth,
// so file:line in the output points at the caller of the package-level helpers.
type GlogLogger struct {
	depth int
}

func NewGlogLogger() Logger {
	return &GlogLogger{depth: 2}
}

// Debugf logs only when glog verbosity is at least debugVerbosity.
func (logger *GlogLogger) Debugf(msg string, args ...any) {
	if glog.V(debugVerbosity) {
		glog.InfoDepthf(logger.depth, msg, args...)
	}
}

// Infof logs an informational-level message with the specified format and optional arguments.
func (logger *GlogLogger) Infof(msg string, args ...any) {
	glog.InfoDepthf(logger.depth, msg, args...)
}

// Warnf logs a warning-level message with the specified format and arguments.
func (logger *GlogLogger) Warnf(msg string, args ...any) {
	glog.WarningDepthf(logger.depth, msg, args...)
}

// Errorf logs an error-level message with the specified format and arguments.
func (logger *GlogLogger) Errorf(msg string, args ...any) {
	glog.ErrorDepthf(logger.depth, msg, args...)
}

// Fatalf logs a fatal-level message with the specified format and arguments, then exits the application.
func (logger *GlogLogger) Fatalf(msg string, args ...any) {
	glog.FatalDepthf(logger.depth, msg, args...)
}
