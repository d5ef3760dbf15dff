// Package debug traces the navigation pipeline when NAVPLUS_DEBUG is set or
// --debug is given:
//
//	NAVPLUS_DEBUG=1 navplus build
//
// Output goes through a zap logger named "debug". While tracing is off every
// call returns at once.
package debug

import (
	"os"
	"time"

	"go.uber.org/zap"
)

var (
	enabled bool
	logger  = zap.NewNop()
)

func init() {
	if os.Getenv("NAVPLUS_DEBUG") != "" {
		SetEnabled(true)
	}
}

// Enabled reports whether tracing is on.
func Enabled() bool {
	return enabled
}

// SetEnabled switches tracing. Turning it on installs a development logger
// on stderr; call SetLogger afterwards to route output elsewhere.
func SetEnabled(e bool) {
	enabled = e
	if !e {
		return
	}
	if l, err := zap.NewDevelopment(zap.AddCallerSkip(1)); err == nil {
		logger = l.Named("debug")
	}
}

// SetLogger routes trace output to l. A nil l discards it.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l.Named("debug")
}

// Log writes one trace entry.
func Log(msg string, fields ...zap.Field) {
	if enabled {
		logger.Debug(msg, fields...)
	}
}

// LogTiming traces how long op took.
func LogTiming(op string, d time.Duration) {
	if enabled {
		logger.Debug("timing", zap.String("op", op), zap.Duration("took", d))
	}
}

// LogEnterExit traces entry to op now and its exit, with the elapsed time,
// when the returned func runs:
//
//	defer debug.LogEnterExit("forest.Build")()
func LogEnterExit(op string) func() {
	if !enabled {
		return func() {}
	}
	logger.Debug("enter", zap.String("op", op))
	start := time.Now()
	return func() {
		logger.Debug("exit", zap.String("op", op), zap.Duration("took", time.Since(start)))
	}
}
