// Package app wires configuration, the store and the navigation packages
// into the sessions the navplus commands run.
package app

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vanderheijden86/navplus/pkg/config"
)

type envKey struct{}

// Env is the state shared by every command of one run.
type Env struct {
	Cfg *config.Config
	Log *zap.Logger

	start         time.Time
	restoreStdLog func()
}

// EnvFromContext returns the Env stored by ContextWithEnv.
func EnvFromContext(ctx context.Context) *Env {
	if env, ok := ctx.Value(envKey{}).(*Env); ok {
		return env
	}
	panic("app: env not found in context")
}

// ContextWithEnv returns ctx carrying a fresh Env with a no-op logger.
func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &Env{Log: zap.NewNop(), start: time.Now()})
}

// Uptime is the time since the Env was created.
func (e *Env) Uptime() time.Duration {
	return time.Since(e.start)
}

// RedirectStdLog sends the standard library logger through Log.
func (e *Env) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

// RestoreStdLog syncs Log and undoes RedirectStdLog.
func (e *Env) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
		e.restoreStdLog = nil
	}
}

// NewLogger returns a console logger writing to w. debug lowers the level
// and adds caller information.
func NewLogger(w zapcore.WriteSyncer, debug bool) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	level := zapcore.InfoLevel
	opts := []zap.Option{}
	if debug {
		level = zapcore.DebugLevel
		opts = append(opts, zap.AddCaller())
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(w), level)
	return zap.New(core, opts...)
}

// NewFileLogger returns a logger appending to path, for commands that own
// the terminal.
func NewFileLogger(path string, debug bool) (*zap.Logger, func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return NewLogger(f, debug), f.Close, nil
}
