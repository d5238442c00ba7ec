// Package elog is the tracing engine's logging facade: a thin wrapper
// over a *zap.SugaredLogger with a process-wide default, mirroring the
// Default()/SetDefault() shape of internal/logging in go-ublk but
// backed by a structured logging library instead of stdlib log.
package elog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu      sync.RWMutex
	current *zap.SugaredLogger
)

// Default returns the process-wide logger, building a production
// logger (zap.NewProduction, info level) on first use if none was set.
func Default() *zap.SugaredLogger {
	mu.RLock()
	if current != nil {
		defer mu.RUnlock()
		return current
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		current = l.Sugar()
	}
	return current
}

// SetDefault installs l as the process-wide logger. Used by the root
// extrae package's bootstrap to apply the configured log level.
func SetDefault(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

// FromLevel builds a *zap.SugaredLogger at the given zap level,
// writing to stderr with the production JSON encoder.
func FromLevel(level zap.AtomicLevel) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func Debugw(msg string, kv ...interface{}) { Default().Debugw(msg, kv...) }
func Infow(msg string, kv ...interface{})  { Default().Infow(msg, kv...) }
func Warnw(msg string, kv ...interface{})  { Default().Warnw(msg, kv...) }
func Errorw(msg string, kv ...interface{}) { Default().Errorw(msg, kv...) }
