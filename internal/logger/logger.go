package logger

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu          sync.RWMutex
	base        = zap.NewNop()
	serviceName = "swingsentinel"
)

// Init builds the process-wide logger. Until it is called every helper is a no-op.
func Init(level string) error {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	Set(l)
	return nil
}

// Set replaces the underlying logger, mainly for tests.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
}

// SetServiceName changes the service field and returns the previous value.
func SetServiceName(name string) string {
	mu.Lock()
	defer mu.Unlock()
	old := serviceName
	serviceName = name
	return old
}

// L returns the current logger with the service field attached.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With(zap.String("service", serviceName))
}

func Sync() { _ = L().Sync() }

func Debug(format string, args ...interface{}) { L().Debug(fmt.Sprintf(format, args...)) }

func Info(format string, args ...interface{}) { L().Info(fmt.Sprintf(format, args...)) }

func Warn(format string, args ...interface{}) { L().Warn(fmt.Sprintf(format, args...)) }

func Error(format string, args ...interface{}) { L().Error(fmt.Sprintf(format, args...)) }
