// Package logger provides a process-wide structured logger for the gateway.
package logger

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var singleton atomic.Pointer[zap.SugaredLogger]

func init() {
	singleton.Store(newLogger(false, zapcore.InfoLevel))
}

// Initialize (re)configures the global logger from the process environment.
// LOG_LEVEL selects the level (see InitializeWithLevel; info when unset).
// Output is console encoded unless UNSTRUCTURED_LOGS is set to a false
// value, which selects JSON encoding. The CLI's --debug and --log-level
// flags reconfigure the logger through InitializeWithLevel instead.
func Initialize() {
	InitializeWithLevel(os.Getenv("LOG_LEVEL"), unstructuredLogs())
}

// InitializeWithLevel configures the logger explicitly; levelName is one of
// debug/info/warn/error (case-insensitive, defaults to info).
func InitializeWithLevel(levelName string, unstructured bool) {
	level := zapcore.InfoLevel
	switch strings.ToLower(levelName) {
	case "debug":
		level = zapcore.DebugLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}
	singleton.Store(newLogger(unstructured, level))
}

func unstructuredLogs() bool {
	v, ok := os.LookupEnv("UNSTRUCTURED_LOGS")
	if !ok {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

func newLogger(unstructured bool, level zapcore.Level) *zap.SugaredLogger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if unstructured {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	} else {
		encoder = zapcore.NewJSONEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddCaller()).Sugar()
}

// Get returns the current global logger.
func Get() *zap.SugaredLogger {
	return singleton.Load()
}

// Debug logs at debug level.
func Debug(args ...any) { Get().Debug(args...) }

// Debugf logs a formatted message at debug level.
func Debugf(template string, args ...any) { Get().Debugf(template, args...) }

// Debugw logs a message with structured key/value pairs at debug level.
func Debugw(msg string, kv ...any) { Get().Debugw(msg, kv...) }

// Info logs at info level.
func Info(args ...any) { Get().Info(args...) }

// Infof logs a formatted message at info level.
func Infof(template string, args ...any) { Get().Infof(template, args...) }

// Infow logs a message with structured key/value pairs at info level.
func Infow(msg string, kv ...any) { Get().Infow(msg, kv...) }

// Warn logs at warn level.
func Warn(args ...any) { Get().Warn(args...) }

// Warnf logs a formatted message at warn level.
func Warnf(template string, args ...any) { Get().Warnf(template, args...) }

// Warnw logs a message with structured key/value pairs at warn level.
func Warnw(msg string, kv ...any) { Get().Warnw(msg, kv...) }

// Error logs at error level.
func Error(args ...any) { Get().Error(args...) }

// Errorf logs a formatted message at error level.
func Errorf(template string, args ...any) { Get().Errorf(template, args...) }

// Errorw logs a message with structured key/value pairs at error level.
func Errorw(msg string, kv ...any) { Get().Errorw(msg, kv...) }

// Fatal logs at fatal level then exits the process.
func Fatal(args ...any) { Get().Fatal(args...) }

// Fatalf logs a formatted message at fatal level then exits the process.
func Fatalf(template string, args ...any) { Get().Fatalf(template, args...) }
