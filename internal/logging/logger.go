package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fadedpez/gamblinghall/internal/types"
)

// Level represents a logging level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var zapLevels = map[Level]zapcore.Level{
	DEBUG: zapcore.DebugLevel,
	INFO:  zapcore.InfoLevel,
	WARN:  zapcore.WarnLevel,
	ERROR: zapcore.ErrorLevel,
}

// ParseLevel maps a level name to a Level, defaulting to INFO.
func ParseLevel(name string) Level {
	switch name {
	case "debug", "DEBUG":
		return DEBUG
	case "warn", "WARN":
		return WARN
	case "error", "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger wraps a sugared zap logger with printf-style helpers
type Logger struct {
	sugar *zap.SugaredLogger
	level Level
}

// NewLogger creates a production (JSON) logger at the given level
func NewLogger(level Level) *Logger {
	l, err := build(zap.NewProductionConfig(), level)
	if err != nil {
		return &Logger{sugar: zap.NewNop().Sugar(), level: level}
	}
	return l
}

// New creates a logger for a named service. Development loggers write
// console output, everything else JSON.
func New(service, env string, development bool, level Level) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.InitialFields = map[string]interface{}{
		"service": service,
		"env":     env,
	}
	return build(cfg, level)
}

// FromZap wraps an existing zap logger
func FromZap(z *zap.Logger, level Level) *Logger {
	return &Logger{sugar: z.Sugar(), level: level}
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), level: ERROR}
}

func build(cfg zap.Config, level Level) (*Logger, error) {
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapLevels[level])
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return FromZap(z, level), nil
}

// With returns a child logger carrying the given key/value pairs
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...), level: l.level}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// LogError logs a GameError with its code and cause as structured fields
func (l *Logger) LogError(err error) {
	var gameErr *types.GameError
	if types.As(err, &gameErr) {
		fields := []interface{}{"code", string(gameErr.Code)}
		if gameErr.Err != nil {
			fields = append(fields, "cause", gameErr.Err.Error())
		}
		l.sugar.Errorw(gameErr.Message, fields...)
		return
	}
	l.sugar.Errorw("unexpected error", "error", err)
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// Default logger instance
var Default = NewLogger(INFO)
