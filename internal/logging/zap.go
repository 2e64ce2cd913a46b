package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapConfig selects level and static fields for the zap backend.
type ZapConfig struct {
	Level       string
	Development bool
	ServiceName string
	// Output is a zap sink path; empty means stdout.
	Output string
}

// ZapLogger adapts *zap.Logger to Logger.
type ZapLogger struct {
	z *zap.Logger
}

// NewZapLogger builds a JSON zap logger writing to cfg.Output.
func NewZapLogger(cfg ZapConfig) (*ZapLogger, error) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	output := cfg.Output
	if output == "" {
		output = "stdout"
	}
	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(cfg.Level)),
		Development:      cfg.Development,
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}

	z, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	if cfg.ServiceName != "" {
		z = z.With(zap.String("service", cfg.ServiceName))
	}
	return &ZapLogger{z: z}, nil
}

// NewZapFromCore wraps an existing zap logger (tests use zaptest/observer).
func NewZapFromCore(z *zap.Logger) *ZapLogger {
	return &ZapLogger{z: z}
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, toZap(fields)...) }

func (l *ZapLogger) Info(msg string, fields ...Field) { l.z.Info(msg, toZap(fields)...) }

func (l *ZapLogger) Warn(msg string, fields ...Field) { l.z.Warn(msg, toZap(fields)...) }

func (l *ZapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, toZap(fields)...) }

func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{z: l.z.With(toZap(fields)...)}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.z.Sync()
}

// New picks a backend by name: "zap" (default) or "stdout".
func New(backend, level, component string) (Logger, error) {
	return NewWithOutput(backend, level, component, "stdout")
}

// NewWithOutput is New writing to "stdout" or "stderr".
func NewWithOutput(backend, level, component, output string) (Logger, error) {
	switch strings.ToLower(backend) {
	case "stdout":
		if output == "stderr" {
			return NewWriterLogger(component, os.Stderr), nil
		}
		return NewStdoutLogger(component), nil
	case "", "zap":
		zl, err := NewZapLogger(ZapConfig{Level: level, ServiceName: "trimetric", Output: output})
		if err != nil {
			return nil, err
		}
		if component == "" {
			return zl, nil
		}
		return zl.With(Field{Key: "component", Value: component}), nil
	default:
		return nil, &UnknownBackendError{Backend: backend}
	}
}

// UnknownBackendError reports an unsupported logging backend name.
type UnknownBackendError struct {
	Backend string
}

func (e *UnknownBackendError) Error() string {
	return "unknown log backend " + `"` + e.Backend + `"`
}
