// Package logger provides structured logging for the WikiChallenge server.
// It keeps a small field-based API on top of zap so call sites never import
// zap directly.
package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Field represents a key-value pair for structured logging.
type Field = zap.Field

// F creates a new Field with the given key and value.
func F(key string, value any) Field { return zap.Any(key, value) }

func String(key, value string) Field          { return zap.String(key, value) }
func Int(key string, value int) Field         { return zap.Int(key, value) }
func Int64(key string, value int64) Field     { return zap.Int64(key, value) }
func Float64(key string, value float64) Field { return zap.Float64(key, value) }
func Bool(key string, value bool) Field       { return zap.Bool(key, value) }
func Any(key string, value any) Field         { return zap.Any(key, value) }

// Err creates an error field.
func Err(err error) Field { return zap.Error(err) }

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field { return zap.Duration(key, value) }

// Time creates a time field.
func Time(key string, value time.Time) Field { return zap.Time(key, value) }

// Options configures the logger.
type Options struct {
	Level Level
	// Format is "json" or "console".
	Format    string
	AddCaller bool
}

// DefaultOptions returns sensible defaults for the logger.
func DefaultOptions() Options {
	return Options{
		Level:     LevelInfo,
		Format:    "json",
		AddCaller: true,
	}
}

// Logger is the main logger struct.
type Logger struct {
	z *zap.Logger
}

// New creates a new Logger with the given options.
func New(opts Options) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	var enc zapcore.Encoder
	if opts.Format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), zap.NewAtomicLevelAt(opts.Level.zapLevel()))

	zopts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if opts.AddCaller {
		zopts = append(zopts, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	return &Logger{z: zap.New(core, zopts...)}
}

// Default creates a logger with default options.
func Default() *Logger {
	return New(DefaultOptions())
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// With returns a new Logger with the given fields added.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

// Named returns a child logger for a component.
func (l *Logger) Named(component string) *Logger {
	return l.With(Component(component))
}

func (l *Logger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

// Fatal logs a fatal message and exits the program.
func (l *Logger) Fatal(msg string, fields ...Field) { l.z.Fatal(msg, fields...) }

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...any) {
	l.z.Info(fmt.Sprintf(format, args...))
}

// Sync flushes buffered entries. Errors from syncing stdout are ignored.
func (l *Logger) Sync() {
	_ = l.z.Sync()
}

type ctxKey struct{}

// WithContext returns a new context with the logger attached.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context, or returns a default logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Default()
}

// RequestIDKey is a common field key for request tracing.
const RequestIDKey = "request_id"

// WithRequestID returns a logger with request ID field added.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.With(String(RequestIDKey, requestID))
}

// Game server logging helpers.
func UserID(id int64) Field         { return Int64("user_id", id) }
func ConnID(id string) Field        { return String("conn_id", id) }
func Event(name string) Field       { return String("event", name) }
func Code(code int) Field           { return String("code", fmt.Sprintf("0x%x", code)) }
func Component(name string) Field   { return String("component", name) }
func Latency(d time.Duration) Field { return Duration("latency", d) }
