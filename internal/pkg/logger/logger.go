package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log entry.
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

// ParseLevel maps a config string ("debug", "info", "warn", "error") to a
// Level. Unknown values fall back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger provides structured JSON logging with secret redaction.
type Logger struct {
	mu           sync.RWMutex
	base         *zap.Logger
	level        zap.AtomicLevel
	redactSecret bool
}

var defaultLogger = New(os.Stderr)

// New returns a Logger writing JSON lines to w at INFO level.
func New(w zapcore.WriteSyncer) *Logger {
	lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.MessageKey = "msg"
	enc.EncodeTime = zapcore.RFC3339TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(w), lvl)
	return &Logger{base: zap.New(core), level: lvl, redactSecret: true}
}

// Default returns the process-wide logger.
func Default() *Logger { return defaultLogger }

// SetLevel sets the minimum log level for the default logger.
func SetLevel(l Level) { defaultLogger.level.SetLevel(zapLevels[l]) }

// SetRedactSecrets enables or disables token redaction for the default logger.
func SetRedactSecrets(r bool) {
	defaultLogger.mu.Lock()
	defaultLogger.redactSecret = r
	defaultLogger.mu.Unlock()
}

// Zap exposes the underlying zap logger for libraries that accept one.
func Zap() *zap.Logger { return defaultLogger.base }

// Sync flushes buffered entries.
func Sync() { _ = defaultLogger.base.Sync() }

// Debug emits a DEBUG-level structured log entry.
func Debug(msg string, fields ...interface{}) { defaultLogger.Log(DEBUG, msg, fields...) }

// Info emits an INFO-level structured log entry.
func Info(msg string, fields ...interface{}) { defaultLogger.Log(INFO, msg, fields...) }

// Warn emits a WARN-level structured log entry.
func Warn(msg string, fields ...interface{}) { defaultLogger.Log(WARN, msg, fields...) }

// Error emits an ERROR-level structured log entry.
func Error(msg string, fields ...interface{}) { defaultLogger.Log(ERROR, msg, fields...) }

// Log writes msg with key/value pairs. A trailing key without a value is dropped.
func (l *Logger) Log(level Level, msg string, fields ...interface{}) {
	zl := zapLevels[level]
	if !l.level.Enabled(zl) {
		return
	}
	l.mu.RLock()
	redact := l.redactSecret
	l.mu.RUnlock()

	zf := make([]zap.Field, 0, len(fields)/2)
	for i := 0; i < len(fields)-1; i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		val := fields[i+1]
		if err, ok := val.(error); ok {
			val = err.Error()
		}
		if s, ok := val.(string); ok && redact {
			val = redactValue(key, s)
		} else if redact && isSecretKey(key) {
			val = "***"
		}
		zf = append(zf, zap.Any(key, val))
	}
	if ce := l.base.Check(zl, msg); ce != nil {
		ce.Write(zf...)
	}
}

func redactValue(key, val string) string {
	if isSecretKey(key) {
		return "***"
	}
	return RedactToken(val)
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	return strings.Contains(key, "token") || strings.Contains(key, "secret") || strings.Contains(key, "api_key")
}
