// Package logging provides structured logging with trace id propagation.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger interface for structured logging with trace support
type Logger interface {
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})

	// Context-aware logging with trace IDs
	InfoContext(ctx context.Context, msg string, fields ...interface{})
	WarnContext(ctx context.Context, msg string, fields ...interface{})
	ErrorContext(ctx context.Context, msg string, fields ...interface{})
	DebugContext(ctx context.Context, msg string, fields ...interface{})

	WithTraceID(traceID string) Logger
	WithComponent(component string) Logger
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	TraceID   string                 `json:"trace_id,omitempty"`
	Component string                 `json:"component,omitempty"`
	File      string                 `json:"file,omitempty"`
	Line      int                    `json:"line,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// ContextKey represents keys used in context for trace IDs
type ContextKey string

const (
	TraceIDKey ContextKey = "trace_id"
)

// LogLevel represents logging levels
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// StructuredLogger writes JSON or text log lines to a writer
type StructuredLogger struct {
	level     LogLevel
	traceID   string
	component string
	useJSON   bool
	out       *syncWriter
}

// syncWriter serializes writes shared by derived loggers
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) writeLine(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write(append(line, '\n'))
}

// NewLogger creates a JSON logger writing to stdout
func NewLogger(level LogLevel) Logger {
	return New(level, "json", os.Stdout)
}

// New creates a logger with the given level, format ("json" or "text")
// and destination.
func New(level LogLevel, format string, w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	return &StructuredLogger{
		level:   level,
		useJSON: !strings.EqualFold(format, "text"),
		out:     &syncWriter{w: w},
	}
}

// WithTraceID creates a new logger with a trace ID
func (l *StructuredLogger) WithTraceID(traceID string) Logger {
	clone := *l
	clone.traceID = traceID
	return &clone
}

// WithComponent creates a new logger with a component name
func (l *StructuredLogger) WithComponent(component string) Logger {
	clone := *l
	clone.component = component
	return &clone
}

// Info logs an info message
func (l *StructuredLogger) Info(msg string, fields ...interface{}) {
	l.log(context.Background(), INFO, msg, fields)
}

// InfoContext logs an info message with context
func (l *StructuredLogger) InfoContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, INFO, msg, fields)
}

// Warn logs a warning message
func (l *StructuredLogger) Warn(msg string, fields ...interface{}) {
	l.log(context.Background(), WARN, msg, fields)
}

// WarnContext logs a warning message with context
func (l *StructuredLogger) WarnContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, WARN, msg, fields)
}

// Error logs an error message
func (l *StructuredLogger) Error(msg string, fields ...interface{}) {
	l.log(context.Background(), ERROR, msg, fields)
}

// ErrorContext logs an error message with context
func (l *StructuredLogger) ErrorContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, ERROR, msg, fields)
}

// Debug logs a debug message
func (l *StructuredLogger) Debug(msg string, fields ...interface{}) {
	l.log(context.Background(), DEBUG, msg, fields)
}

// DebugContext logs a debug message with context
func (l *StructuredLogger) DebugContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, DEBUG, msg, fields)
}

func (l *StructuredLogger) log(ctx context.Context, level LogLevel, msg string, fields []interface{}) {
	if level < l.level {
		return
	}

	// Context trace id takes precedence
	traceID := l.traceID
	if ctxTraceID := GetTraceID(ctx); ctxTraceID != "" {
		traceID = ctxTraceID
	}

	// Skip log, the public method and this helper
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "unknown"
		line = 0
	} else {
		file = file[strings.LastIndex(file, "/")+1:]
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     levelNames[level],
		Message:   msg,
		TraceID:   traceID,
		Component: l.component,
		File:      file,
		Line:      line,
		Fields:    fieldMap(fields),
	}

	if l.useJSON {
		l.outputJSON(entry)
	} else {
		l.outputText(entry)
	}
}

// fieldMap pairs up alternating key/value arguments
func fieldMap(fields []interface{}) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}
	m := make(map[string]interface{}, (len(fields)+1)/2)
	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			m[fmt.Sprintf("%v", fields[i])] = fields[i+1]
		} else {
			m[fmt.Sprintf("field_%d", i)] = fields[i]
		}
	}
	return m
}

func (l *StructuredLogger) outputJSON(entry LogEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal log entry: %v\n", err)
		return
	}
	l.out.writeLine(data)
}

func (l *StructuredLogger) outputText(entry LogEntry) {
	parts := []string{entry.Timestamp, "[" + entry.Level + "]"}

	if entry.TraceID != "" {
		short := entry.TraceID
		if len(short) > 8 {
			short = short[:8]
		}
		parts = append(parts, "trace:"+short)
	}
	if entry.Component != "" {
		parts = append(parts, "component:"+entry.Component)
	}

	parts = append(parts, entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
	}

	if entry.File != "" && entry.Line > 0 {
		parts = append(parts, fmt.Sprintf("(%s:%d)", entry.File, entry.Line))
	}

	l.out.writeLine([]byte(strings.Join(parts, " ")))
}

// Default logger instance
var defaultLogger = NewLogger(INFO)

func Info(msg string, fields ...interface{}) {
	defaultLogger.Info(msg, fields...)
}

func Warn(msg string, fields ...interface{}) {
	defaultLogger.Warn(msg, fields...)
}

func Error(msg string, fields ...interface{}) {
	defaultLogger.Error(msg, fields...)
}

// GenerateTraceID returns a fresh random trace id
func GenerateTraceID() string {
	return uuid.New().String()
}

// WithTraceID stores a trace id in ctx, generating one when empty
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = GenerateTraceID()
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID returns the trace id stored in ctx, if any
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithComponent returns the default logger scoped to a component
func WithComponent(component string) Logger {
	return defaultLogger.WithComponent(component)
}

// ParseLogLevel parses a level name, defaulting to INFO
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// SetDefaultLogger sets the default logger instance
func SetDefaultLogger(logger Logger) {
	defaultLogger = logger
}
