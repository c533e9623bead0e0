package logging

import "context"

// NoOpLogger discards all logs
type NoOpLogger struct{}

// NewNoOpLogger creates a new no-op logger
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) Info(msg string, fields ...interface{})  {}
func (n *NoOpLogger) Warn(msg string, fields ...interface{})  {}
func (n *NoOpLogger) Error(msg string, fields ...interface{}) {}
func (n *NoOpLogger) Debug(msg string, fields ...interface{}) {}

func (n *NoOpLogger) InfoContext(ctx context.Context, msg string, fields ...interface{})  {}
func (n *NoOpLogger) WarnContext(ctx context.Context, msg string, fields ...interface{})  {}
func (n *NoOpLogger) ErrorContext(ctx context.Context, msg string, fields ...interface{}) {}
func (n *NoOpLogger) DebugContext(ctx context.Context, msg string, fields ...interface{}) {}

// WithTraceID returns the receiver
func (n *NoOpLogger) WithTraceID(traceID string) Logger {
	return n
}

// WithComponent returns the receiver
func (n *NoOpLogger) WithComponent(component string) Logger {
	return n
}
