package logging

import "context"

// NoOpLogger satisfies Logger while discarding every entry. Useful as a safe
// default for components constructed without logging wired in.
type NoOpLogger struct{}

func (NoOpLogger) Debug(context.Context, string, ...interface{}) {}
func (NoOpLogger) Info(context.Context, string, ...interface{})  {}
func (NoOpLogger) Warn(context.Context, string, ...interface{})  {}
func (NoOpLogger) Error(context.Context, string, ...interface{}) {}

// With returns the receiver; a no-op logger has no fields to accumulate.
func (n NoOpLogger) With(...interface{}) Logger { return n }

var _ Logger = (*NoOpLogger)(nil)
