// Package logger wraps zerolog behind a small interface so packages can log
// without importing zerolog directly.
package logger

import "time"

// Logger hands out level-scoped events. WithContext returns the request-scoped
// logger stored by ToContext, if any.
type Logger interface {
	Info() LogEvent
	Error() LogEvent
	Debug() LogEvent
	Warn() LogEvent
	WithContext(ctx any) Logger
	WithFields(fields map[string]any) Logger
}

// LogEvent accumulates fields until Msg writes it.
type LogEvent interface {
	Msg(msg string)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Int(key string, value int) LogEvent
	Int64(key string, value int64) LogEvent
	Bool(key string, value bool) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Interface(key string, i any) LogEvent
}
