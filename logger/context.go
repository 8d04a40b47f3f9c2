package logger

import (
	"context"
)

// ToContext stores a child of l carrying fields in ctx, so that
// l.WithContext(ctx) later yields a request-scoped logger. Loggers that are not
// backed by zerolog leave ctx untouched.
func ToContext(ctx context.Context, l Logger, fields map[string]any) context.Context {
	zl, ok := l.(*ZeroLogger)
	if !ok || ctx == nil {
		return ctx
	}
	if zl.filter != nil {
		fields = zl.filter.FilterFields(fields)
	}
	child := zl.zlog.With().Fields(fields).Logger()
	return child.WithContext(ctx)
}
