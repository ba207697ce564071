// log: request-scoped *slog.Logger в context.Context.
//
// Транспорты HTTP-клиента, middleware прокси и подкоманды CLI обогащают
// логгер один раз (request_id, method, path, cmd) и дальше достают его из ctx.
package log

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// Into кладёт логгер в контекст. nil не сохраняется.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	if l == nil {
		return ctx
	}

	return context.WithValue(ctx, loggerKey{}, l)
}

// From — логгер из контекста, иначе slog.Default().
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}

	return slog.Default()
}

// With добавляет attrs к логгеру контекста и возвращает новый контекст
// вместе с логгером. Без attrs контекст не меняется.
func With(ctx context.Context, attrs ...slog.Attr) (context.Context, *slog.Logger) {
	l := From(ctx)
	if len(attrs) == 0 {
		return ctx, l
	}

	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	l = l.With(args...)

	return Into(ctx, l), l
}
