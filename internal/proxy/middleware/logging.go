package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/go-storefront/internal/httpclient"
	logctx "github.com/pribylovaa/go-storefront/pkg/log"
	"github.com/pribylovaa/go-storefront/pkg/redact"
)

// Logging кладёт в контекст логгер с request_id и пишет одну запись "http"
// на запрос. 5xx пишутся с уровнем Warn. Заголовки логируются только на Debug
// и только через redact.Headers.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logctx.Into(r.Context(), l)

			var attrs []slog.Attr
			if rid := httpclient.RequestIDFrom(ctx); rid != "" {
				attrs = append(attrs, slog.String("request_id", rid))
			}
			ctx, rl := logctx.With(ctx, attrs...)

			if rl.Enabled(ctx, slog.LevelDebug) {
				rl.DebugContext(ctx, "http_request", slog.Any("headers", redact.Headers(r.Header)))
			}

			rec := wrap(w)
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))

			lvl := slog.LevelInfo
			if rec.Status() >= http.StatusInternalServerError {
				lvl = slog.LevelWarn
			}

			rl.LogAttrs(ctx, lvl, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.Status()),
				slog.Duration("dur", time.Since(start)),
				slog.Int64("bytes", rec.bytes),
			)
		})
	}
}
