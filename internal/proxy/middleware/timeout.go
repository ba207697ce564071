package middleware

import (
	"context"
	"net/http"
	"time"
)

// HeaderRequestTimeout — фронт может попросить дедлайн короче серверного
// (Go duration, например "2s").
const HeaderRequestTimeout = "X-Request-Timeout"

// Timeout ограничивает обработку запроса сроком d; d<=0 — no-op.
// Уже заданный дедлайн не меняется. X-Request-Timeout сокращает d, но не
// увеличивает; в backend этот заголовок не уходит.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := d
			if v := r.Header.Get(HeaderRequestTimeout); v != "" {
				r.Header.Del(HeaderRequestTimeout)
				if asked, err := time.ParseDuration(v); err == nil && asked > 0 && asked < limit {
					limit = asked
				}
			}

			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
