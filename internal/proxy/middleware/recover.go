package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/pribylovaa/go-storefront/internal/proxy/apierrors"
	logctx "github.com/pribylovaa/go-storefront/pkg/log"
)

// Recover превращает panic обработчика в 500/internal без деталей паники.
// Если ответ уже начат (поток с backend'а), JSON не дописать: соединение
// обрывается через http.ErrAbortHandler.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := wrap(w)

			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "panic",
					slog.String("path", r.URL.Path),
					slog.Any("reason", v),
					slog.String("stack", string(debug.Stack())),
				)

				if rec.Started() {
					panic(http.ErrAbortHandler)
				}
				apierrors.WriteError(rec, r, apierrors.ErrInternal)
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
