package middleware

import (
	"log/slog"
	"net/http"

	logctx "github.com/pribylovaa/go-storefront/pkg/log"
)

// StripAuthorization удаляет из входящего запроса Authorization и
// Proxy-Authorization. Учётные данные к backend'у подставляет только
// клиент прокси из своего хранилища; фронт токенов не видит и не передаёт.
func StripAuthorization() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" || r.Header.Get("Proxy-Authorization") != "" {
				logctx.From(r.Context()).Debug("incoming_auth_stripped", slog.String("path", r.URL.Path))
				r.Header.Del("Authorization")
				r.Header.Del("Proxy-Authorization")
			}
			next.ServeHTTP(w, r)
		})
	}
}
