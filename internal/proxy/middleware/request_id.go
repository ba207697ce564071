package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-storefront/internal/httpclient"
)

const maxRequestIDLen = 128

// RequestID принимает X-Request-Id фронта, если он короткий и состоит из
// печатных ASCII, иначе выдаёт UUID. id пишется в ответ, в заголовок запроса
// и в контекст (httpclient.WithRequestID): исходящие вызовы к backend'у несут его же.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if !validRequestID(id) {
				id = uuid.NewString()
			}
			r.Header.Set("X-Request-Id", id)
			w.Header().Set("X-Request-Id", id)

			next.ServeHTTP(w, r.WithContext(httpclient.WithRequestID(r.Context(), id)))
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
