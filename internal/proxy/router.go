// proxy — локальный аутентифицирующий прокси витрины.
//
// Фронт (SSR/SPA на том же хосте) ходит в прокси без токенов:
// /session/* управляет входом, <base_path>/* пересылается в backend
// с Authorization из хранилища прокси.
package proxy

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-storefront/internal/proxy/handlers"
	"github.com/pribylovaa/go-storefront/internal/proxy/middleware"
	"github.com/pribylovaa/go-storefront/internal/storefront"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // префикс пересылаемых в backend путей, по умолчанию "/api".
	MaxBody  int64  // предел тела пересылаемого запроса, по умолчанию storefront.MaxUploadSize.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(sf *storefront.Client, opts Options) http.Handler {
	if opts.BasePath == "" {
		opts.BasePath = "/api"
	}

	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(),          // до логирования: id попадает в attrs
		middleware.Logging(opts.Logger), // request-scoped логгер в контексте
		middleware.StripAuthorization(), // токены фронта не принимаются
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	h := handlers.New(sf)

	root.Route("/session", func(r chi.Router) {
		r.Get("/", h.Session)
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/logout", h.Logout)
	})

	root.Handle(opts.BasePath+"/*", h.Forward(opts.BasePath, opts.MaxBody))

	return root
}
