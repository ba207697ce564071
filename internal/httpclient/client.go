// httpclient — аутентифицированный HTTP-клиент backend API витрины.
//
// Цепочка http.RoundTripper (снаружи внутрь):
//
//	LoggingTransport -> MetadataTransport -> TimeoutTransport -> AuthTransport -> base
//
// AuthTransport прозрачно переживает истечение access-токена: одно общее
// обновление пары на все одновременно упавшие с 401 запросы и однократный
// повтор каждого из них (см. Coordinator).
package httpclient

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pribylovaa/go-storefront/internal/config"
	"github.com/pribylovaa/go-storefront/internal/tokenstore"
)

// Client агрегирует http.Client с цепочкой транспортов и её состояние.
type Client struct {
	HTTP        *http.Client
	BaseURL     *url.URL
	Store       tokenstore.Store
	Coordinator *Coordinator
	Refresher   *Refresher
}

type options struct {
	base          http.RoundTripper
	logger        *slog.Logger
	metrics       *Metrics
	maxReplayBody int64
}

type Option func(*options)

// WithBaseTransport — нижний транспорт цепочки (по умолчанию http.DefaultTransport).
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithLogger — базовый логгер LoggingTransport (по умолчанию slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics — метрики клиента (по умолчанию не собираются).
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithMaxReplayBody — предел буферизации тела без GetBody (по умолчанию DefaultMaxReplayBody).
func WithMaxReplayBody(n int64) Option {
	return func(o *options) { o.maxReplayBody = n }
}

// New собирает клиент по конфигурации API.
func New(cfg config.APIConfig, store tokenstore.Store, opts ...Option) (*Client, error) {
	const op = "httpclient.New"

	if store == nil {
		return nil, fmt.Errorf("%s: nil token store", op)
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("%s: %w: %q", op, config.ErrInvalidBaseURL, cfg.BaseURL)
	}

	o := options{base: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	coord := NewCoordinator(cfg.RefreshTimeout, o.metrics)
	refresher := NewRefresher(o.base, base, cfg.UserAgent, store, o.metrics)

	var rt http.RoundTripper = &AuthTransport{
		Base:          o.base,
		Store:         store,
		Coordinator:   coord,
		Refresh:       refresher.Refresh,
		Metrics:       o.metrics,
		MaxReplayBody: o.maxReplayBody,
	}
	rt = &TimeoutTransport{Next: rt, D: cfg.Timeout}
	rt = &MetadataTransport{Next: rt, UserAgent: cfg.UserAgent}
	rt = &LoggingTransport{Next: rt, Logger: o.logger, Metrics: o.metrics}

	return &Client{
		HTTP:        &http.Client{Transport: rt},
		BaseURL:     base,
		Store:       store,
		Coordinator: coord,
		Refresher:   refresher,
	}, nil
}

// URL — абсолютный адрес эндпоинта API по относительному пути.
func (c *Client) URL(path string) *url.URL {
	return JoinPath(c.BaseURL, path)
}
