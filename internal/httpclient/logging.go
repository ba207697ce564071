package httpclient

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-storefront/pkg/log"
)

// LoggingTransport — логирование исходящих HTTP-запросов.
// Поведение:
//   - берёт X-Request-Id из заголовка или контекста (или генерирует UUID);
//   - кладёт request_id в заголовок и контекст, обогащённый логгер — в контекст (pkg/log);
//   - пишет одну финальную запись: msg="http", status, dur (Warn на сетевую ошибку и 5xx).
//
// Тела и чувствительные заголовки не логируются.
type LoggingTransport struct {
	Next    http.RoundTripper
	Logger  *slog.Logger
	Metrics *Metrics
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	ctx := req.Context()

	base := t.Logger
	if base == nil {
		base = log.From(ctx)
	}

	rid := req.Header.Get("X-Request-Id")
	if rid == "" {
		rid = RequestIDFrom(ctx)
	}
	if rid == "" {
		rid = uuid.NewString()
	}

	ctx, l := log.With(log.Into(WithRequestID(ctx, rid), base),
		slog.String("request_id", rid),
		slog.String("method", req.Method),
		slog.String("host", req.URL.Host),
		slog.String("path", req.URL.Path),
	)

	out := req.Clone(ctx)
	out.Header.Set("X-Request-Id", rid)

	resp, err := t.Next.RoundTrip(out)
	dur := time.Since(start)

	if err != nil {
		t.Metrics.observeRequest(req.Method, 0, dur)
		l.Warn("http", slog.String("err", err.Error()), slog.Duration("dur", dur))
		return nil, err
	}

	t.Metrics.observeRequest(req.Method, resp.StatusCode, dur)

	lvl := slog.LevelInfo
	if resp.StatusCode >= http.StatusInternalServerError {
		lvl = slog.LevelWarn
	}
	l.Log(ctx, lvl, "http",
		slog.Int("status", resp.StatusCode),
		slog.Duration("dur", dur),
	)

	return resp, nil
}
