package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-storefront/internal/httpclient"
	"github.com/pribylovaa/go-storefront/internal/proxy/apierrors"
	"github.com/pribylovaa/go-storefront/internal/storefront"
	logctx "github.com/pribylovaa/go-storefront/pkg/log"
)

// hopHeaders — hop-by-hop заголовки (RFC 7230, 6.1), плюс учётные данные:
// их прокси не пробрасывает ни в одну сторону.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	"Authorization",
	"Cookie",
}

// Forward возвращает хендлер, пересылающий <basePath>/* в backend через
// аутентифицированный клиент: Authorization подставляет AuthTransport,
// истёкший access обновляется прозрачно.
//
// Маршруты /auth/* отклоняются: входом и выходом управляют /session/*.
// Тело длиннее maxBody (<=0 — storefront.MaxUploadSize) получает 413, в том
// числе chunked без Content-Length.
func (h *Handlers) Forward(basePath string, maxBody int64) http.HandlerFunc {
	basePath = strings.TrimRight(basePath, "/")
	if maxBody <= 0 {
		maxBody = storefront.MaxUploadSize
	}

	return func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(r.URL.Path, basePath)
		if rel == "" {
			rel = "/"
		}

		if httpclient.IsAuthEndpoint(rel) || strings.HasPrefix(rel, "/auth/") {
			apierrors.WriteError(w, r, apierrors.ErrAuthRoute)
			return
		}

		api := h.SF.API()
		target := api.URL(rel)
		target.RawQuery = r.URL.RawQuery

		if r.ContentLength > maxBody {
			apierrors.WriteError(w, r, &http.MaxBytesError{Limit: maxBody})
			return
		}

		var body io.Reader
		if r.Body != nil && r.ContentLength != 0 {
			body = http.MaxBytesReader(w, r.Body, maxBody)
		}

		out, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), body)
		if err != nil {
			apierrors.WriteError(w, r, apierrors.ErrBadRequest)
			return
		}
		copyHeaders(out.Header, r.Header)
		out.ContentLength = r.ContentLength

		resp, err := api.HTTP.Do(out)
		if err != nil {
			logctx.From(r.Context()).Warn("forward_failed",
				slog.String("path", rel),
				slog.String("err", err.Error()),
			)
			apierrors.WriteError(w, r, err)
			return
		}
		defer resp.Body.Close()

		copyHeaders(w.Header(), resp.Header)
		w.WriteHeader(resp.StatusCode)
		_, _ = io.Copy(w, resp.Body)
	}
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
	for _, k := range hopHeaders {
		dst.Del(k)
	}
	// Set-Cookie backend'а относится к его домену, не к прокси.
	dst.Del("Set-Cookie")
}
