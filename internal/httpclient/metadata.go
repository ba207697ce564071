package httpclient

import "net/http"

// MetadataTransport — добавляет в исходящий запрос заголовки:
//   - X-Request-Id (если есть в контексте и ещё не задан),
//   - User-Agent (если передан и не задан вызывающим),
//   - Accept: application/json (если не задан).
type MetadataTransport struct {
	Next      http.RoundTripper
	UserAgent string
}

func (t *MetadataTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	if out.Header.Get("X-Request-Id") == "" {
		if rid := RequestIDFrom(req.Context()); rid != "" {
			out.Header.Set("X-Request-Id", rid)
		}
	}
	if t.UserAgent != "" && out.Header.Get("User-Agent") == "" {
		out.Header.Set("User-Agent", t.UserAgent)
	}
	if out.Header.Get("Accept") == "" {
		out.Header.Set("Accept", "application/json")
	}

	return t.Next.RoundTrip(out)
}
