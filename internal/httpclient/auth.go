package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-storefront/internal/tokenstore"
	"github.com/pribylovaa/go-storefront/pkg/log"
)

// DefaultMaxReplayBody — сколько байт тела без GetBody буферизуется ради повтора.
const DefaultMaxReplayBody = 10 << 20

// authPaths — эндпоинты, 401 от которых не запускает обновление пары.
var authPaths = []string{PathLogin, PathRegister, PathRefresh}

// IsAuthEndpoint — путь содержит один из эндпоинтов аутентификации.
func IsAuthEndpoint(path string) bool {
	for _, p := range authPaths {
		if strings.Contains(path, p) {
			return true
		}
	}

	return false
}

// AuthTransport подставляет Authorization: Bearer <access> и переживает
// истечение access-токена.
//
// На 401 от обычного эндпоинта при первой попытке:
//  1. через Coordinator выполняет (или дожидается) одно общее обновление;
//  2. повторяет запрос один раз с новым токеном; его исход окончательный.
//
// Без изменений возвращаются: сетевые ошибки, не-401 ответы, 401 от
// эндпоинтов аутентификации и 401 на уже повторённый запрос.
// Если refresh-токена нет, вызывающий получает исходный 401.
//
// Тело без GetBody буферизуется не больше MaxReplayBody байт. Более длинное
// уходит потоком один раз: на 401 пара обновляется, но запрос не повторяется
// и вызывающий получает исходный 401.
type AuthTransport struct {
	Base          http.RoundTripper
	Store         tokenstore.Store
	Coordinator   *Coordinator
	Refresh       RefreshFunc
	Metrics       *Metrics
	MaxReplayBody int64 // 0 — DefaultMaxReplayBody
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}

	return http.DefaultTransport
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	const op = "httpclient.auth.RoundTrip"

	ctx := req.Context()

	limit := t.MaxReplayBody
	if limit <= 0 {
		limit = DefaultMaxReplayBody
	}

	out, canReplay, err := replayable(req, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rp, retried := replayFrom(ctx)

	token := rp.token
	if !retried {
		pair, err := t.Store.Get(ctx)
		if err != nil {
			closeBody(out)
			return nil, fmt.Errorf("%s: read store: %w", op, err)
		}
		token = pair.AccessToken
	}
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base().RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if retried {
		t.Metrics.replayed(resp.StatusCode)
	}

	if resp.StatusCode != http.StatusUnauthorized || IsAuthEndpoint(out.URL.Path) || retried {
		return resp, nil
	}

	l := log.From(ctx).With(slog.String("op", op))

	pair, err := t.Coordinator.Run(ctx, t.Refresh)
	if err != nil {
		if errors.Is(err, ErrNoRefreshToken) {
			return resp, nil
		}

		discard(resp)
		return nil, err
	}

	if !canReplay {
		l.Debug("replay_skipped", slog.String("reason", "body not rewindable"))
		return resp, nil
	}

	discard(resp)

	next, err := rewind(out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	l.Debug("replay", slog.String("method", next.Method), slog.String("path", next.URL.Path))

	return t.RoundTrip(next.WithContext(withReplay(ctx, pair.AccessToken)))
}

// replayable клонирует запрос и гарантирует, что его тело можно прочитать
// повторно (через GetBody). Тело без GetBody буферизуется в память, если
// укладывается в limit; иначе прочитанный префикс склеивается с остатком
// и запрос помечается как неповторяемый.
func replayable(req *http.Request, limit int64) (*http.Request, bool, error) {
	out := req.Clone(req.Context())

	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return out, true, nil
	}

	data, err := io.ReadAll(io.LimitReader(req.Body, limit+1))
	if err != nil {
		_ = req.Body.Close()
		return nil, false, fmt.Errorf("buffer request body: %w", err)
	}

	if int64(len(data)) > limit {
		out.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(data), req.Body), req.Body}
		out.GetBody = nil
		return out, false, nil
	}
	_ = req.Body.Close()

	out.Body = io.NopCloser(bytes.NewReader(data))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	out.ContentLength = int64(len(data))

	return out, true, nil
}

// rewind — копия запроса со свежим телом для повторной отправки.
func rewind(req *http.Request) (*http.Request, error) {
	next := req.Clone(req.Context())
	next.Header.Del("Authorization")

	if req.GetBody == nil {
		return next, nil
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewind request body: %w", err)
	}
	next.Body = body

	return next, nil
}

// discard дочитывает и закрывает тело, чтобы соединение вернулось в пул.
func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}

var _ http.RoundTripper = (*AuthTransport)(nil)
