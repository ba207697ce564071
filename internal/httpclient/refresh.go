package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/pribylovaa/go-storefront/internal/tokenstore"
	"github.com/pribylovaa/go-storefront/pkg/log"
	"github.com/pribylovaa/go-storefront/pkg/redact"
)

// Пути эндпоинтов аутентификации относительно базового URL API.
const (
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
	PathRefresh  = "/auth/refresh"
	PathLogout   = "/auth/logout"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse — тело ответа login/register/refresh.
type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Pair — ответ в виде пары для хранилища.
func (r TokenResponse) Pair() tokenstore.Pair {
	return tokenstore.Pair{AccessToken: r.Token, RefreshToken: r.RefreshToken}
}

// Refresher обменивает сохранённый refresh-токен на новую пару.
// Запрос идёт напрямую в base, минуя AuthTransport: эндпоинт обновления
// не должен сам попадать в цикл обновления.
type Refresher struct {
	base      http.RoundTripper
	endpoint  *url.URL
	userAgent string
	store     tokenstore.Store
	metrics   *Metrics
}

func NewRefresher(base http.RoundTripper, baseURL *url.URL, userAgent string, store tokenstore.Store, m *Metrics) *Refresher {
	if base == nil {
		base = http.DefaultTransport
	}

	return &Refresher{
		base:      base,
		endpoint:  JoinPath(baseURL, PathRefresh),
		userAgent: userAgent,
		store:     store,
		metrics:   m,
	}
}

// Refresh выполняет один цикл обновления.
//
// Результаты:
//   - новая пара сохранена и возвращена;
//   - ErrNoRefreshToken — refresh-токена нет, хранилище очищено;
//   - ErrRefreshFailed, обёрнутая вокруг *HTTPError или сетевой ошибки, —
//     хранилище очищено.
func (r *Refresher) Refresh(ctx context.Context) (tokenstore.Pair, error) {
	const op = "httpclient.refresh.Refresh"

	l := log.From(ctx).With(slog.String("op", op))

	cur, err := r.store.Get(ctx)
	if err != nil {
		r.metrics.refreshDone(RefreshFailure)
		return tokenstore.Pair{}, fmt.Errorf("%s: %w: read store: %w", op, ErrRefreshFailed, err)
	}

	if cur.RefreshToken == "" {
		r.clear(ctx, l)
		r.metrics.refreshDone(RefreshNoToken)
		l.Info("refresh_skipped", slog.String("reason", "no refresh token"))
		return tokenstore.Pair{}, fmt.Errorf("%s: %w", op, ErrNoRefreshToken)
	}

	l.Debug("refresh_started", slog.String("refresh_fp", redact.Fingerprint(cur.RefreshToken)))

	pair, err := r.exchange(ctx, cur.RefreshToken)
	if err == nil {
		err = r.store.Set(ctx, pair)
	}
	if err != nil {
		r.clear(ctx, l)
		r.metrics.refreshDone(RefreshFailure)
		l.Warn("refresh_failed", slog.String("err", err.Error()))
		return tokenstore.Pair{}, fmt.Errorf("%s: %w: %w", op, ErrRefreshFailed, err)
	}

	r.metrics.refreshDone(RefreshSuccess)
	l.Info("refresh_ok", slog.String("access_fp", redact.Fingerprint(pair.AccessToken)))

	return pair, nil
}

func (r *Refresher) exchange(ctx context.Context, refreshToken string) (tokenstore.Pair, error) {
	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return tokenstore.Pair{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return tokenstore.Pair{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	if rid := RequestIDFrom(ctx); rid != "" {
		req.Header.Set("X-Request-Id", rid)
	}

	resp, err := r.base.RoundTrip(req)
	if err != nil {
		return tokenstore.Pair{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return tokenstore.Pair{}, FromResponse(resp)
	}

	var tr TokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&tr); err != nil {
		return tokenstore.Pair{}, fmt.Errorf("decode refresh response: %w", err)
	}

	if tr.Token == "" || tr.RefreshToken == "" {
		return tokenstore.Pair{}, errors.New("refresh response: incomplete token pair")
	}

	return tr.Pair(), nil
}

func (r *Refresher) clear(ctx context.Context, l *slog.Logger) {
	if err := r.store.Clear(ctx); err != nil {
		l.Error("store_clear_failed", slog.String("err", err.Error()))
	}
}

// JoinPath добавляет p к пути base, сохраняя префикс (например, /api).
func JoinPath(base *url.URL, p string) *url.URL {
	u := *base
	u.Path = singleSlashJoin(base.Path, p)
	u.RawPath = ""
	return &u
}

func singleSlashJoin(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}

	aSlash := a[len(a)-1] == '/'
	bSlash := b[0] == '/'
	switch {
	case aSlash && bSlash:
		return a + b[1:]
	case !aSlash && !bSlash:
		return a + "/" + b
	}

	return a + b
}
