// storefront — типизированный API витрины поверх аутентифицированного httpclient.
//
// Каждый метод — один вызов backend'а; бизнес-правила (корзина, заказы,
// стоимость доставки, аутентификация) живут только на стороне backend'а.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pribylovaa/go-storefront/internal/httpclient"
)

var (
	// ErrInvalidArgument — некорректные входные данные (пустой id, количество <= 0, ...).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotAuthenticated — в хранилище нет пары токенов (входа не было).
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionExpired — сессия потеряна (обновление не удалось или refresh-токена нет),
	// хранилище очищено; нужен повторный вход.
	ErrSessionExpired = errors.New("session expired")
)

// Client — типизированный клиент витрины.
type Client struct {
	api *httpclient.Client
}

func New(api *httpclient.Client) *Client {
	return &Client{api: api}
}

// API — нижележащий HTTP-клиент.
func (c *Client) API() *httpclient.Client { return c.api }

// Do выполняет JSON-вызов: in (если не nil) кодируется в тело, 2xx-ответ
// декодируется в out (если не nil). Не-2xx превращается в *httpclient.HTTPError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var (
		body        io.Reader
		contentType string
	)
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	return c.send(ctx, method, path, query, body, contentType, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	u := c.api.URL(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return c.exchange(ctx, req, out)
}

// exchange отправляет готовый запрос и разбирает ответ. Пара в хранилище
// до вызова отличает «сессию потеряли» от «сессии не было».
func (c *Client) exchange(ctx context.Context, req *http.Request, out any) error {
	before, serr := c.api.Store.Get(ctx)
	hadSession := serr != nil || !before.Empty()

	resp, err := c.api.HTTP.Do(req)
	if err != nil {
		return c.mapErr(ctx, err, hadSession)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapErr(ctx, httpclient.FromResponse(resp), hadSession)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// mapErr: отказ обновления и 401 после очистки хранилища — ErrSessionExpired;
// 401 без пары до вызова — ErrNotAuthenticated.
func (c *Client) mapErr(ctx context.Context, err error, hadSession bool) error {
	if errors.Is(err, httpclient.ErrRefreshFailed) {
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	var he *httpclient.HTTPError
	if errors.As(err, &he) && he.Status == http.StatusUnauthorized && !httpclient.IsAuthEndpoint(he.Path) {
		if !hadSession {
			return fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
		}
		if p, serr := c.api.Store.Get(ctx); serr == nil && p.Empty() {
			return fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
	}

	return err
}

func invalid(op, what string) error {
	return fmt.Errorf("%s: %w: %s", op, ErrInvalidArgument, what)
}
