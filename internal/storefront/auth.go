package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-storefront/internal/httpclient"
	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/tokenstore"
	"github.com/pribylovaa/go-storefront/pkg/log"
	"github.com/pribylovaa/go-storefront/pkg/redact"
)

// Login аутентифицирует пользователя и сохраняет выданную пару.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	const op = "storefront.auth.Login"

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, invalid(op, "email and password are required")
	}

	return c.authenticate(ctx, op, httpclient.PathLogin, email, models.LoginRequest{Email: email, Password: password})
}

// Register создаёт пользователя и сохраняет выданную пару.
func (c *Client) Register(ctx context.Context, in models.RegisterRequest) (*models.AuthResponse, error) {
	const op = "storefront.auth.Register"

	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return nil, invalid(op, "email and password are required")
	}

	return c.authenticate(ctx, op, httpclient.PathRegister, in.Email, in)
}

func (c *Client) authenticate(ctx context.Context, op, path, email string, in any) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.Do(ctx, http.MethodPost, path, nil, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair := tokenstore.Pair{AccessToken: out.Token, RefreshToken: out.RefreshToken}
	if err := c.api.Store.Set(ctx, pair); err != nil {
		return nil, fmt.Errorf("%s: store pair: %w", op, err)
	}

	log.From(ctx).Info("session_started",
		slog.String("op", op),
		slog.String("email", redact.Email(email)),
		slog.String("access_fp", redact.Fingerprint(out.Token)),
	)

	return &out, nil
}

// Refresh явно обновляет пару. Идёт через тот же Coordinator, что и
// автоматическое обновление по 401, поэтому не дублирует уже идущее.
func (c *Client) Refresh(ctx context.Context) error {
	const op = "storefront.auth.Refresh"

	_, err := c.api.Coordinator.Run(ctx, c.api.Refresher.Refresh)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, httpclient.ErrNoRefreshToken):
		return fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	case errors.Is(err, httpclient.ErrRefreshFailed):
		return fmt.Errorf("%s: %w: %w", op, ErrSessionExpired, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// Logout — best-effort: сервер уведомляется об отзыве refresh-токена,
// локальная пара очищается всегда. Ошибка сервера возвращается для
// логирования, но сессия к этому моменту уже закрыта.
func (c *Client) Logout(ctx context.Context) error {
	const op = "storefront.auth.Logout"

	pair, err := c.api.Store.Get(ctx)
	if err != nil {
		pair = tokenstore.Pair{}
	}

	var serverErr error
	if pair.RefreshToken != "" {
		serverErr = c.logoutServer(ctx)
	}

	if cerr := c.api.Store.Clear(ctx); cerr != nil {
		return fmt.Errorf("%s: clear store: %w", op, cerr)
	}

	l := log.From(ctx).With(slog.String("op", op))
	if serverErr != nil {
		l.Warn("logout_server_failed", slog.String("err", serverErr.Error()))
		return fmt.Errorf("%s: %w", op, serverErr)
	}

	l.Info("session_closed")

	return nil
}

// logoutServer отзывает refresh-токен на сервере. Тело собирается из
// хранилища при каждой отправке: если access истёк и AuthTransport обновил
// пару, повтор уходит уже с новым refresh-токеном.
func (c *Client) logoutServer(ctx context.Context) error {
	body := func() (io.ReadCloser, error) {
		pair, err := c.api.Store.Get(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(models.LogoutRequest{RefreshToken: pair.RefreshToken})
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	first, err := body()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.api.URL(httpclient.PathLogout).String(), first)
	if err != nil {
		return err
	}
	req.GetBody = body
	req.Header.Set("Content-Type", "application/json")

	return c.exchange(ctx, req, nil)
}
