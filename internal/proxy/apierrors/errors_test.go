package apierrors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/pribylovaa/go-storefront/internal/httpclient"
	"github.com/pribylovaa/go-storefront/internal/storefront"
	"github.com/stretchr/testify/require"
)

func TestToHTTP_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"nil", nil, 500, "internal", "internal error"},
		{"proxy internal", fmt.Errorf("%w: panic", ErrInternal), 500, "internal", "internal error"},
		{"invalid argument", fmt.Errorf("op: %w", storefront.ErrInvalidArgument), 400, "invalid_argument", "invalid argument"},
		{"bad body", ErrBadRequest, 400, "invalid_argument", "invalid argument"},
		{"auth route", ErrAuthRoute, 403, "permission_denied", ErrAuthRoute.Error()},
		{"session expired", fmt.Errorf("op: %w", storefront.ErrSessionExpired), 401, "session_expired", "session expired"},
		{"refresh failed", fmt.Errorf("%w: x", httpclient.ErrRefreshFailed), 401, "session_expired", "session expired"},
		{"not authenticated", storefront.ErrNotAuthenticated, 401, "unauthenticated", "unauthenticated"},
		{"backend 404 with code", &httpclient.HTTPError{Status: 404, Code: "product_not_found", Message: "no such product"}, 404, "product_not_found", "no such product"},
		{"backend 409 bare", &httpclient.HTTPError{Status: 409}, 409, "already_exists", "already exists"},
		{"backend 418", &httpclient.HTTPError{Status: 418}, 418, "client_error", "I'm a teapot"},
		{"backend 503", &httpclient.HTTPError{Status: 503, Message: "db down"}, 502, "bad_gateway", "db down"},
		{"body too large", &url.Error{Op: "Post", URL: "http://api/files", Err: &http.MaxBytesError{Limit: 10}}, 413, "payload_too_large", "request body too large"},
		{"canceled", fmt.Errorf("op: %w", context.Canceled), StatusClientClosedRequest, "canceled", "canceled"},
		{"deadline", context.DeadlineExceeded, 504, "deadline_exceeded", "deadline exceeded"},
		{"network", errors.New("dial tcp: refused"), 502, "bad_gateway", "upstream unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, resp := ToHTTP(tt.err)
			require.Equal(t, tt.status, status)
			require.Equal(t, tt.code, resp.Error.Code)
			require.Equal(t, tt.msg, resp.Error.Message)
		})
	}
}

func TestWriteError_UsesRequestID(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("X-Request-Id", "rid-1")

	WriteError(rr, req, storefront.ErrSessionExpired)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var env ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Equal(t, "session_expired", env.Error.Code)
	require.Equal(t, "rid-1", env.Error.RequestID)
}
