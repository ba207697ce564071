// apierrors стандартизирует ответы об ошибках локального прокси.
// На вход принимает ошибку storefront/httpclient, на выход даёт:
//   - корректный HTTP-статус;
//   - короткий стабильный code и безопасное message.
//
// Ошибки backend'а (*httpclient.HTTPError) отдаются с их статусом и сообщением:
// прокси прозрачен для бизнес-ошибок витрины.
package apierrors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-storefront/internal/httpclient"
	"github.com/pribylovaa/go-storefront/internal/storefront"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

var (
	// ErrAuthRoute — прямой вызов /auth/* через прокси; учётными данными владеют /session/*.
	ErrAuthRoute = errors.New("auth routes are served by /session")
	// ErrBadRequest — тело запроса к прокси не разобрано.
	ErrBadRequest = errors.New("bad request")
	// ErrInternal — сбой самого прокси (panic в хендлере).
	ErrInternal = errors.New("internal")
)

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func resp(status int, code, msg string) (int, ErrorResponse) {
	return status, ErrorResponse{Error: APIError{Code: code, Message: msg}}
}

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal;
//   - локальные ошибки прокси и storefront — по таблице ниже;
//   - *http.MaxBytesError — 413/payload_too_large;
//   - *httpclient.HTTPError — статус backend'а, его code (или code по статусу) и message;
//   - отмена/дедлайн — 499/504;
//   - прочее (сеть до backend'а) — 502/bad_gateway без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	switch {
	case err == nil, errors.Is(err, ErrInternal):
		return resp(http.StatusInternalServerError, "internal", "internal error")
	case errors.Is(err, ErrBadRequest), errors.Is(err, storefront.ErrInvalidArgument):
		return resp(http.StatusBadRequest, "invalid_argument", "invalid argument")
	case errors.Is(err, ErrAuthRoute):
		return resp(http.StatusForbidden, "permission_denied", ErrAuthRoute.Error())
	case errors.Is(err, storefront.ErrSessionExpired), errors.Is(err, httpclient.ErrRefreshFailed):
		return resp(http.StatusUnauthorized, "session_expired", "session expired")
	case errors.Is(err, storefront.ErrNotAuthenticated):
		return resp(http.StatusUnauthorized, "unauthenticated", "unauthenticated")
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return resp(http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
	}

	var he *httpclient.HTTPError
	if errors.As(err, &he) {
		status, code, msg := baseFromStatus(he.Status)
		if he.Code != "" {
			code = he.Code
		}
		if he.Message != "" {
			msg = he.Message
		}
		return resp(status, code, msg)
	}

	switch {
	case errors.Is(err, context.Canceled):
		return resp(StatusClientClosedRequest, "canceled", "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return resp(http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded")
	}

	return resp(http.StatusBadGateway, "bad_gateway", "upstream unavailable")
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// baseFromStatus — статус backend'а -> статус/FE-код/сообщение по умолчанию.
// 5xx backend'а отдаются как 502: прокси сам не падал.
func baseFromStatus(s int) (int, string, string) {
	switch s {
	case http.StatusBadRequest:
		return s, "invalid_argument", "invalid argument"
	case http.StatusUnauthorized:
		return s, "unauthenticated", "unauthenticated"
	case http.StatusForbidden:
		return s, "permission_denied", "permission denied"
	case http.StatusNotFound:
		return s, "not_found", "not found"
	case http.StatusConflict:
		return s, "already_exists", "already exists"
	case http.StatusUnprocessableEntity:
		return s, "failed_precondition", "failed precondition"
	case http.StatusTooManyRequests:
		return s, "resource_exhausted", "resource exhausted"
	}

	switch {
	case s >= 500:
		return http.StatusBadGateway, "bad_gateway", "upstream error"
	case s >= 400:
		return s, "client_error", http.StatusText(s)
	}

	return http.StatusInternalServerError, "internal", "internal error"
}
