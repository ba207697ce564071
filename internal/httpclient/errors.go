package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrRefreshFailed — эндпоинт обновления отказал (не-2xx, неполная пара,
	// сетевая ошибка). Пара в хранилище очищена, нужна повторная аутентификация.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrNoRefreshToken — обновлять нечем: refresh-токена в хранилище нет.
	// Вызывающему возвращается исходный 401.
	ErrNoRefreshToken = errors.New("no refresh token")
)

// maxErrorBody — сколько байт тела ошибки читаем для разбора.
const maxErrorBody = 64 << 10

// HTTPError — не-2xx ответ backend'а в разобранном виде.
type HTTPError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	// Path — путь запроса, на который пришёл ответ.
	Path string
}

func (e *HTTPError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "http %d", e.Status)
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, ": %s", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " (request_id=%s)", e.RequestID)
	}

	return b.String()
}

// envelope — формат {"error":{"code","message","request_id"}}.
type envelope struct {
	Error *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

// nestError — формат {"statusCode":401,"message":"..."|[...],"error":"Unauthorized"}.
type nestError struct {
	StatusCode int             `json:"statusCode"`
	Message    json.RawMessage `json:"message"`
	Error      string          `json:"error"`
}

// FromResponse читает (до 64 КиБ) тело не-2xx ответа и собирает HTTPError.
// Тело не закрывается: это делает владелец ответа.
func FromResponse(resp *http.Response) *HTTPError {
	e := &HTTPError{
		Status:    resp.StatusCode,
		RequestID: resp.Header.Get("X-Request-Id"),
	}
	if resp.Request != nil && resp.Request.URL != nil {
		e.Path = resp.Request.URL.Path
	}

	if resp.Body == nil {
		e.Message = http.StatusText(resp.StatusCode)
		return e
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	parseErrorBody(e, data)

	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}

	return e
}

func parseErrorBody(e *HTTPError, data []byte) {
	if len(data) == 0 {
		return
	}

	// Формат json-конверта с объектом error.
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Error != nil {
		e.Code = env.Error.Code
		e.Message = env.Error.Message
		if env.Error.RequestID != "" {
			e.RequestID = env.Error.RequestID
		}
		return
	}

	var ne nestError
	if err := json.Unmarshal(data, &ne); err == nil && (ne.StatusCode != 0 || len(ne.Message) > 0) {
		e.Code = codeFromText(ne.Error)
		e.Message = messageFromRaw(ne.Message)
		return
	}

	// Не JSON: первая строка текста как сообщение.
	if txt := strings.TrimSpace(string(data)); txt != "" && !strings.HasPrefix(txt, "{") {
		if i := strings.IndexByte(txt, '\n'); i >= 0 {
			txt = txt[:i]
		}
		e.Message = txt
	}
}

// messageFromRaw — message бывает строкой или массивом строк (ошибки валидации).
func messageFromRaw(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}

	return ""
}

// codeFromText: "Bad Request" -> "bad_request".
func codeFromText(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// IsStatus — err содержит HTTPError с указанным статусом.
func IsStatus(err error, status int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == status
}
