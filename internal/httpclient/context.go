package httpclient

import "context"

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxReplay
)

// replay — отметка повторной отправки после обновления пары.
type replay struct {
	token string
}

// WithRequestID кладёт X-Request-Id в контекст исходящих запросов.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxRequestID, rid)
}

// RequestIDFrom — X-Request-Id из контекста ("" если нет).
func RequestIDFrom(ctx context.Context) string {
	rid, _ := ctx.Value(ctxRequestID).(string)
	return rid
}

func withReplay(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxReplay, replay{token: token})
}

func replayFrom(ctx context.Context) (replay, bool) {
	r, ok := ctx.Value(ctxReplay).(replay)
	return r, ok
}

// IsRetried — запрос уже повторно отправлялся после обновления пары.
func IsRetried(ctx context.Context) bool {
	_, ok := replayFrom(ctx)
	return ok
}
