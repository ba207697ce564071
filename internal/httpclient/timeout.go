package httpclient

import (
	"context"
	"io"
	"net/http"
	"time"
)

// TimeoutTransport навешивает таймаут D на исходящий запрос, если у контекста
// ещё нет дедлайна. Существующий дедлайн не переопределяется.
//
// Контракт:
//  1. D <= 0 — запрос уходит как есть;
//  2. у ctx уже есть deadline — оставляет как есть;
//  3. иначе — context.WithTimeout(ctx, D); cancel вызывается при ошибке
//     или при закрытии тела ответа (тело читается уже после RoundTrip).
type TimeoutTransport struct {
	Next http.RoundTripper
	D    time.Duration
}

func (t *TimeoutTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.D <= 0 {
		return t.Next.RoundTrip(req)
	}
	if _, ok := req.Context().Deadline(); ok {
		return t.Next.RoundTrip(req)
	}

	ctx, cancel := context.WithTimeout(req.Context(), t.D)

	resp, err := t.Next.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}

	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
