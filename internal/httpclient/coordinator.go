package httpclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pribylovaa/go-storefront/internal/tokenstore"
)

// RefreshFunc выполняет одно обновление пары и возвращает новую пару.
type RefreshFunc func(ctx context.Context) (tokenstore.Pair, error)

// errRefreshAborted — результат для ожидающих, если RefreshFunc запаниковала.
var errRefreshAborted = errors.New("token refresh aborted")

type refreshResult struct {
	pair tokenstore.Pair
	err  error
	seq  int // позиция в очереди, начиная с 1
}

// Coordinator гарантирует не более одного обновления пары одновременно.
//
// Первый вызов Run в цикле становится инициатором и выполняет RefreshFunc;
// все, кто пришёл пока обновление идёт, встают в очередь ожидания.
// По завершении очередь сбрасывается под мьютексом вместе с inProgress
// и затем раздаётся в порядке прихода (FIFO), ровно один раз.
type Coordinator struct {
	mu         sync.Mutex
	inProgress bool
	waiters    []chan refreshResult

	timeout time.Duration
	metrics *Metrics
}

// NewCoordinator: timeout — предел на один вызов RefreshFunc (0 — без предела).
func NewCoordinator(timeout time.Duration, m *Metrics) *Coordinator {
	return &Coordinator{timeout: timeout, metrics: m}
}

// Run выполняет обновление или дожидается уже идущего.
//
// RefreshFunc получает контекст, отвязанный от отмены ctx инициатора:
// отмена одного вызывающего не должна ронять всех ожидающих.
// Ожидающий с отменённым ctx возвращает ctx.Err(); его слот в очереди
// всё равно будет обслужен (канал буферизован).
func (c *Coordinator) Run(ctx context.Context, fn RefreshFunc) (tokenstore.Pair, error) {
	if ch, wait := c.join(); wait {
		c.metrics.refreshWaiter()
		r, err := await(ctx, ch)
		return r.pair, err
	}

	rctx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(rctx, c.timeout)
		defer cancel()
	}

	res := refreshResult{err: errRefreshAborted}
	defer func() { c.settle(res) }()

	res.pair, res.err = fn(rctx)

	return res.pair, res.err
}

// join либо ставит вызов в очередь идущего обновления (wait=true),
// либо делает его инициатором нового цикла.
func (c *Coordinator) join() (ch chan refreshResult, wait bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inProgress {
		ch = make(chan refreshResult, 1)
		c.waiters = append(c.waiters, ch)
		return ch, true
	}
	c.inProgress = true

	return nil, false
}

func await(ctx context.Context, ch <-chan refreshResult) (refreshResult, error) {
	select {
	case r := <-ch:
		return r, r.err
	case <-ctx.Done():
		return refreshResult{}, ctx.Err()
	}
}

// settle сбрасывает состояние и раздаёт результат очереди.
func (c *Coordinator) settle(res refreshResult) {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.inProgress = false
	c.mu.Unlock()

	for i, ch := range waiters {
		r := res
		r.seq = i + 1
		ch <- r
	}
}

// InProgress — идёт ли сейчас обновление.
func (c *Coordinator) InProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.inProgress
}

// Waiting — сколько вызовов ждут текущего обновления.
func (c *Coordinator) Waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.waiters)
}
