package board

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/client"
	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
)

// DefaultPollInterval задаёт период опроса списка товаров.
const DefaultPollInterval = 300 * time.Millisecond

// TickResult описывает итог одного тика опроса.
type TickResult string

const (
	TickIdle     TickResult = "idle"
	TickRendered TickResult = "rendered"
	TickNoop     TickResult = "noop"
	TickSkipped  TickResult = "skipped"
	TickFailed   TickResult = "failed"
)

// API описывает операции сервера, нужные табло. Реализуется *client.Client.
type API interface {
	ListProducts(ctx context.Context) (client.ProductList, error)
	ClearProducts(ctx context.Context) error
	ClearProductsIfVersion(ctx context.Context, version uint64) error
	RecordCheckout(ctx context.Context, order any) error
}

// Poller опрашивает сервер с фиксированным интервалом и обновляет Board.
type Poller struct {
	api      API
	board    *Board
	interval time.Duration
	logger   *log.Entry
	metrics  *metrics.BoardMetrics
}

// PollerOption настраивает Poller.
type PollerOption func(*Poller)

// WithPollInterval задаёт период опроса.
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPollerLogger задаёт logger.
func WithPollerLogger(logger *log.Entry) PollerOption {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPollerMetrics подключает метрики.
func WithPollerMetrics(m *metrics.BoardMetrics) PollerOption {
	return func(p *Poller) {
		p.metrics = m
	}
}

// NewPoller создаёт Poller.
func NewPoller(api API, board *Board, opts ...PollerOption) *Poller {
	p := &Poller{
		api:      api,
		board:    board,
		interval: DefaultPollInterval,
		logger:   log.WithField("component", "board-poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run тикает до отмены ctx. Первый тик происходит через interval после старта.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick выполняет один цикл опроса. Ошибка запроса логируется, тик пропускается.
func (p *Poller) Tick(ctx context.Context) TickResult {
	list, err := p.api.ListProducts(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.WithError(err).Warn("load products failed")
		}
		p.metrics.RecordPoll(string(TickFailed))
		return TickFailed
	}

	total, err := domain.Total(list.Products)
	if err != nil {
		p.logger.WithError(err).Debug("some payables are not numbers, counted as zero")
	}

	result := p.board.Apply(list.Products, total)
	p.metrics.RecordPoll(string(result))
	if result == TickRendered || result == TickIdle {
		p.metrics.SetRenderedCards(p.board.Cursor() + 1)
	}
	return result
}
