package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/qrcode"
)

const (
	DefaultQRDisplay      = 10 * time.Second
	DefaultSuccessDisplay = 3 * time.Second
)

// QRFetcher получает картинку QR-кода для текста. Реализуется *qrcode.Client.
type QRFetcher interface {
	Fetch(ctx context.Context, text string) (qrcode.Image, error)
}

// CheckoutOptions задаёт параметры сценария оплаты.
type CheckoutOptions struct {
	QRDisplay      time.Duration
	SuccessDisplay time.Duration
	// RecordOrder отправляет запись об оплате на /checkout.
	RecordOrder bool
	// ConsistentClear очищает список только если он не менялся с момента
	// расчёта суммы.
	ConsistentClear bool
	Logger          *log.Entry
	Metrics         *metrics.BoardMetrics
}

// CheckoutFlow проводит оплату от подсчёта суммы до сброса табло.
type CheckoutFlow struct {
	api   API
	qr    QRFetcher
	board *Board
	opts  CheckoutOptions
	now   func() time.Time
}

// NewCheckoutFlow создаёт сценарий оплаты.
func NewCheckoutFlow(api API, qr QRFetcher, board *Board, opts CheckoutOptions) *CheckoutFlow {
	if opts.QRDisplay <= 0 {
		opts.QRDisplay = DefaultQRDisplay
	}
	if opts.SuccessDisplay <= 0 {
		opts.SuccessDisplay = DefaultSuccessDisplay
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "board-checkout")
	}
	return &CheckoutFlow{api: api, qr: qr, board: board, opts: opts, now: time.Now}
}

// Run проводит одну оплату. Любая ошибка логируется и останавливает сценарий
// без повторов; экран возвращается к списку товаров.
func (f *CheckoutFlow) Run(ctx context.Context) error {
	if err := f.board.beginCheckout(); err != nil {
		return err
	}

	started := f.now()
	err := f.run(ctx)
	switch {
	case err == nil:
		f.opts.Metrics.RecordCheckout("completed", f.now().Sub(started))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		f.board.abortCheckout()
		f.opts.Metrics.RecordCheckout("canceled", f.now().Sub(started))
		f.opts.Logger.WithError(err).Info("checkout canceled")
	default:
		f.board.abortCheckout()
		f.opts.Metrics.RecordCheckout("failed", f.now().Sub(started))
		f.opts.Logger.WithError(err).Error("checkout failed")
	}
	return err
}

func (f *CheckoutFlow) run(ctx context.Context) error {
	logger := f.opts.Logger

	list, err := f.api.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("load final products: %w", err)
	}

	total, err := domain.Total(list.Products)
	if err != nil {
		logger.WithError(err).Warn("some payables are not numbers, counted as zero")
	}

	if f.opts.RecordOrder {
		order := domain.CheckoutOrder{
			ID:        uuid.NewString(),
			Total:     domain.FormatAmount(total),
			Currency:  f.board.Currency(),
			Items:     list.Products,
			CreatedAt: f.now().UTC(),
		}
		if err := f.api.RecordCheckout(ctx, order); err != nil {
			logger.WithError(err).WithField("order_id", order.ID).Warn("failed to record order")
		}
	}

	text := qrcode.PayableText(f.board.Currency(), total)
	image, err := f.qr.Fetch(ctx, text)
	if err != nil {
		return fmt.Errorf("fetch payment qr: %w", err)
	}

	f.board.showQR(text, image)
	logger.WithFields(log.Fields{
		"total":    domain.FormatAmount(total),
		"products": len(list.Products),
	}).Info("payment qr shown")

	if err := sleep(ctx, f.opts.QRDisplay); err != nil {
		return err
	}

	f.board.showSuccess()
	f.clear(ctx, list.Version)

	if err := sleep(ctx, f.opts.SuccessDisplay); err != nil {
		return err
	}

	f.board.finishCheckout()
	return nil
}

// clear очищает список на сервере. Ошибка не прерывает сброс табло.
func (f *CheckoutFlow) clear(ctx context.Context, version uint64) {
	var err error
	if f.opts.ConsistentClear {
		err = f.api.ClearProductsIfVersion(ctx, version)
	} else {
		err = f.api.ClearProducts(ctx)
	}

	switch {
	case err == nil:
		f.opts.Logger.Info("products cleared on server")
	case domain.IsVersionConflict(err):
		f.opts.Logger.WithError(err).Warn("products changed during checkout, list kept")
	default:
		f.opts.Logger.WithError(err).Error("failed to clear products")
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
