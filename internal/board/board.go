// Package board реализует клиент-табло: модель представления, опрос списка товаров
// и сценарий оплаты по QR-коду.
package board

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/qrcode"
)

// ErrCheckoutInProgress возвращается при повторном запуске оплаты, пока идёт текущая.
var ErrCheckoutInProgress = errors.New("checkout already in progress")

// DefaultCurrency используется в подписи кнопки и тексте QR.
const DefaultCurrency = "LKR"

const idleLabel = "CHECKOUT"

// Board хранит состояние табло. Все изменения сериализуются мьютексом,
// а Renderer вызывается под ним же, поэтому не должен обращаться к Board.
type Board struct {
	mu       sync.Mutex
	currency string
	renderer Renderer

	state  ViewState
	cards  []Card
	label  string
	total  decimal.Decimal
	cursor int

	qrText  string
	qrImage qrcode.Image

	checkoutRunning bool
	beforeCheckout  ViewState
	labelBefore     string
}

// New создаёт табло в состоянии Idle с курсором -1.
func New(currency string, renderer Renderer) *Board {
	if currency == "" {
		currency = DefaultCurrency
	}
	if renderer == nil {
		renderer = RendererFunc(func(Snapshot) {})
	}
	return &Board{
		currency: currency,
		renderer: renderer,
		state:    StateIdle,
		label:    idleLabel,
		cursor:   -1,
	}
}

// Currency возвращает валюту табло.
func (b *Board) Currency() string { return b.currency }

// Snapshot возвращает копию текущего состояния.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Cursor возвращает число отрисованных товаров минус один.
func (b *Board) Cursor() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// Apply применяет результат опроса по правилу сравнения длин:
// пустой список переводит в Idle, рост списка добавляет одну карточку
// (последний товар) и пересчитывает сумму. Пока идёт оплата, экран не меняется.
func (b *Board) Apply(products []domain.Product, total decimal.Decimal) TickResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.checkoutRunning {
		return TickSkipped
	}

	if len(products) == 0 {
		if b.state == StateIdle && len(b.cards) == 0 && b.cursor == -1 {
			return TickNoop
		}
		b.resetLocked()
		b.renderLocked()
		return TickIdle
	}

	if len(products) <= b.cursor+1 {
		return TickNoop
	}

	last := products[len(products)-1]
	b.state = StateActive
	b.total = total
	b.cards = append(b.cards, Card{Product: last, ImagePath: last.ImagePath()})
	b.label = activeLabel(b.currency, total)
	b.cursor++
	b.renderLocked()
	return TickRendered
}

// beginCheckout переводит табло в Loading.
func (b *Board) beginCheckout() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.checkoutRunning {
		return ErrCheckoutInProgress
	}
	b.checkoutRunning = true
	b.beforeCheckout = b.state
	b.labelBefore = b.label
	b.state = StateLoading
	b.label = ""
	b.renderLocked()
	return nil
}

func (b *Board) showQR(text string, image qrcode.Image) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateQR
	b.qrText = text
	b.qrImage = image
	b.renderLocked()
}

func (b *Board) showSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateSuccess
	b.qrText = ""
	b.qrImage = qrcode.Image{}
	b.renderLocked()
}

// finishCheckout сбрасывает табло в Idle после успешной оплаты.
func (b *Board) finishCheckout() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkoutRunning = false
	b.resetLocked()
	b.renderLocked()
}

// abortCheckout возвращает экран, который был до начала оплаты.
func (b *Board) abortCheckout() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.checkoutRunning {
		return
	}
	b.checkoutRunning = false
	b.state = b.beforeCheckout
	b.label = b.labelBefore
	b.qrText = ""
	b.qrImage = qrcode.Image{}
	b.renderLocked()
}

func (b *Board) resetLocked() {
	b.state = StateIdle
	b.cards = nil
	b.label = idleLabel
	b.total = decimal.Zero
	b.cursor = -1
	b.qrText = ""
	b.qrImage = qrcode.Image{}
}

func (b *Board) renderLocked() {
	b.renderer.Render(b.snapshotLocked())
}

func (b *Board) snapshotLocked() Snapshot {
	cards := make([]Card, len(b.cards))
	copy(cards, b.cards)
	return Snapshot{
		State:   b.state,
		Cards:   cards,
		Label:   b.label,
		Total:   b.total,
		Cursor:  b.cursor,
		QRText:  b.qrText,
		QRImage: b.qrImage,
	}
}

func activeLabel(currency string, total decimal.Decimal) string {
	return idleLabel + " " + currency + " " + domain.FormatAmount(total)
}
