package board

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/qrcode"
)

// ViewState перечисляет взаимоисключающие экраны табло.
type ViewState int

const (
	StateIdle ViewState = iota
	StateActive
	StateLoading
	StateQR
	StateSuccess
)

func (s ViewState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateLoading:
		return "loading"
	case StateQR:
		return "qr"
	case StateSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Card хранит карточку одного товара.
type Card struct {
	Product   domain.Product
	ImagePath string
}

// Snapshot хранит полное состояние табло после очередного изменения.
type Snapshot struct {
	State  ViewState
	Cards  []Card
	Label  string
	Total  decimal.Decimal
	Cursor int

	// Заполнены только в StateQR.
	QRText  string
	QRImage qrcode.Image
}
