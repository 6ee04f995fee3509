package domain

import (
	"encoding/json"
	"time"
)

// OrderRecord хранит запись о проведённой оплате. Тело заказа не типизировано
// и хранится в том виде, в котором пришло от клиента.
type OrderRecord struct {
	ID         string
	Body       json.RawMessage
	ReceivedAt time.Time
}

// CheckoutOrder описывает заказ, который формирует табло при оформлении покупки.
type CheckoutOrder struct {
	ID        string    `json:"id"`
	Total     string    `json:"total"`
	Currency  string    `json:"currency"`
	Items     []Product `json:"items"`
	CreatedAt time.Time `json:"created_at"`
}
