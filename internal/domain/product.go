package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductRecord хранит товар в том виде, в котором его прислал сканер.
type ProductRecord struct {
	Body    json.RawMessage
	AddedAt time.Time
}

// Text принимает из JSON как строку, так и число: сканер присылает id числом,
// а цены строками.
type Text string

// UnmarshalJSON реализует json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*t = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	case data[0] == '{', data[0] == '[':
		return fmt.Errorf("text field: unexpected %c", data[0])
	default:
		// числа и true/false сохраняем как есть
		*t = Text(data)
		return nil
	}
}

// String возвращает значение как строку.
func (t Text) String() string { return string(t) }

// Product описывает товар на стороне табло.
type Product struct {
	ID      Text `json:"id"`
	Name    Text `json:"name"`
	Price   Text `json:"price"`
	Taken   Text `json:"taken"`
	Unit    Text `json:"unit"`
	Payable Text `json:"payable"`
}

// ImagePath возвращает путь к картинке товара внутри UI.
func (p Product) ImagePath() string {
	return "asset/img/" + p.ID.String() + ".jpg"
}

// DecodeProducts разбирает JSON-массив товаров. Элементы, которые не удалось
// разобрать как объект, превращаются в пустой Product: количество элементов
// всегда совпадает с длиной массива.
func DecodeProducts(data []byte) ([]Product, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	products := make([]Product, len(raw))
	for i, item := range raw {
		var p Product
		if err := json.Unmarshal(item, &p); err == nil {
			products[i] = p
		}
	}
	return products, nil
}

var amountPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount разбирает денежную строку по правилам parseFloat: берётся самый
// длинный числовой префикс, остальное игнорируется ("12.5kg" -> 12.5).
func ParseAmount(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	match := amountPrefix.FindString(trimmed)
	if match == "" {
		return decimal.Zero, fmt.Errorf("%q: %w", s, ErrPayableInvalid)
	}

	// Вне диапазона float64 parseFloat даёт Infinity или 0. Порядок числа
	// ограничен, иначе decimal строит огромное целое.
	f, err := strconv.ParseFloat(match, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return decimal.Zero, fmt.Errorf("%q: %w", s, ErrPayableInvalid)
	}
	if math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%q: out of range: %w", s, ErrPayableInvalid)
	}
	if f == 0 {
		return decimal.Zero, nil
	}

	// decimal не принимает "5." и "+5"
	match = strings.TrimPrefix(match, "+")
	match = strings.Replace(match, ".e", "e", 1)
	match = strings.Replace(match, ".E", "E", 1)
	match = strings.TrimSuffix(match, ".")

	d, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", s, ErrPayableInvalid)
	}
	return d, nil
}

// Total суммирует payable по всем товарам. Некорректные значения учитываются
// как ноль и возвращаются в виде объединённой ошибки; сумма при этом валидна.
func Total(products []Product) (decimal.Decimal, error) {
	total := decimal.Zero
	var errs []error
	for i, p := range products {
		amount, err := ParseAmount(p.Payable.String())
		if err != nil {
			errs = append(errs, fmt.Errorf("product[%d]: %w", i, err))
			continue
		}
		total = total.Add(amount)
	}
	return total, errors.Join(errs...)
}

// FormatAmount форматирует сумму с двумя знаками после запятой.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
