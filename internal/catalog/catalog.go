// Package catalog переводит распознанный сканером товар и вес в позицию чека.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownLabel возвращается, если товара нет в каталоге.
var ErrUnknownLabel = errors.New("unknown product label")

// Entry описывает фасованный товар: вес одной упаковки и цену за упаковку.
type Entry struct {
	Label     string
	PackGrams int64
	UnitPrice decimal.Decimal
}

// Catalog хранит таблицу цен весов.
type Catalog struct {
	entries map[string]Entry
}

// Default возвращает цены весов на кассе.
func Default() *Catalog {
	return New(
		Entry{Label: "chocolate", PackGrams: 17, UnitPrice: decimal.NewFromInt(50)},
		Entry{Label: "eno", PackGrams: 6, UnitPrice: decimal.NewFromInt(70)},
		Entry{Label: "mentos packet", PackGrams: 5, UnitPrice: decimal.NewFromInt(20)},
		Entry{Label: "nescafe packet", PackGrams: 2, UnitPrice: decimal.NewFromInt(25)},
		Entry{Label: "stix", PackGrams: 20, UnitPrice: decimal.NewFromInt(40)},
		Entry{Label: "toffee", PackGrams: 2, UnitPrice: decimal.NewFromInt(10)},
	)
}

// New создаёт каталог. Метки сравниваются без учёта регистра.
func New(entries ...Entry) *Catalog {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		c.entries[normalize(e.Label)] = e
	}
	return c
}

// Labels возвращает известные метки по алфавиту.
func (c *Catalog) Labels() []string {
	labels := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		labels = append(labels, e.Label)
	}
	sort.Strings(labels)
	return labels
}

// Item описывает позицию чека в формате, который ждёт табло.
type Item struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Price   json.Number `json:"price"`
	Unit    string      `json:"unit"`
	Units   string      `json:"units"`
	Taken   int64       `json:"taken"`
	Payable json.Number `json:"payable"`
}

// Price считает количество упаковок по весу и сумму к оплате.
// Количество округляется до ближайшего целого (половина к чётному), минимум 1.
func (c *Catalog) Price(id, label string, grams int64) (Item, error) {
	entry, ok := c.entries[normalize(label)]
	if !ok {
		return Item{}, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	if grams < 0 {
		return Item{}, fmt.Errorf("negative weight %d g", grams)
	}

	units := decimal.NewFromInt(grams).
		Div(decimal.NewFromInt(entry.PackGrams)).
		RoundBank(0).
		IntPart()
	if units < 1 {
		units = 1
	}

	payable := entry.UnitPrice.Mul(decimal.NewFromInt(units)).Round(2)
	return Item{
		ID:      id,
		Name:    entry.Label,
		Price:   json.Number(entry.UnitPrice.String()),
		Unit:    "units",
		Units:   "units",
		Taken:   units,
		Payable: json.Number(payable.String()),
	}, nil
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
