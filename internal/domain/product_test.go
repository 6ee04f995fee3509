package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestDecodeProducts_MixedFieldTypes(t *testing.T) {
	raw := []byte(`[{"id":1,"name":"Rice","price":"250.00","taken":"2","unit":"kg","payable":"500.00"},
		{"id":"7","name":"Dhal","price":12.5,"taken":1,"unit":"pcs","payable":12.5}]`)

	products, err := domain.DecodeProducts(raw)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, domain.Text("1"), products[0].ID)
	assert.Equal(t, domain.Text("Rice"), products[0].Name)
	assert.Equal(t, domain.Text("500.00"), products[0].Payable)
	assert.Equal(t, "asset/img/1.jpg", products[0].ImagePath())

	assert.Equal(t, domain.Text("7"), products[1].ID)
	assert.Equal(t, domain.Text("12.5"), products[1].Price)
	assert.Equal(t, domain.Text("1"), products[1].Taken)
}

func TestDecodeProducts_KeepsLengthForOddElements(t *testing.T) {
	products, err := domain.DecodeProducts([]byte(`[{"name":"a"}, [1,2], {}, {"name":{"nested":true}}]`))
	require.NoError(t, err)
	require.Len(t, products, 4)
	assert.Equal(t, domain.Text("a"), products[0].Name)
	assert.Equal(t, domain.Product{}, products[1])
	assert.Equal(t, domain.Product{}, products[3])
}

func TestDecodeProducts_Empty(t *testing.T) {
	products, err := domain.DecodeProducts([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestDecodeProducts_NotArray(t *testing.T) {
	_, err := domain.DecodeProducts([]byte(`{"id":1}`))
	require.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  bool
	}{
		{in: "500.00", want: "500"},
		{in: "150.50", want: "150.5"},
		{in: "  42 ", want: "42"},
		{in: "12.5kg", want: "12.5"},
		{in: "5.", want: "5"},
		{in: ".25", want: "0.25"},
		{in: "-3.10", want: "-3.1"},
		{in: "+7", want: "7"},
		{in: "1e2", want: "100"},
		{in: "1,000", want: "1"},
		{in: "1e-9999999", want: "0"},
		{in: "0.0e5", want: "0"},
		{in: "1e9999999", err: true},
		{in: "-1e400", err: true},
		{in: "", err: true},
		{in: "abc", err: true},
		{in: "NaN", err: true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := domain.ParseAmount(tc.in)
			if tc.err {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrPayableInvalid))
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestTotal(t *testing.T) {
	cases := []struct {
		name     string
		payables []string
		want     string
	}{
		{name: "empty", payables: nil, want: "0.00"},
		{name: "single", payables: []string{"500.00"}, want: "500.00"},
		{name: "two", payables: []string{"500.00", "150.50"}, want: "650.50"},
		{name: "no float drift", payables: []string{"0.10", "0.20", "0.30"}, want: "0.60"},
		{name: "rounding", payables: []string{"1.005"}, want: "1.01"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			products := make([]domain.Product, 0, len(tc.payables))
			for _, p := range tc.payables {
				products = append(products, domain.Product{Payable: domain.Text(p)})
			}
			total, err := domain.Total(products)
			require.NoError(t, err)
			assert.Equal(t, tc.want, domain.FormatAmount(total))
		})
	}
}

func TestTotal_InvalidPayableCountsAsZero(t *testing.T) {
	products := []domain.Product{
		{Payable: "10.00"},
		{Payable: "oops"},
		{Payable: "2.50"},
	}

	total, err := domain.Total(products)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPayableInvalid)
	assert.Equal(t, "12.50", domain.FormatAmount(total))
}

func TestTotal_HugeExponentCountsAsZero(t *testing.T) {
	products := []domain.Product{
		{Payable: "1.00"},
		{Payable: "1e999999999"},
	}

	total, err := domain.Total(products)
	require.ErrorIs(t, err, domain.ErrPayableInvalid)
	assert.Equal(t, "1.00", domain.FormatAmount(total))
}
