package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice(t *testing.T) {
	c := Default()

	tests := []struct {
		label     string
		grams     int64
		wantTaken int64
		payable   string
	}{
		{"chocolate", 35, 2, "100"},
		{"chocolate", 0, 1, "50"},
		{"Eno", 6, 1, "70"},
		{"toffee", 5, 2, "20"}, // 2.5 -> 2
		{"toffee", 7, 4, "40"}, // 3.5 -> 4
		{"stix", 70, 4, "160"},
		{" mentos packet ", 16, 3, "60"},
		{"nescafe packet", 9, 4, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			item, err := c.Price("7", tt.label, tt.grams)
			require.NoError(t, err)
			assert.Equal(t, "7", item.ID)
			assert.Equal(t, tt.wantTaken, item.Taken)
			assert.Equal(t, tt.payable, item.Payable.String())
			assert.Equal(t, "units", item.Unit)
		})
	}
}

func TestPrice_Errors(t *testing.T) {
	c := Default()

	_, err := c.Price("1", "banana", 100)
	require.ErrorIs(t, err, ErrUnknownLabel)

	_, err = c.Price("1", "eno", -5)
	require.Error(t, err)
}

func TestItemJSON(t *testing.T) {
	item, err := Default().Price("3", "eno", 12)
	require.NoError(t, err)

	data, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"3","name":"eno","price":70,"unit":"units","units":"units","taken":2,"payable":140}`, string(data))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, []string{"chocolate", "eno", "mentos packet", "nescafe packet", "stix", "toffee"}, Default().Labels())
	assert.Empty(t, New().Labels())
}
