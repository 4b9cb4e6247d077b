package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalMarshalsAsNumber(t *testing.T) {
	raw, err := json.Marshal(struct {
		Price decimal.Decimal `json:"price"`
	}{Price: decimal.RequireFromString("12.99")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":12.99}`, string(raw))
}

func TestParsePrice(t *testing.T) {
	d, err := ParsePrice(" 15.5 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("15.5")))

	_, err = ParsePrice("")
	assert.Error(t, err)
	_, err = ParsePrice("cheap")
	assert.Error(t, err)
}

func TestSumPrices(t *testing.T) {
	type line struct {
		price decimal.Decimal
		qty   int
	}
	lines := []line{
		{price: decimal.RequireFromString("12.99"), qty: 2},
		{price: decimal.RequireFromString("0.015"), qty: 1},
	}
	total := SumPrices(lines, func(l line) decimal.Decimal { return l.price }, func(l line) int { return l.qty })
	assert.Equal(t, "26.00", total.StringFixed(2))
}
