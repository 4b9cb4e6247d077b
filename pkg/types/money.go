package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices are stored and served as JSON numbers, matching the data files.
	decimal.MarshalJSONWithoutQuotes = true
}

// PriceScale is the number of fraction digits kept for prices and totals.
const PriceScale = 2

// RoundPrice rounds d half away from zero to PriceScale digits.
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PriceScale)
}

// ParsePrice parses a price from user input. Empty input is an error.
func ParsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("price is empty")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", raw)
	}
	return d, nil
}

// SumPrices returns the sum of price*quantity pairs, rounded to PriceScale.
func SumPrices[T any](items []T, price func(T) decimal.Decimal, quantity func(T) int) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(price(it).Mul(decimal.NewFromInt(int64(quantity(it)))))
	}
	return RoundPrice(total)
}
