package domain

import "github.com/shopspring/decimal"

func init() {
	// Prices are emitted as JSON numbers; clients format them directly.
	decimal.MarshalJSONWithoutQuotes = true
}

// Sum adds up prices.
func Sum(prices ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, p := range prices {
		total = total.Add(p)
	}
	return total
}
