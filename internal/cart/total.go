package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// lenientPrice parses a stored price snapshot. Snapshots are raw text copied
// from the catalog at add time, so old rows can carry currency symbols or
// garbage; anything unparseable counts as zero rather than failing the cart.
func lenientPrice(raw string) decimal.Decimal {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return value
}

// normalizeQuantity treats anything below one as a single unit for totaling.
func normalizeQuantity(quantity int) int {
	if quantity < 1 {
		return 1
	}
	return quantity
}

// Total sums price x quantity across the lines using the lenient parse rules.
func Total(items []ItemDTO) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt(int64(normalizeQuantity(item.Quantity)))
		total = total.Add(lenientPrice(item.Price).Mul(qty))
	}
	return total
}
