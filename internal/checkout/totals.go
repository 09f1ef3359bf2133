package checkout

import (
	"github.com/shopspring/decimal"
)

// pricedLine is a cart line after server-side price resolution.
type pricedLine struct {
	item           LineItem
	title          string
	unitPriceCents int
}

// computeTotalCents sums the lines with exact decimal arithmetic. Prices
// stay in integer cents end to end; decimals keep the intermediate
// per-line products exact.
func computeTotalCents(lines []pricedLine) int {
	total := decimal.Zero
	for _, line := range lines {
		lineTotal := decimal.NewFromInt(int64(line.unitPriceCents)).
			Mul(decimal.NewFromInt(int64(line.item.Qty)))
		total = total.Add(lineTotal)
	}
	return int(total.IntPart())
}
