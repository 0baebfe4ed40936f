package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
)

// ReorderList returns products at or below their reorder level, lowest stock first.
func ReorderList(products []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, 0)
	for _, p := range products {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out
}

// InventoryValuation sums cost times stock per category. Unknown cost counts as zero.
func InventoryValuation(products []catalog.Product) Valuation {
	byCategory := make(map[catalog.Category]*CategoryValuation)
	var order []catalog.Category
	total := decimal.Zero
	units := 0
	for _, p := range products {
		category := p.Category
		if category == "" {
			category = catalog.CategoryUncategorized
		}
		row, ok := byCategory[category]
		if !ok {
			row = &CategoryValuation{Category: category, Value: decimal.Zero}
			byCategory[category] = row
			order = append(order, category)
		}
		value := p.UnitCost().Mul(decimal.NewFromInt(int64(p.Stock)))
		row.Units += p.Stock
		row.Value = row.Value.Add(value)
		units += p.Stock
		total = total.Add(value)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	rows := make([]CategoryValuation, 0, len(order))
	for _, category := range order {
		rows = append(rows, *byCategory[category])
	}
	return Valuation{Categories: rows, TotalUnits: units, Total: total}
}
