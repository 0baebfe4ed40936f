package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
	"github.com/odyssey-pos/odyssey-pos/internal/ledger"
)

const week = 7 * 24 * time.Hour

// ItemPerformance totals units and revenue per product. Catalog products come first in
// catalog order, including those never sold, followed by deleted products found in history.
func ItemPerformance(products []catalog.Product, sales []ledger.Sale) []ItemStat {
	stats := make(map[string]*ItemStat, len(products))
	order := make([]string, 0, len(products))
	for _, p := range products {
		stats[p.ID] = &ItemStat{ProductID: p.ID, Name: p.Name, Category: p.Category, Revenue: decimal.Zero, InCatalog: true}
		order = append(order, p.ID)
	}
	for _, sale := range sales {
		for _, item := range sale.Items {
			st, ok := stats[item.ProductID]
			if !ok {
				category := item.Category
				if category == "" {
					category = catalog.CategoryUncategorized
				}
				st = &ItemStat{ProductID: item.ProductID, Name: item.Name, Category: category, Revenue: decimal.Zero}
				stats[item.ProductID] = st
				order = append(order, item.ProductID)
			}
			st.ItemsSold += item.Quantity
			st.Revenue = st.Revenue.Add(item.LineTotal())
		}
	}
	out := make([]ItemStat, 0, len(order))
	for _, id := range order {
		out = append(out, *stats[id])
	}
	return out
}

// TopItems returns the n best sellers by units. n <= 0 means DefaultLimit.
func TopItems(stats []ItemStat, n int) []ItemStat {
	return rankItems(stats, n, func(a, b ItemStat) bool { return a.ItemsSold > b.ItemsSold })
}

// BottomItems returns the n worst sellers by units. n <= 0 means DefaultLimit.
func BottomItems(stats []ItemStat, n int) []ItemStat {
	return rankItems(stats, n, func(a, b ItemStat) bool { return a.ItemsSold < b.ItemsSold })
}

func rankItems(stats []ItemStat, n int, less func(a, b ItemStat) bool) []ItemStat {
	if n <= 0 {
		n = DefaultLimit
	}
	ranked := make([]ItemStat, len(stats))
	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// SalesDurationWeeks is the number of weeks since the earliest sale, never below one.
func SalesDurationWeeks(sales []ledger.Sale, now time.Time) float64 {
	if len(sales) == 0 {
		return 1
	}
	earliest := sales[0].Date
	for _, s := range sales[1:] {
		if s.Date.Before(earliest) {
			earliest = s.Date
		}
	}
	weeks := float64(now.Sub(earliest)) / float64(week)
	if weeks < 1 {
		return 1
	}
	return weeks
}

// Velocity ranks products (ByProduct) or categories (ByCategory) by units sold per week.
// Fast holds the top DefaultLimit by descending rate. Slow holds the bottom DefaultLimit,
// picked by ascending rate and presented in descending order.
func Velocity(products []catalog.Product, sales []ledger.Sale, dim Dimension, now time.Time) VelocityReport {
	weeks := SalesDurationWeeks(sales, now)
	var entries []VelocityEntry
	switch dim {
	case ByCategory:
		entries = categoryUnits(products, sales)
	default:
		for _, st := range ItemPerformance(products, sales) {
			entries = append(entries, VelocityEntry{Key: st.ProductID, Label: st.Name, Units: st.ItemsSold})
		}
	}
	for i := range entries {
		entries[i].Rate = float64(entries[i].Units) / weeks
	}

	fast := make([]VelocityEntry, len(entries))
	copy(fast, entries)
	sort.SliceStable(fast, func(i, j int) bool { return fast[i].Rate > fast[j].Rate })
	if len(fast) > DefaultLimit {
		fast = fast[:DefaultLimit]
	}

	slow := make([]VelocityEntry, len(entries))
	copy(slow, entries)
	sort.SliceStable(slow, func(i, j int) bool { return slow[i].Rate < slow[j].Rate })
	if len(slow) > DefaultLimit {
		slow = slow[:DefaultLimit]
	}
	for i, j := 0, len(slow)-1; i < j; i, j = i+1, j-1 {
		slow[i], slow[j] = slow[j], slow[i]
	}

	return VelocityReport{Weeks: weeks, Fast: fast, Slow: slow}
}

func categoryUnits(products []catalog.Product, sales []ledger.Sale) []VelocityEntry {
	index := productIndex(products)
	units := make(map[catalog.Category]int)
	var order []catalog.Category
	seen := func(c catalog.Category) {
		if _, ok := units[c]; !ok {
			units[c] = 0
			order = append(order, c)
		}
	}
	for _, p := range products {
		c := p.Category
		if c == "" {
			c = catalog.CategoryUncategorized
		}
		seen(c)
	}
	for _, sale := range sales {
		for _, item := range sale.Items {
			c := itemCategory(item, index)
			seen(c)
			units[c] += item.Quantity
		}
	}
	out := make([]VelocityEntry, 0, len(order))
	for _, c := range order {
		out = append(out, VelocityEntry{Key: c.String(), Label: c.String(), Units: units[c]})
	}
	return out
}
