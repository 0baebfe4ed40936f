package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
	"github.com/odyssey-pos/odyssey-pos/internal/ledger"
)

// SalesBy groups every sold item by dimension and ranks groups by revenue.
// Dates are bucketed in loc; a nil loc means UTC.
func SalesBy(products []catalog.Product, sales []ledger.Sale, dim Dimension, loc *time.Location) []SalesGroup {
	if loc == nil {
		loc = time.UTC
	}
	index := productIndex(products)
	groups := make(map[string]*SalesGroup)
	for _, item := range flatten(sales) {
		key, label, ok := bucket(item, dim, index, loc)
		if !ok {
			continue
		}
		g, exists := groups[key]
		if !exists {
			g = &SalesGroup{Key: key, Label: label, Revenue: decimal.Zero}
			groups[key] = g
		}
		g.ItemsSold += item.Quantity
		g.Revenue = g.Revenue.Add(item.LineTotal())
	}

	out := make([]SalesGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func bucket(item flatItem, dim Dimension, index map[string]catalog.Product, loc *time.Location) (string, string, bool) {
	at := item.Date.In(loc)
	switch dim {
	case ByCategory:
		c := itemCategory(item.SaleItem, index).String()
		return c, c, true
	case ByProduct:
		return item.ProductID, item.Name, true
	case ByDay:
		day := at.Weekday().String()
		return day, day, true
	case ByWeek:
		start := WeekStart(at)
		return start.Format("2006-01-02"), "Week of " + start.Format("Jan 2, 2006"), true
	case ByMonth:
		return at.Format("2006-01"), at.Format("January 2006"), true
	case ByYear:
		year := at.Format("2006")
		return year, year, true
	default:
		return "", "", false
	}
}

// WeekStart returns midnight of the Monday that starts t's ISO week, in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}
