package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
	"github.com/odyssey-pos/odyssey-pos/internal/ledger"
)

var hundred = decimal.NewFromInt(100)

// BuildIncomeStatement computes revenue (sum of subtotals) against the cost snapshot of
// every sold item. Items sold without a known cost contribute nothing to COGS.
func BuildIncomeStatement(sales []ledger.Sale) IncomeStatement {
	revenue := decimal.Zero
	cogs := decimal.Zero
	for _, sale := range sales {
		revenue = revenue.Add(sale.Subtotal)
		for _, item := range sale.Items {
			cogs = cogs.Add(item.LineCost())
		}
	}
	gross := revenue.Sub(cogs)
	margin := decimal.Zero
	if !revenue.IsZero() {
		margin = gross.Div(revenue).Mul(hundred).Round(2)
	}
	return IncomeStatement{
		Revenue:        revenue,
		COGS:           cogs,
		GrossProfit:    gross,
		NetIncome:      gross,
		GrossMarginPct: margin,
	}
}

// BuildBalanceSheet treats net income as cash and stock at cost as inventory.
// There are no liabilities, so equity equals total assets.
func BuildBalanceSheet(products []catalog.Product, sales []ledger.Sale) BalanceSheet {
	cash := BuildIncomeStatement(sales).NetIncome
	inventory := InventoryValuation(products).Total
	assets := cash.Add(inventory)
	return BalanceSheet{
		Cash:        cash,
		Inventory:   inventory,
		TotalAssets: assets,
		Liabilities: decimal.Zero,
		Equity:      assets,
	}
}

// BuildCashFlow reports operating cash: revenue in, cost of goods out. Tax collected is
// shown separately as a pass-through and is excluded from the net figure.
func BuildCashFlow(sales []ledger.Sale) CashFlowStatement {
	income := BuildIncomeStatement(sales)
	tax := decimal.Zero
	for _, sale := range sales {
		tax = tax.Add(sale.Tax)
	}
	return CashFlowStatement{
		OperatingInflow:  income.Revenue,
		OperatingOutflow: income.COGS,
		TaxCollected:     tax,
		NetCashFlow:      income.NetIncome,
	}
}

// MonthlyTrend buckets revenue and COGS per calendar month in loc, oldest first.
func MonthlyTrend(sales []ledger.Sale, loc *time.Location) []TrendPoint {
	if loc == nil {
		loc = time.UTC
	}
	points := make(map[string]*TrendPoint)
	for _, sale := range ledger.SortedByDate(sales) {
		at := sale.Date.In(loc)
		period := at.Format("2006-01")
		pt, ok := points[period]
		if !ok {
			pt = &TrendPoint{Period: period, Label: at.Format("January 2006"), Revenue: decimal.Zero, COGS: decimal.Zero}
			points[period] = pt
		}
		pt.Revenue = pt.Revenue.Add(sale.Subtotal)
		for _, item := range sale.Items {
			pt.COGS = pt.COGS.Add(item.LineCost())
		}
		pt.Sales++
	}
	out := make([]TrendPoint, 0, len(points))
	for _, pt := range points {
		pt.Net = pt.Revenue.Sub(pt.COGS)
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}
