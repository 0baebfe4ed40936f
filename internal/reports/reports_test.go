package reports

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
	"github.com/odyssey-pos/odyssey-pos/internal/ledger"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func fixtureProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "1", Name: "Redbull", Category: "Drinks", Price: d("2.50"), Cost: dp("1.50"), Stock: 15, ReorderLevel: 10, ImageURL: "redbull.png"},
		{ID: "2", Name: "Shampoo", Category: "Personal Care", Price: d("5.00"), Cost: dp("3.00"), Stock: 25, ReorderLevel: 15, ImageURL: "shampoo.png"},
		{ID: "3", Name: "Powder Milk", Category: "Groceries", Price: d("8.75"), Cost: dp("5.50"), Stock: 8, ReorderLevel: 10},
		{ID: "4", Name: "Doritos", Category: "Snacks", Price: d("1.50"), Stock: 4, ReorderLevel: 12},
	}
}

func sale(id string, at time.Time, items ...ledger.SaleItem) ledger.Sale {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	tax := subtotal.Mul(d("0.16"))
	return ledger.Sale{ID: id, Items: items, Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax), Date: at}
}

// Monday 4 March 2024.
var monday = time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

func fixtureSales() []ledger.Sale {
	return []ledger.Sale{
		sale("SALE-1", monday,
			ledger.SaleItem{ProductID: "1", Name: "Redbull", Category: "Drinks", Price: d("2.50"), Cost: dp("1.50"), Quantity: 4},
			ledger.SaleItem{ProductID: "4", Name: "Doritos", Category: "Snacks", Price: d("1.50"), Quantity: 2},
		),
		sale("SALE-2", monday.AddDate(0, 0, 2),
			ledger.SaleItem{ProductID: "2", Name: "Shampoo", Category: "Personal Care", Price: d("5.00"), Cost: dp("3.00"), Quantity: 1},
		),
		sale("SALE-3", monday.AddDate(0, 1, 0),
			ledger.SaleItem{ProductID: "1", Name: "Redbull", Category: "Drinks", Price: d("2.00"), Cost: dp("1.50"), Quantity: 3},
			ledger.SaleItem{ProductID: "99", Name: "Discontinued Gum", Price: d("0.50"), Quantity: 10},
		),
	}
}

func TestReorderListBoundaries(t *testing.T) {
	products := []catalog.Product{
		{ID: "eq", Stock: 10, ReorderLevel: 10},
		{ID: "above", Stock: 11, ReorderLevel: 10},
		{ID: "below", Stock: 9, ReorderLevel: 10},
		{ID: "zero", Stock: 0, ReorderLevel: 0},
	}
	out := ReorderList(products)
	ids := make([]string, len(out))
	for i, p := range out {
		ids[i] = p.ID
	}
	require.Equal(t, []string{"zero", "below", "eq"}, ids)
	require.Empty(t, ReorderList(nil))
}

func TestInventoryValuation(t *testing.T) {
	v := InventoryValuation(fixtureProducts())
	require.Len(t, v.Categories, 4)
	require.Equal(t, catalog.Category("Drinks"), v.Categories[0].Category)
	require.True(t, v.Categories[0].Value.Equal(d("22.50")))
	require.True(t, v.Categories[3].Value.IsZero(), "missing cost counts as zero")
	require.True(t, v.Total.Equal(d("141.50")))
	require.Equal(t, 52, v.TotalUnits)
}

func TestEmptyHistoryScenario(t *testing.T) {
	products := fixtureProducts()

	require.Empty(t, SalesBy(products, nil, ByCategory, nil))
	income := BuildIncomeStatement(nil)
	require.True(t, income.Revenue.IsZero())
	require.True(t, income.NetIncome.IsZero())
	require.True(t, income.GrossMarginPct.IsZero())

	sheet := BuildBalanceSheet(products, nil)
	require.True(t, sheet.Inventory.Equal(InventoryValuation(products).Total))
	require.True(t, sheet.Cash.IsZero())

	require.Empty(t, MonthlyTrend(nil, nil))
	dash := BuildDashboard(products, nil)
	require.True(t, dash.TotalSales.IsZero())
	require.Equal(t, 0, dash.Transactions)
	require.Empty(t, dash.TopSellers)

	vel := Velocity(products, nil, ByProduct, monday)
	require.Equal(t, 1.0, vel.Weeks)
	require.Len(t, vel.Fast, 4)
	for _, e := range vel.Fast {
		require.Zero(t, e.Rate)
	}
}

func TestSalesByCategory(t *testing.T) {
	groups := SalesBy(fixtureProducts(), fixtureSales(), ByCategory, nil)
	require.Len(t, groups, 4)

	require.Equal(t, "Drinks", groups[0].Key)
	require.Equal(t, 7, groups[0].ItemsSold)
	require.True(t, groups[0].Revenue.Equal(d("16.00")))

	// Personal Care and Uncategorized tie at 5.00; key order breaks the tie.
	require.Equal(t, "Personal Care", groups[1].Key)
	require.Equal(t, "Uncategorized", groups[2].Key)
	require.Equal(t, "Snacks", groups[3].Key)
}

func TestSalesByTimeBuckets(t *testing.T) {
	sales := fixtureSales()

	months := SalesBy(nil, sales, ByMonth, nil)
	require.Len(t, months, 2)
	require.Equal(t, "2024-03", months[0].Key)
	require.Equal(t, "March 2024", months[0].Label)
	require.True(t, months[0].Revenue.Equal(d("18.00")))
	require.Equal(t, "2024-04", months[1].Key)

	weeks := SalesBy(nil, sales, ByWeek, nil)
	require.Equal(t, "2024-03-04", weeks[0].Key)
	require.Equal(t, 7, weeks[0].ItemsSold)

	days := SalesBy(nil, sales, ByDay, nil)
	require.Equal(t, []string{"Monday", "Thursday", "Wednesday"}, []string{days[0].Key, days[1].Key, days[2].Label})

	years := SalesBy(nil, sales, ByYear, nil)
	require.Len(t, years, 1)
	require.Equal(t, 20, years[0].ItemsSold)

	require.Empty(t, SalesBy(nil, sales, Dimension("hour"), nil))
}

func TestSalesByUsesLocation(t *testing.T) {
	late := time.Date(2024, 3, 31, 23, 30, 0, 0, time.UTC)
	sales := []ledger.Sale{sale("SALE-x", late, ledger.SaleItem{ProductID: "1", Price: d("1"), Quantity: 1})}
	loc := time.FixedZone("UTC+3", 3*60*60)

	require.Equal(t, "2024-03", SalesBy(nil, sales, ByMonth, nil)[0].Key)
	require.Equal(t, "2024-04", SalesBy(nil, sales, ByMonth, loc)[0].Key)
}

func TestWeekStart(t *testing.T) {
	sunday := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), WeekStart(sunday))
	require.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), WeekStart(monday))
}

func TestItemPerformanceAndRanking(t *testing.T) {
	stats := ItemPerformance(fixtureProducts(), fixtureSales())
	require.Len(t, stats, 5)
	require.Equal(t, "99", stats[4].ProductID)
	require.False(t, stats[4].InCatalog)
	require.Equal(t, catalog.CategoryUncategorized, stats[4].Category)
	require.Equal(t, 0, stats[2].ItemsSold)

	top := TopItems(stats, 2)
	require.Equal(t, []string{"99", "1"}, []string{top[0].ProductID, top[1].ProductID})
	require.True(t, top[1].Revenue.Equal(d("16.00")))

	bottom := BottomItems(stats, 0)
	require.Len(t, bottom, 5)
	require.Equal(t, "3", bottom[0].ProductID)
}

func TestTopItemsDefaultLimit(t *testing.T) {
	var stats []ItemStat
	for i := 0; i < 15; i++ {
		stats = append(stats, ItemStat{ProductID: fmt.Sprint(i), ItemsSold: i})
	}
	top := TopItems(stats, 0)
	require.Len(t, top, DefaultLimit)
	require.Equal(t, 14, top[0].ItemsSold)
}

func TestVelocity(t *testing.T) {
	now := monday.Add(4 * week)
	report := Velocity(fixtureProducts(), fixtureSales(), ByProduct, now)
	require.InDelta(t, 4.0, report.Weeks, 1e-9)
	require.Equal(t, "99", report.Fast[0].Key)
	require.InDelta(t, 2.5, report.Fast[0].Rate, 1e-9)
	require.InDelta(t, 1.75, report.Fast[1].Rate, 1e-9)

	// Slow picks the lowest rates and lists them fastest first.
	require.Len(t, report.Slow, 5)
	require.Equal(t, "3", report.Slow[len(report.Slow)-1].Key)
	for i := 1; i < len(report.Slow); i++ {
		require.GreaterOrEqual(t, report.Slow[i-1].Rate, report.Slow[i].Rate)
	}

	byCategory := Velocity(fixtureProducts(), fixtureSales(), ByCategory, now)
	require.Equal(t, "Uncategorized", byCategory.Fast[0].Key)
	require.Equal(t, "Groceries", byCategory.Slow[len(byCategory.Slow)-1].Key)

	recent := Velocity(nil, fixtureSales(), ByProduct, monday.Add(24*time.Hour))
	require.Equal(t, 1.0, recent.Weeks)
}

func TestVelocityLimitsSlices(t *testing.T) {
	var products []catalog.Product
	var items []ledger.SaleItem
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("p%02d", i)
		products = append(products, catalog.Product{ID: id, Name: id, Category: "Bulk"})
		items = append(items, ledger.SaleItem{ProductID: id, Name: id, Price: d("1"), Quantity: i + 1})
	}
	report := Velocity(products, []ledger.Sale{sale("SALE-bulk", monday, items...)}, ByProduct, monday)
	require.Len(t, report.Fast, DefaultLimit)
	require.Len(t, report.Slow, DefaultLimit)
	require.Equal(t, "p24", report.Fast[0].Key)
	require.Equal(t, "p09", report.Slow[0].Key)
	require.Equal(t, "p00", report.Slow[DefaultLimit-1].Key)
}

func TestFinancialStatements(t *testing.T) {
	sales := fixtureSales()
	income := BuildIncomeStatement(sales)
	// Revenue 13.00 + 5.00 + 11.00; COGS 6.00 + 3.00 + 4.50.
	require.True(t, income.Revenue.Equal(d("29.00")))
	require.True(t, income.COGS.Equal(d("13.50")))
	require.True(t, income.GrossProfit.Equal(d("15.50")))
	require.True(t, income.NetIncome.Equal(income.GrossProfit))
	require.True(t, income.GrossMarginPct.Equal(d("53.45")))

	sheet := BuildBalanceSheet(fixtureProducts(), sales)
	require.True(t, sheet.Cash.Equal(d("15.50")))
	require.True(t, sheet.Inventory.Equal(d("141.50")))
	require.True(t, sheet.TotalAssets.Equal(d("157.00")))
	require.True(t, sheet.Equity.Equal(sheet.TotalAssets))
	require.True(t, sheet.Liabilities.IsZero())

	cash := BuildCashFlow(sales)
	require.True(t, cash.OperatingInflow.Equal(d("29.00")))
	require.True(t, cash.OperatingOutflow.Equal(d("13.50")))
	require.True(t, cash.TaxCollected.Equal(d("4.64")))
	require.True(t, cash.NetCashFlow.Equal(d("15.50")))
}

func TestMonthlyTrend(t *testing.T) {
	trend := MonthlyTrend(fixtureSales(), nil)
	require.Len(t, trend, 2)
	require.Equal(t, "2024-03", trend[0].Period)
	require.Equal(t, 2, trend[0].Sales)
	require.True(t, trend[0].Revenue.Equal(d("18.00")))
	require.True(t, trend[0].Net.Equal(d("9.00")))
	require.Equal(t, "April 2024", trend[1].Label)
}

func TestDashboard(t *testing.T) {
	dash := BuildDashboard(fixtureProducts(), fixtureSales())
	require.True(t, dash.TotalSales.Equal(d("33.64")))
	require.True(t, dash.TotalProfit.Equal(d("15.50")))
	require.Equal(t, 3, dash.Transactions)
	require.Equal(t, 2, dash.LowStockCount)

	require.Len(t, dash.TopSellers, 3)
	require.Equal(t, "Redbull", dash.TopSellers[0].Name)
	require.Equal(t, 7, dash.TopSellers[0].Units)
	require.Equal(t, "redbull.png", dash.TopSellers[0].ImageURL)
}

func TestParseDimension(t *testing.T) {
	dim, err := ParseDimension(" Week ")
	require.NoError(t, err)
	require.Equal(t, ByWeek, dim)
	_, err = ParseDimension("fortnight")
	require.Error(t, err)
}
