package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
	"github.com/odyssey-pos/odyssey-pos/internal/ledger"
)

// DefaultLimit is the conventional size of ranked lists.
const DefaultLimit = 10

// Dataset is a consistent copy of the catalog and the sales history.
type Dataset struct {
	Products []catalog.Product
	Sales    []ledger.Sale
	// Revision changes whenever either collection changes.
	Revision string
}

// Source hands out datasets.
type Source interface {
	Dataset() Dataset
}

// Dimension selects how sales are grouped.
type Dimension string

const (
	ByCategory Dimension = "category"
	ByDay      Dimension = "day"
	ByWeek     Dimension = "week"
	ByMonth    Dimension = "month"
	ByYear     Dimension = "year"
	ByProduct  Dimension = "product"
)

// ParseDimension validates a grouping name.
func ParseDimension(raw string) (Dimension, error) {
	switch d := Dimension(strings.ToLower(strings.TrimSpace(raw))); d {
	case ByCategory, ByDay, ByWeek, ByMonth, ByYear, ByProduct:
		return d, nil
	default:
		return "", fmt.Errorf("unknown report dimension %q", raw)
	}
}

// SalesGroup is one bucket of a sales breakdown.
type SalesGroup struct {
	Key       string          `json:"key"`
	Label     string          `json:"label"`
	ItemsSold int             `json:"itemsSold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// CategoryValuation is the stock value held in one category.
type CategoryValuation struct {
	Category catalog.Category `json:"category"`
	Units    int              `json:"units"`
	Value    decimal.Decimal  `json:"value"`
}

// Valuation is the inventory value at cost.
type Valuation struct {
	Categories []CategoryValuation `json:"categories"`
	TotalUnits int                 `json:"totalUnits"`
	Total      decimal.Decimal     `json:"total"`
}

// ItemStat is the lifetime performance of one product.
type ItemStat struct {
	ProductID string           `json:"productId"`
	Name      string           `json:"name"`
	Category  catalog.Category `json:"category"`
	ItemsSold int              `json:"itemsSold"`
	Revenue   decimal.Decimal  `json:"revenue"`
	InCatalog bool             `json:"inCatalog"`
}

// VelocityEntry is the weekly sell-through rate of a product or category.
type VelocityEntry struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Units int     `json:"units"`
	Rate  float64 `json:"rate"`
}

// VelocityReport ranks entries by units sold per week.
type VelocityReport struct {
	Weeks float64         `json:"weeks"`
	Fast  []VelocityEntry `json:"fast"`
	Slow  []VelocityEntry `json:"slow"`
}

// IncomeStatement summarises revenue and cost of goods sold.
type IncomeStatement struct {
	Revenue        decimal.Decimal `json:"revenue"`
	COGS           decimal.Decimal `json:"cogs"`
	GrossProfit    decimal.Decimal `json:"grossProfit"`
	NetIncome      decimal.Decimal `json:"netIncome"`
	GrossMarginPct decimal.Decimal `json:"grossMarginPct"`
}

// BalanceSheet is the simplified position: cash from profit plus stock at cost.
type BalanceSheet struct {
	Cash        decimal.Decimal `json:"cash"`
	Inventory   decimal.Decimal `json:"inventory"`
	TotalAssets decimal.Decimal `json:"totalAssets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	Equity      decimal.Decimal `json:"equity"`
}

// CashFlowStatement covers operating cash movement.
type CashFlowStatement struct {
	OperatingInflow  decimal.Decimal `json:"operatingInflow"`
	OperatingOutflow decimal.Decimal `json:"operatingOutflow"`
	TaxCollected     decimal.Decimal `json:"taxCollected"`
	NetCashFlow      decimal.Decimal `json:"netCashFlow"`
}

// TrendPoint is one month of revenue and cost.
type TrendPoint struct {
	Period  string          `json:"period"`
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	COGS    decimal.Decimal `json:"cogs"`
	Net     decimal.Decimal `json:"net"`
	Sales   int             `json:"sales"`
}

// TopSeller is a dashboard tile.
type TopSeller struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Units     int    `json:"units"`
	ImageURL  string `json:"imageUrl"`
}

// Dashboard is the headline view.
type Dashboard struct {
	TotalSales    decimal.Decimal `json:"totalSales"`
	TotalProfit   decimal.Decimal `json:"totalProfit"`
	Transactions  int             `json:"transactions"`
	LowStockCount int             `json:"lowStockCount"`
	TopSellers    []TopSeller     `json:"topSellers"`
}

type flatItem struct {
	ledger.SaleItem
	Date time.Time
}

func flatten(sales []ledger.Sale) []flatItem {
	var out []flatItem
	for _, sale := range ledger.SortedByDate(sales) {
		for _, item := range sale.Items {
			out = append(out, flatItem{SaleItem: item, Date: sale.Date})
		}
	}
	return out
}

func productIndex(products []catalog.Product) map[string]catalog.Product {
	index := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}
	return index
}

// itemCategory prefers the sale snapshot, then the live product.
func itemCategory(item ledger.SaleItem, index map[string]catalog.Product) catalog.Category {
	if item.Category != "" {
		return item.Category
	}
	if p, ok := index[item.ProductID]; ok && p.Category != "" {
		return p.Category
	}
	return catalog.CategoryUncategorized
}
