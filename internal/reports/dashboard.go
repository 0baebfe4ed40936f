package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
	"github.com/odyssey-pos/odyssey-pos/internal/ledger"
)

const dashboardTopSellers = 4

// BuildDashboard summarises sales and stock health for the reports screen.
func BuildDashboard(products []catalog.Product, sales []ledger.Sale) Dashboard {
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.Total)
	}

	index := productIndex(products)
	units := make(map[string]*TopSeller)
	var order []string
	for _, sale := range sales {
		for _, item := range sale.Items {
			product, live := index[item.ProductID]
			if !live {
				continue
			}
			top, ok := units[item.ProductID]
			if !ok {
				top = &TopSeller{ProductID: item.ProductID, Name: item.Name, ImageURL: product.ImageURL}
				units[item.ProductID] = top
				order = append(order, item.ProductID)
			}
			top.Units += item.Quantity
		}
	}
	sellers := make([]TopSeller, 0, len(order))
	for _, id := range order {
		sellers = append(sellers, *units[id])
	}
	sort.SliceStable(sellers, func(i, j int) bool { return sellers[i].Units > sellers[j].Units })
	if len(sellers) > dashboardTopSellers {
		sellers = sellers[:dashboardTopSellers]
	}

	return Dashboard{
		TotalSales:    total,
		TotalProfit:   BuildIncomeStatement(sales).GrossProfit,
		Transactions:  len(sales),
		LowStockCount: len(ReorderList(products)),
		TopSellers:    sellers,
	}
}
