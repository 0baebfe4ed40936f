package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	productA = catalog.Product{ID: "A", Name: "Product A", Category: "Drinks", Price: d("2.50"), Stock: 15, ReorderLevel: 10}
	productB = catalog.Product{ID: "B", Name: "Product B", Category: "Snacks", Price: d("1.25"), Stock: 50, ReorderLevel: 20}
)

func TestScenarioTotals(t *testing.T) {
	c := New(DefaultTaxRate)
	require.NoError(t, c.AddItem(productA, 3))
	require.NoError(t, c.AddItem(productB, 2))

	require.True(t, c.Subtotal().Equal(d("10.00")))
	require.True(t, c.Tax().Equal(d("1.60")))
	require.True(t, c.Total().Equal(d("11.60")))
	require.Equal(t, 2, c.Len())
}

func TestTotalsIdentity(t *testing.T) {
	c := New(d("0.075"))
	prices := []string{"0.99", "13.37", "1.05", "7.00"}
	for i, p := range prices {
		require.NoError(t, c.AddItem(catalog.Product{ID: p, Name: p, Price: d(p)}, i+1))
	}

	expected := decimal.Zero
	for _, line := range c.Lines() {
		expected = expected.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	require.True(t, c.Subtotal().Equal(expected))
	require.True(t, c.Total().Equal(c.Subtotal().Mul(d("1.075"))))
	require.True(t, c.Total().Equal(c.Subtotal().Add(c.Tax())))
}

func TestAddItemMergesLines(t *testing.T) {
	c := New(DefaultTaxRate)
	require.NoError(t, c.AddItem(productA, 1))
	require.NoError(t, c.AddItem(productA, 1))

	lines := c.Lines()
	require.Len(t, lines, 1)
	require.Equal(t, 2, lines[0].Quantity)

	require.ErrorIs(t, c.AddItem(productA, 0), shared.ErrValidation)
}

func TestAddItemSnapshotsPrice(t *testing.T) {
	c := New(DefaultTaxRate)
	p := productA
	require.NoError(t, c.AddItem(p, 1))

	p.Price = d("9.99")
	p.Name = "Renamed"
	require.NoError(t, c.AddItem(p, 1))

	line := c.Lines()[0]
	require.Equal(t, "Product A", line.Name)
	require.True(t, line.Price.Equal(d("2.50")))
	require.True(t, c.Subtotal().Equal(d("5.00")))
}

func TestSetQuantity(t *testing.T) {
	c := New(DefaultTaxRate)
	require.NoError(t, c.AddItem(productA, 3))
	require.NoError(t, c.AddItem(productB, 1))

	require.NoError(t, c.SetQuantity("A", 7))
	require.Equal(t, 7, c.Lines()[0].Quantity)

	require.NoError(t, c.SetQuantity("A", 0))
	require.Equal(t, 1, c.Len())
	require.Equal(t, "B", c.Lines()[0].ProductID)

	require.NoError(t, c.SetQuantity("B", -5))
	require.True(t, c.IsEmpty())

	require.ErrorIs(t, c.SetQuantity("Z", 2), shared.ErrNotFound)
	require.NoError(t, c.SetQuantity("Z", 0))
	require.True(t, c.IsEmpty())
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	c := New(DefaultTaxRate)
	require.NoError(t, c.AddItem(productA, 1))
	require.NoError(t, c.AddItem(productB, 1))

	c.RemoveItem("A")
	before := c.Lines()
	c.RemoveItem("A")
	require.Equal(t, before, c.Lines())
	require.Equal(t, 1, c.Len())
}

func TestClearAndStockLines(t *testing.T) {
	c := New(DefaultTaxRate)
	require.NoError(t, c.AddItem(productB, 2))
	require.NoError(t, c.AddItem(productA, 3))

	require.Equal(t, []catalog.StockLine{
		{ProductID: "B", Name: "Product B", Quantity: 2},
		{ProductID: "A", Name: "Product A", Quantity: 3},
	}, c.StockLines())

	c.Clear()
	require.True(t, c.IsEmpty())
	require.True(t, c.Subtotal().IsZero())
	require.True(t, c.Total().IsZero())
}
