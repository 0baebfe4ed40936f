package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odyssey-pos/odyssey-pos/internal/app"
	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
	"github.com/odyssey-pos/odyssey-pos/internal/ledger"
	"github.com/odyssey-pos/odyssey-pos/internal/reports"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

type demoLine struct {
	productID string
	quantity  int
}

// demoSales replays the two transactions the demo catalog ships with.
var demoSales = [][]demoLine{
	{{productID: "1", quantity: 3}, {productID: "4", quantity: 2}},
	{{productID: "3", quantity: 1}},
}

func runDemoSales(ctx context.Context, pos *app.POS) error {
	_, err := commitDemoSales(ctx, pos)
	return err
}

func commitDemoSales(ctx context.Context, pos *app.POS) ([]ledger.Sale, error) {
	var sales []ledger.Sale
	for _, lines := range demoSales {
		c := pos.Checkout.NewCart()
		for _, line := range lines {
			product, err := pos.Catalog.Get(line.productID)
			if shared.IsNotFound(err) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if err := c.AddItem(product, line.quantity); err != nil {
				return nil, err
			}
		}
		if c.IsEmpty() {
			continue
		}
		sale, err := pos.Checkout.Commit(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("demo sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

func demoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Seed the catalog, ring up the demo sales and print receipts and reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			local := *opts
			local.noSales = true
			pos, err := session(ctx, &local)
			if err != nil {
				return err
			}
			defer pos.Close()

			out := cmd.OutOrStdout()
			var sales []ledger.Sale
			if !opts.noSales {
				if sales, err = commitDemoSales(ctx, pos); err != nil {
					return err
				}
			}
			for _, sale := range sales {
				fmt.Fprintln(out, pos.Checkout.Receipt(sale, pos.Config.Locale(), pos.Config.Location()))
			}

			dash, err := pos.Reports.Dashboard(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Sales %s  Profit %s  Transactions %d  Low stock %d\n",
				dash.TotalSales.StringFixed(2), dash.TotalProfit.StringFixed(2), dash.Transactions, dash.LowStockCount)

			reorder, err := pos.Reports.Reorder(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Reorder:")
			for _, p := range reorder {
				fmt.Fprintf(out, "  %-16s stock %3d  reorder at %3d\n", p.Name, p.Stock, p.ReorderLevel)
			}
			return nil
		},
	}
}

var reportNames = []string{
	"reorder", "valuation", "sales", "top", "bottom", "velocity",
	"income", "balance", "cashflow", "trend", "dashboard", "categories", "history",
}

func reportCmd(opts *options) *cobra.Command {
	var (
		by    string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "report <name>",
		Short: "Print a report as JSON (" + strings.Join(reportNames, ", ") + ")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pos, err := session(ctx, opts)
			if err != nil {
				return err
			}
			defer pos.Close()

			result, err := runReport(ctx, pos, args[0], by, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&by, "by", string(reports.ByCategory), "Grouping for sales (category, day, week, month, year, product) and velocity (category, product)")
	cmd.Flags().IntVar(&limit, "limit", reports.DefaultLimit, "Rows for top and bottom")
	return cmd
}

func runReport(ctx context.Context, pos *app.POS, name, by string, limit int) (any, error) {
	switch name {
	case "reorder":
		return pos.Reports.Reorder(ctx)
	case "valuation":
		return pos.Reports.Valuation(ctx)
	case "sales":
		dim, err := reports.ParseDimension(by)
		if err != nil {
			return nil, err
		}
		return pos.Reports.SalesBy(ctx, dim)
	case "top":
		return pos.Reports.TopItems(ctx, limit)
	case "bottom":
		return pos.Reports.BottomItems(ctx, limit)
	case "velocity":
		dim, err := reports.ParseDimension(by)
		if err != nil {
			return nil, err
		}
		return pos.Reports.Velocity(ctx, dim)
	case "income":
		return pos.Reports.IncomeStatement(ctx)
	case "balance":
		return pos.Reports.BalanceSheet(ctx)
	case "cashflow":
		return pos.Reports.CashFlow(ctx)
	case "trend":
		return pos.Reports.MonthlyTrend(ctx)
	case "dashboard":
		return pos.Reports.Dashboard(ctx)
	case "categories":
		return pos.Catalog.Categories(), nil
	case "history":
		return pos.Ledger.History(), nil
	default:
		known := append([]string(nil), reportNames...)
		sort.Strings(known)
		return nil, fmt.Errorf("unknown report %q (known: %s)", name, strings.Join(known, ", "))
	}
}

func importPhotoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import-photo <file>",
		Short: "Extract products from an invoice photo and add them to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			photo, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pos, err := session(ctx, opts)
			if err != nil {
				return err
			}
			defer pos.Close()

			created, err := pos.ImportFromPhoto(ctx, photo, app.ImageMimeType(args[0]))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), created)
		},
	}
}

func enhanceCmd(opts *options) *cobra.Command {
	var quality string
	cmd := &cobra.Command{
		Use:   "enhance <product-id> <file>",
		Short: "Send a product photo through the image enhancer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pos, err := session(ctx, opts)
			if err != nil {
				return err
			}
			defer pos.Close()

			product, err := pos.Catalog.EnhanceImage(ctx, args[0], catalog.ImageUpload{
				Data:     data,
				MimeType: app.ImageMimeType(args[1]),
				Quality:  quality,
			})
			if err != nil && !errors.Is(err, shared.ErrExternalService) {
				return err
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "enhancer failed, kept original: %v\n", err)
			}
			return writeJSON(cmd.OutOrStdout(), product)
		},
	}
	cmd.Flags().StringVar(&quality, "quality", "hd", "Enhancement quality (standard, hd)")
	return cmd
}

func metricsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Run the session and print its Prometheus metrics in text format",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pos, err := session(ctx, opts)
			if err != nil {
				return err
			}
			defer pos.Close()

			if _, err := pos.Reports.Dashboard(ctx); err != nil {
				return err
			}
			return pos.Metrics.WriteText(cmd.OutOrStdout())
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
