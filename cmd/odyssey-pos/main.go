// Command odyssey-pos drives the point-of-sale core from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/odyssey-pos/odyssey-pos/internal/app"
)

const (
	Version = "0.1.0"
	appName = "odyssey-pos"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	seedPath string
	noSales  bool
}

func rootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Retail point-of-sale core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVar(&opts.seedPath, "seed", "", "Catalog seed file (YAML); defaults to the bundled demo catalog")
	cmd.PersistentFlags().BoolVar(&opts.noSales, "no-sales", false, "Skip the demo sales before running a command")

	cmd.AddCommand(
		demoCmd(opts),
		reportCmd(opts),
		importPhotoCmd(opts),
		enhanceCmd(opts),
		metricsCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

// session builds a POS from the environment and loads the seed catalog into it.
func session(ctx context.Context, opts *options) (*app.POS, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	seed, err := loadSeed(opts.seedPath)
	if err != nil {
		return nil, err
	}
	if len(seed.Categories) > 0 {
		cfg.Categories = seed.Categories
	}
	logger := app.NewLogger(cfg)
	pos, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		return nil, err
	}
	products, err := seed.products()
	if err == nil {
		err = pos.Catalog.Seed(products)
	}
	if err != nil {
		_ = pos.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	if !opts.noSales {
		if err := runDemoSales(ctx, pos); err != nil {
			_ = pos.Close()
			return nil, err
		}
	}
	logger.Debug("session ready", slog.Int("products", len(products)))
	return pos, nil
}
