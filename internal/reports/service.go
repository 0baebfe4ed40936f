package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
	"github.com/odyssey-pos/odyssey-pos/internal/observability"
)

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Location *time.Location
	Now      func() time.Time
}

// Service runs reports over the current dataset, memoising results per data revision.
type Service struct {
	source  Source
	cache   *Cache
	metrics *observability.Metrics
	loc     *time.Location
	now     func() time.Time
	logger  *slog.Logger
}

// NewService builds a Service. cache and metrics may be nil.
func NewService(source Source, cache *Cache, cfg ServiceConfig, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{source: source, cache: cache, metrics: metrics, loc: loc, now: now, logger: logger}
}

// Reorder lists products that need restocking.
func (s *Service) Reorder(ctx context.Context) ([]catalog.Product, error) {
	return fetch(ctx, s, "reorder", nil, func(d Dataset) []catalog.Product {
		return ReorderList(d.Products)
	})
}

// Valuation values the current stock at cost.
func (s *Service) Valuation(ctx context.Context) (Valuation, error) {
	return fetch(ctx, s, "valuation", nil, func(d Dataset) Valuation {
		return InventoryValuation(d.Products)
	})
}

// SalesBy groups sales along dim.
func (s *Service) SalesBy(ctx context.Context, dim Dimension) ([]SalesGroup, error) {
	if _, err := ParseDimension(string(dim)); err != nil {
		return nil, err
	}
	return fetch(ctx, s, "sales_by", []string{string(dim), s.loc.String()}, func(d Dataset) []SalesGroup {
		return SalesBy(d.Products, d.Sales, dim, s.loc)
	})
}

// TopItems ranks the n best selling products.
func (s *Service) TopItems(ctx context.Context, n int) ([]ItemStat, error) {
	return fetch(ctx, s, "top_items", []string{strconv.Itoa(n)}, func(d Dataset) []ItemStat {
		return TopItems(ItemPerformance(d.Products, d.Sales), n)
	})
}

// BottomItems ranks the n worst selling products.
func (s *Service) BottomItems(ctx context.Context, n int) ([]ItemStat, error) {
	return fetch(ctx, s, "bottom_items", []string{strconv.Itoa(n)}, func(d Dataset) []ItemStat {
		return BottomItems(ItemPerformance(d.Products, d.Sales), n)
	})
}

// Velocity depends on the current time, so it is never cached. Only ByProduct and
// ByCategory are accepted.
func (s *Service) Velocity(ctx context.Context, dim Dimension) (VelocityReport, error) {
	if dim != ByProduct && dim != ByCategory {
		return VelocityReport{}, fmt.Errorf("velocity cannot be grouped by %q", dim)
	}
	if err := ctx.Err(); err != nil {
		return VelocityReport{}, err
	}
	d := s.source.Dataset()
	return Velocity(d.Products, d.Sales, dim, s.now()), nil
}

// IncomeStatement reports revenue, COGS and profit.
func (s *Service) IncomeStatement(ctx context.Context) (IncomeStatement, error) {
	return fetch(ctx, s, "income_statement", nil, func(d Dataset) IncomeStatement {
		return BuildIncomeStatement(d.Sales)
	})
}

// BalanceSheet reports the simplified financial position.
func (s *Service) BalanceSheet(ctx context.Context) (BalanceSheet, error) {
	return fetch(ctx, s, "balance_sheet", nil, func(d Dataset) BalanceSheet {
		return BuildBalanceSheet(d.Products, d.Sales)
	})
}

// CashFlow reports operating cash movement.
func (s *Service) CashFlow(ctx context.Context) (CashFlowStatement, error) {
	return fetch(ctx, s, "cashflow", nil, func(d Dataset) CashFlowStatement {
		return BuildCashFlow(d.Sales)
	})
}

// MonthlyTrend reports revenue and COGS per month.
func (s *Service) MonthlyTrend(ctx context.Context) ([]TrendPoint, error) {
	return fetch(ctx, s, "monthly_trend", []string{s.loc.String()}, func(d Dataset) []TrendPoint {
		return MonthlyTrend(d.Sales, s.loc)
	})
}

// Dashboard reports the headline numbers.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	return fetch(ctx, s, "dashboard", nil, func(d Dataset) Dashboard {
		return BuildDashboard(d.Products, d.Sales)
	})
}

// Invalidate drops every cached report.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// fetch computes a report through the cache. Cache failures degrade to a direct computation.
func fetch[T any](ctx context.Context, s *Service, name string, params []string, compute func(Dataset) T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	data := s.source.Dataset()
	if s.cache == nil {
		return compute(data), nil
	}

	parts := append([]string{name}, params...)
	parts = append(parts, "rev", data.Revision)
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		s.logger.Warn("report cache unavailable", slog.String("report", name), slog.Any("error", err))
		return compute(data), nil
	}

	var out T
	hit, err := s.cache.FetchJSON(ctx, key, &out, func(context.Context) (interface{}, error) {
		return compute(data), nil
	})
	if err != nil {
		s.logger.Warn("report cache fetch failed", slog.String("report", name), slog.Any("error", err))
		return compute(data), nil
	}
	s.metrics.ObserveCacheLookup(hit)
	return out, nil
}
