package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/cart"
	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
	"github.com/odyssey-pos/odyssey-pos/internal/ledger"
	"github.com/odyssey-pos/odyssey-pos/internal/observability"
	"github.com/odyssey-pos/odyssey-pos/internal/reports"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// Inventory is the catalog surface used during a commit.
type Inventory interface {
	All() []catalog.Product
	DeductStock(ctx context.Context, lines []catalog.StockLine) error
	Revision() uint64
}

// SalesLedger is the ledger surface used during a commit.
type SalesLedger interface {
	Validate(sale ledger.Sale) error
	Record(ctx context.Context, sale ledger.Sale) error
	History() []ledger.Sale
	Revision() uint64
}

// EventPublisher announces committed sales.
type EventPublisher interface {
	PublishSaleCommitted(ctx context.Context, sale ledger.Sale) error
}

// Config groups optional settings. A nil TaxRate falls back to cart.DefaultTaxRate;
// an explicit zero is kept.
type Config struct {
	TaxRate *decimal.Decimal
	Now     func() time.Time
	NewID   func() string
}

// Service commits carts as sales, keeping the catalog and the ledger in step.
type Service struct {
	mu        sync.RWMutex
	inventory Inventory
	ledger    SalesLedger
	publisher EventPublisher
	metrics   *observability.Metrics
	taxRate   decimal.Decimal
	epoch     string
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
}

// NewService wires the commit protocol. publisher and metrics may be nil.
func NewService(inventory Inventory, sales SalesLedger, publisher EventPublisher, metrics *observability.Metrics, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	taxRate := cart.DefaultTaxRate
	if cfg.TaxRate != nil {
		taxRate = *cfg.TaxRate
	}
	return &Service{
		inventory: inventory,
		ledger:    sales,
		publisher: publisher,
		metrics:   metrics,
		taxRate:   taxRate,
		epoch:     uuid.NewString(),
		now:       cfg.Now,
		newID:     cfg.NewID,
		logger:    logger,
	}
}

// NewCart returns an empty cart using the configured tax rate.
func (s *Service) NewCart() *cart.Cart {
	return cart.New(s.taxRate)
}

// TaxRate returns the configured rate.
func (s *Service) TaxRate() decimal.Decimal {
	return s.taxRate
}

// Commit turns the cart into a recorded sale and deducts its stock. Nothing is written
// unless every line can be fulfilled. On success the cart is cleared.
func (s *Service) Commit(ctx context.Context, c *cart.Cart) (ledger.Sale, error) {
	if c == nil || c.IsEmpty() {
		s.metrics.ObserveCommitFailure("empty_cart")
		return ledger.Sale{}, shared.NewValidationError("cart", "empty cart")
	}

	sale := ledger.Sale{
		ID:       ledger.IDPrefix + s.newID(),
		Items:    c.Lines(),
		Subtotal: c.Subtotal(),
		Tax:      c.Tax(),
		Total:    c.Total(),
	}

	s.mu.Lock()
	sale.Date = s.now()
	if err := s.ledger.Validate(sale); err != nil {
		s.mu.Unlock()
		s.metrics.ObserveCommitFailure("invalid")
		return ledger.Sale{}, fmt.Errorf("checkout: %w", err)
	}
	if err := s.inventory.DeductStock(ctx, c.StockLines()); err != nil {
		s.mu.Unlock()
		s.metrics.ObserveCommitFailure(failureReason(err))
		return ledger.Sale{}, fmt.Errorf("checkout: %w", err)
	}
	if err := s.ledger.Record(ctx, sale); err != nil {
		// Validate ran under the same lock, so this only fires on a programming error.
		s.mu.Unlock()
		s.logger.Error("sale recorded stock without ledger entry", slog.String("sale_id", sale.ID), slog.Any("error", err))
		return ledger.Sale{}, fmt.Errorf("checkout: %w", err)
	}
	s.mu.Unlock()

	c.Clear()
	s.metrics.ObserveSale(sale.Total, unitsByCategory(sale))
	s.logger.Info("sale committed",
		slog.String("sale_id", sale.ID),
		slog.Int("lines", len(sale.Items)),
		slog.String("total", sale.Total.StringFixed(2)),
	)
	if s.publisher != nil {
		if err := s.publisher.PublishSaleCommitted(ctx, sale); err != nil {
			s.logger.Warn("publish sale event", slog.String("sale_id", sale.ID), slog.Any("error", err))
		}
	}
	return sale.Clone(), nil
}

// Dataset returns the catalog and history as one consistent snapshot. The revision
// carries a per-instance epoch because the counters restart with every process
// while a shared report cache does not.
func (s *Service) Dataset() reports.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reports.Dataset{
		Products: s.inventory.All(),
		Sales:    s.ledger.History(),
		Revision: fmt.Sprintf("%s.%d.%d", s.epoch, s.inventory.Revision(), s.ledger.Revision()),
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, shared.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

func unitsByCategory(sale ledger.Sale) map[string]int {
	out := make(map[string]int)
	for _, item := range sale.Items {
		category := item.Category
		if category == "" {
			category = catalog.CategoryUncategorized
		}
		out[category.String()] += item.Quantity
	}
	return out
}
