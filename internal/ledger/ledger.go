package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Ledger is the append-only sales history. It is safe for concurrent use.
type Ledger struct {
	mu       sync.RWMutex
	sales    []Sale
	index    map[string]int
	revision uint64
	audit    AuditPort
	logger   *slog.Logger
}

// New returns an empty Ledger. audit and logger may be nil.
func New(audit AuditPort, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{index: make(map[string]int), audit: audit, logger: logger}
}

// Validate checks the sale shape and its money identities without recording it.
func (l *Ledger) Validate(sale Sale) error {
	if err := validateSale(sale); err != nil {
		return err
	}
	l.mu.RLock()
	_, exists := l.index[sale.ID]
	l.mu.RUnlock()
	if exists {
		return shared.NewValidationError("id", fmt.Sprintf("sale %s already recorded", sale.ID))
	}
	return nil
}

// Record appends a validated sale.
func (l *Ledger) Record(ctx context.Context, sale Sale) error {
	if err := validateSale(sale); err != nil {
		return err
	}
	l.mu.Lock()
	if _, exists := l.index[sale.ID]; exists {
		l.mu.Unlock()
		return shared.NewValidationError("id", fmt.Sprintf("sale %s already recorded", sale.ID))
	}
	l.index[sale.ID] = len(l.sales)
	l.sales = append(l.sales, sale.Clone())
	l.revision++
	l.mu.Unlock()

	l.record(ctx, sale)
	return nil
}

func (l *Ledger) record(ctx context.Context, sale Sale) {
	if l.audit == nil {
		return
	}
	err := l.audit.Record(ctx, shared.AuditLog{
		Action:   "ledger:record",
		Entity:   "sale",
		EntityID: sale.ID,
		Meta:     map[string]any{"total": sale.Total.StringFixed(2), "items": len(sale.Items)},
	})
	if err != nil {
		l.logger.Warn("ledger audit", slog.String("sale_id", sale.ID), slog.Any("error", err))
	}
}

// History returns copies of every sale in commit order.
func (l *Ledger) History() []Sale {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Sale, len(l.sales))
	for i, sale := range l.sales {
		out[i] = sale.Clone()
	}
	return out
}

// Get returns the sale identified by id.
func (l *Ledger) Get(id string) (Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx, ok := l.index[id]
	if !ok {
		return Sale{}, shared.NewNotFoundError("sale", id)
	}
	return l.sales[idx].Clone(), nil
}

// Count returns the number of recorded sales.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.sales)
}

// Revision increments on every recorded sale.
func (l *Ledger) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.revision
}

// SortedByDate returns a copy of sales ordered by Date, keeping commit order on ties.
func SortedByDate(sales []Sale) []Sale {
	out := make([]Sale, len(sales))
	copy(out, sales)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func validateSale(sale Sale) error {
	if !strings.HasPrefix(sale.ID, IDPrefix) || len(sale.ID) == len(IDPrefix) {
		return shared.NewValidationError("id", fmt.Sprintf("must start with %s", IDPrefix))
	}
	if len(sale.Items) == 0 {
		return shared.NewValidationError("items", "empty cart")
	}
	if sale.Date.IsZero() {
		return shared.NewValidationError("date", "is required")
	}
	subtotal := decimal.Zero
	for _, item := range sale.Items {
		if item.Quantity < 1 {
			return shared.NewValidationError("quantity", fmt.Sprintf("line %s must be >= 1", item.ProductID))
		}
		if item.Price.IsNegative() {
			return shared.NewValidationError("price", fmt.Sprintf("line %s must be >= 0", item.ProductID))
		}
		subtotal = subtotal.Add(item.LineTotal())
	}
	if !subtotal.Equal(sale.Subtotal) {
		return shared.NewValidationError("subtotal", fmt.Sprintf("expected %s, got %s", subtotal, sale.Subtotal))
	}
	if !sale.Subtotal.Add(sale.Tax).Equal(sale.Total) {
		return shared.NewValidationError("total", "must equal subtotal plus tax")
	}
	return nil
}
