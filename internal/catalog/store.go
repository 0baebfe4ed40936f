package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Config groups optional settings. A zero ImportReorderLevel falls back to
// DefaultImportReorderLevel and a nil NewID to random UUIDs.
type Config struct {
	DefaultCategories  []string
	ImportReorderLevel int
	NewID              func() string
}

// Store owns the mutable product collection. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	products []Product
	index    map[string]int
	retired  map[string]struct{}
	defaults []Category
	custom   []Category
	revision uint64

	importReorderLevel int
	newID              func() string
	validate           *validator.Validate
	audit              AuditPort
	enhancer           ImageEnhancer
	logger             *slog.Logger
	flight             singleflight.Group
}

// NewStore builds an empty Store.
func NewStore(cfg Config, audit AuditPort, enhancer ImageEnhancer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	reorder := cfg.ImportReorderLevel
	if reorder <= 0 {
		reorder = DefaultImportReorderLevel
	}
	s := &Store{
		index:              make(map[string]int),
		retired:            make(map[string]struct{}),
		importReorderLevel: reorder,
		newID:              newID,
		validate:           newValidator(),
		audit:              audit,
		enhancer:           enhancer,
		logger:             logger,
	}
	for _, name := range cfg.DefaultCategories {
		cat, err := NewCategory(name)
		if err != nil {
			continue
		}
		if !containsFold(s.defaults, cat) {
			s.defaults = append(s.defaults, cat)
		}
	}
	return s
}

// Seed inserts products with caller-supplied ids, used for demo data and fixtures.
func (s *Store) Seed(products []Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if strings.TrimSpace(p.ID) == "" {
			return shared.NewValidationError("id", "is required")
		}
		if _, ok := s.index[p.ID]; ok {
			return shared.NewValidationError("id", fmt.Sprintf("%q already exists", p.ID))
		}
		if _, ok := seen[p.ID]; ok {
			return shared.NewValidationError("id", fmt.Sprintf("%q duplicated in seed", p.ID))
		}
		if _, _, err := s.normalise(inputFromProduct(p)); err != nil {
			return err
		}
		seen[p.ID] = struct{}{}
	}
	for _, p := range products {
		_, category, _ := s.normalise(inputFromProduct(p))
		p.Category = category
		p.Name = strings.TrimSpace(p.Name)
		s.insertLocked(p.clone())
	}
	s.revision++
	return nil
}

// AddProduct validates input and appends a new product with a fresh id.
func (s *Store) AddProduct(ctx context.Context, in ProductInput) (Product, error) {
	in, category, err := s.normalise(in)
	if err != nil {
		return Product{}, err
	}
	s.mu.Lock()
	product := productFromInput(s.nextIDLocked(), in, category)
	s.insertLocked(product)
	s.revision++
	s.mu.Unlock()

	s.record(ctx, "catalog:add", product.ID, map[string]any{"name": product.Name, "stock": product.Stock})
	return product.clone(), nil
}

// UpdateProduct merges patch into the product identified by id.
func (s *Store) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	s.mu.Lock()
	idx, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return Product{}, shared.NewNotFoundError("product", id)
	}
	merged := applyPatch(s.products[idx].clone(), patch)
	in, category, err := s.normalise(inputFromProduct(merged))
	if err != nil {
		s.mu.Unlock()
		return Product{}, err
	}
	updated := productFromInput(id, in, category)
	s.products[idx] = updated
	s.revision++
	s.mu.Unlock()

	s.record(ctx, "catalog:update", id, map[string]any{"name": updated.Name})
	return updated.clone(), nil
}

// AdjustStock applies a signed delta to the product's stock.
func (s *Store) AdjustStock(ctx context.Context, id string, delta int) (Product, error) {
	if delta == 0 {
		return Product{}, shared.NewValidationError("delta", "must be non zero")
	}
	s.mu.Lock()
	idx, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return Product{}, shared.NewNotFoundError("product", id)
	}
	newStock := s.products[idx].Stock + delta
	if newStock < 0 {
		s.mu.Unlock()
		return Product{}, shared.NewValidationError("stock", fmt.Sprintf("adjustment %d would leave %d on hand", delta, newStock))
	}
	s.products[idx].Stock = newStock
	product := s.products[idx].clone()
	s.revision++
	s.mu.Unlock()

	s.record(ctx, "catalog:adjust", id, map[string]any{"delta": delta, "stock": newStock})
	return product, nil
}

// DeleteProduct removes the product. Its id is never handed out again.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	idx, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return shared.NewNotFoundError("product", id)
	}
	name := s.products[idx].Name
	s.products = append(s.products[:idx], s.products[idx+1:]...)
	s.retired[id] = struct{}{}
	s.reindexLocked()
	s.revision++
	s.mu.Unlock()

	s.record(ctx, "catalog:delete", id, map[string]any{"name": name})
	return nil
}

// Get returns the product identified by id.
func (s *Store) Get(id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.index[id]
	if !ok {
		return Product{}, shared.NewNotFoundError("product", id)
	}
	return s.products[idx].clone(), nil
}

// All returns every product in insertion order.
func (s *Store) All() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked(func(Product) bool { return true })
}

// ListByCategory returns products in category, or everything for CategoryAll.
func (s *Store) ListByCategory(category Category) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked(func(p Product) bool { return p.Category.Matches(category) })
}

// List applies category, name search and optional ordering.
func (s *Store) List(filter Filter) []Product {
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	s.mu.RLock()
	out := s.copyLocked(func(p Product) bool {
		if !p.Category.Matches(filter.Category) {
			return false
		}
		return term == "" || strings.Contains(strings.ToLower(p.Name), term)
	})
	s.mu.RUnlock()
	sortProducts(out, filter.SortBy, filter.Descending)
	return out
}

// LowStock returns products at or below their reorder level.
func (s *Store) LowStock() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked(Product.IsLowStock)
}

// Revision increments on every mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// CheckStock verifies every line can be fulfilled without writing anything.
func (s *Store) CheckStock(lines []StockLine) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkLocked(lines)
}

// DeductStock validates all lines, then decrements stock for each of them.
func (s *Store) DeductStock(ctx context.Context, lines []StockLine) error {
	s.mu.Lock()
	if err := s.checkLocked(lines); err != nil {
		s.mu.Unlock()
		return err
	}
	for _, line := range lines {
		s.products[s.index[line.ProductID]].Stock -= line.Quantity
	}
	s.revision++
	s.mu.Unlock()

	for _, line := range lines {
		s.record(ctx, "catalog:sale", line.ProductID, map[string]any{"qty": line.Quantity})
	}
	return nil
}

func (s *Store) checkLocked(lines []StockLine) error {
	requested := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return shared.NewValidationError("quantity", fmt.Sprintf("line %s must be >= 1", line.ProductID))
		}
		idx, ok := s.index[line.ProductID]
		if !ok {
			return shared.NewNotFoundError("product", line.ProductID)
		}
		requested[line.ProductID] += line.Quantity
		if p := s.products[idx]; p.Stock < requested[line.ProductID] {
			return &shared.InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: requested[line.ProductID],
				Available: p.Stock,
			}
		}
	}
	return nil
}

func (s *Store) nextIDLocked() string {
	for {
		id := s.newID()
		_, live := s.index[id]
		_, gone := s.retired[id]
		if !live && !gone && id != "" {
			return id
		}
	}
}

func (s *Store) insertLocked(p Product) {
	s.index[p.ID] = len(s.products)
	s.products = append(s.products, p)
}

func (s *Store) reindexLocked() {
	s.index = make(map[string]int, len(s.products))
	for i, p := range s.products {
		s.index[p.ID] = i
	}
}

func (s *Store) copyLocked(keep func(Product) bool) []Product {
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if keep(p) {
			out = append(out, p.clone())
		}
	}
	return out
}

func (s *Store) record(ctx context.Context, action, id string, meta map[string]any) {
	s.writeAudit(ctx, shared.AuditLog{Action: action, Entity: "product", EntityID: id, Meta: meta})
}

func (s *Store) writeAudit(ctx context.Context, entry shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("catalog audit", slog.String("action", entry.Action), slog.String("entity", entry.Entity), slog.Any("error", err))
	}
}

func productFromInput(id string, in ProductInput, category Category) Product {
	p := Product{
		ID:           id,
		Name:         in.Name,
		Category:     category,
		Price:        in.Price,
		Stock:        in.Stock,
		ReorderLevel: in.ReorderLevel,
		ImageURL:     in.ImageURL,
	}
	if in.Cost != nil {
		cost := *in.Cost
		p.Cost = &cost
	}
	return p
}

func inputFromProduct(p Product) ProductInput {
	return ProductInput{
		Name:         p.Name,
		Category:     string(p.Category),
		Price:        p.Price,
		Cost:         p.Cost,
		Stock:        p.Stock,
		ReorderLevel: p.ReorderLevel,
		ImageURL:     p.ImageURL,
	}
}

func applyPatch(p Product, patch ProductPatch) Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Category != nil {
		p.Category = Category(*patch.Category)
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.ClearCost {
		p.Cost = nil
	}
	if patch.Cost != nil {
		cost := *patch.Cost
		p.Cost = &cost
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.ReorderLevel != nil {
		p.ReorderLevel = *patch.ReorderLevel
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	return p
}

func sortProducts(products []Product, field SortField, desc bool) {
	var less func(a, b Product) bool
	switch field {
	case SortByName:
		less = func(a, b Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortByStock:
		less = func(a, b Product) bool { return a.Stock < b.Stock }
	case SortByPrice:
		less = func(a, b Product) bool { return a.Price.LessThan(b.Price) }
	default:
		return
	}
	sort.SliceStable(products, func(i, j int) bool {
		if desc {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}
