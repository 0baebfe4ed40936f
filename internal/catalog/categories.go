package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// Categories returns "All" followed by every known category, sorted.
func (s *Store) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	known := s.knownLocked()
	out := make([]Category, 0, len(known)+1)
	out = append(out, CategoryAll)
	return append(out, known...)
}

// AddCategory registers a category that has no products yet.
func (s *Store) AddCategory(ctx context.Context, name string) (Category, error) {
	cat, err := NewCategory(name)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	if containsFold(s.knownLocked(), cat) {
		s.mu.Unlock()
		return "", shared.NewValidationError("category", fmt.Sprintf("%q already exists", cat))
	}
	s.custom = append(s.custom, cat)
	s.revision++
	s.mu.Unlock()

	s.recordCategory(ctx, "category:add", cat, nil)
	return cat, nil
}

// RenameCategory moves every product in from to the new name.
func (s *Store) RenameCategory(ctx context.Context, from Category, to string) (Category, error) {
	target, err := NewCategory(to)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	known := s.knownLocked()
	if !contains(known, from) {
		s.mu.Unlock()
		return "", shared.NewNotFoundError("category", string(from))
	}
	for _, c := range known {
		if c != from && strings.EqualFold(string(c), string(target)) {
			s.mu.Unlock()
			return "", shared.NewValidationError("category", fmt.Sprintf("%q already exists", target))
		}
	}
	moved := 0
	for i := range s.products {
		if s.products[i].Category == from {
			s.products[i].Category = target
			moved++
		}
	}
	s.custom = replaceCategory(s.custom, from, target)
	s.defaults = replaceCategory(s.defaults, from, target)
	s.revision++
	s.mu.Unlock()

	s.recordCategory(ctx, "category:rename", from, map[string]any{"to": string(target), "products": moved})
	return target, nil
}

// DeleteCategory reassigns every product in name using assignments (product id to category),
// then forgets the category. Every affected product must have an assignment.
func (s *Store) DeleteCategory(ctx context.Context, name Category, assignments map[string]Category) error {
	s.mu.Lock()
	if !contains(s.knownLocked(), name) {
		s.mu.Unlock()
		return shared.NewNotFoundError("category", string(name))
	}
	resolved := make(map[int]Category)
	for i, p := range s.products {
		if p.Category != name {
			continue
		}
		next, ok := assignments[p.ID]
		if !ok {
			s.mu.Unlock()
			return shared.NewValidationError("assignments", fmt.Sprintf("product %s has no new category", p.ID))
		}
		cat, err := NewCategory(string(next))
		if err != nil || cat == name {
			s.mu.Unlock()
			return shared.NewValidationError("assignments", fmt.Sprintf("product %s needs a different category", p.ID))
		}
		resolved[i] = cat
	}
	for i, cat := range resolved {
		s.products[i].Category = cat
	}
	s.custom = removeCategory(s.custom, name)
	s.defaults = removeCategory(s.defaults, name)
	s.revision++
	s.mu.Unlock()

	s.recordCategory(ctx, "category:delete", name, map[string]any{"reassigned": len(resolved)})
	return nil
}

func (s *Store) knownLocked() []Category {
	seen := make(map[Category]struct{})
	var out []Category
	add := func(c Category) {
		if c == "" || c == CategoryAll {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, c := range s.defaults {
		add(c)
	}
	for _, p := range s.products {
		add(p.Category)
	}
	for _, c := range s.custom {
		add(c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Store) recordCategory(ctx context.Context, action string, cat Category, meta map[string]any) {
	s.writeAudit(ctx, shared.AuditLog{Action: action, Entity: "category", EntityID: string(cat), Meta: meta})
}

func contains(list []Category, c Category) bool {
	for _, item := range list {
		if item == c {
			return true
		}
	}
	return false
}

func containsFold(list []Category, c Category) bool {
	for _, item := range list {
		if strings.EqualFold(string(item), string(c)) {
			return true
		}
	}
	return false
}

func replaceCategory(list []Category, from, to Category) []Category {
	out := list[:0]
	for _, c := range list {
		if c == from {
			c = to
		}
		if !contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

func removeCategory(list []Category, name Category) []Category {
	out := list[:0]
	for _, c := range list {
		if c != name {
			out = append(out, c)
		}
	}
	return out
}
