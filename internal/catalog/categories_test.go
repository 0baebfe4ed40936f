package catalog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

func TestNewCategoryRejectsReservedNames(t *testing.T) {
	_, err := NewCategory("ALL")
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = NewCategory("  ")
	require.ErrorIs(t, err, shared.ErrValidation)

	cat, err := NewCategory(" Produce ")
	require.NoError(t, err)
	require.Equal(t, Category("Produce"), cat)
	require.True(t, cat.Matches(CategoryAll))
	require.True(t, cat.Matches(""))
	require.False(t, cat.Matches("produce"))
}

func TestCategoriesUnion(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_, err := store.AddProduct(ctx, ProductInput{Name: "Apple", Category: "Produce", Price: money("1")})
	require.NoError(t, err)
	_, err = store.AddCategory(ctx, "Bakery")
	require.NoError(t, err)

	require.Equal(t, []Category{CategoryAll, "Bakery", "Drinks", "Produce", "Snacks"}, store.Categories())

	_, err = store.AddCategory(ctx, "drinks")
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = store.AddCategory(ctx, "All")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRenameCategoryMovesProducts(t *testing.T) {
	store, audit := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Seed([]Product{
		{ID: "1", Name: "Cola", Category: "Drinks", Price: money("1")},
		{ID: "2", Name: "Chips", Category: "Snacks", Price: money("1")},
	}))

	renamed, err := store.RenameCategory(ctx, "Drinks", "Beverages")
	require.NoError(t, err)
	require.Equal(t, Category("Beverages"), renamed)

	cola, _ := store.Get("1")
	require.Equal(t, Category("Beverages"), cola.Category)
	require.NotContains(t, store.Categories(), Category("Drinks"))

	_, err = store.RenameCategory(ctx, "Beverages", "SNACKS")
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = store.RenameCategory(ctx, "Beverages", "All")
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = store.RenameCategory(ctx, "Unknown", "Other")
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Contains(t, audit.actions(), "category:rename")
}

func TestDeleteCategoryRequiresAssignments(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Seed([]Product{
		{ID: "1", Name: "Cola", Category: "Drinks", Price: money("1")},
		{ID: "2", Name: "Juice", Category: "Drinks", Price: money("1")},
	}))

	err := store.DeleteCategory(ctx, "Drinks", map[string]Category{"1": "Snacks"})
	require.ErrorIs(t, err, shared.ErrValidation)
	cola, _ := store.Get("1")
	require.Equal(t, Category("Drinks"), cola.Category)

	err = store.DeleteCategory(ctx, "Drinks", map[string]Category{"1": "Snacks", "2": "Drinks"})
	require.ErrorIs(t, err, shared.ErrValidation)

	require.NoError(t, store.DeleteCategory(ctx, "Drinks", map[string]Category{"1": "Snacks", "2": "Fresh"}))
	cola, _ = store.Get("1")
	juice, _ := store.Get("2")
	require.Equal(t, Category("Snacks"), cola.Category)
	require.Equal(t, Category("Fresh"), juice.Category)
	require.Equal(t, []Category{CategoryAll, "Fresh", "Snacks"}, store.Categories())

	require.ErrorIs(t, store.DeleteCategory(ctx, "Drinks", nil), shared.ErrNotFound)
}

type failingAudit struct{}

func (failingAudit) Record(context.Context, shared.AuditLog) error {
	return errors.New("audit sink down")
}

func TestCategoryAuditFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	store := NewStore(Config{}, failingAudit{}, nil, logger)

	_, err := store.AddCategory(context.Background(), "Bakery")
	require.NoError(t, err)
	require.Contains(t, buf.String(), "catalog audit")
	require.Contains(t, buf.String(), "entity=category")
	require.Contains(t, buf.String(), "audit sink down")
}
