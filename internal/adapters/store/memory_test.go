package store

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-sync/internal/config"
	"catalog-sync/internal/domain/model"
	"catalog-sync/internal/logging"
	"catalog-sync/pkg/errors"
)

func TestMemoryStore_ProductLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	category := &model.Category{Name: "Постельное белье", Slug: "postelnoe-bele", IsActive: true}
	require.NoError(t, s.CreateCategory(ctx, category))
	require.NotEmpty(t, category.ID)

	product := &model.Product{Sku: "BED001", Slug: "bed001", Title: "Комплект", Price: 2500, CategoryID: category.ID}
	require.NoError(t, s.CreateProduct(ctx, product))
	require.NoError(t, s.CreateVariant(ctx, &model.ProductVariant{ProductID: product.ID, Sku: "BED001-S", Price: 2600}))

	found, err := s.FindProductBySkuOrSlug(ctx, "nope", "bed001")
	require.NoError(t, err)
	assert.Equal(t, product.ID, found.ID)
	assert.Len(t, found.Variants, 1)

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.NotNil(t, products[0].Category)
	assert.Equal(t, "Постельное белье", products[0].Category.Name)

	require.NoError(t, s.DeleteVariantsByProduct(ctx, product.ID))
	found, err = s.FindProductBySkuOrSlug(ctx, "BED001", "")
	require.NoError(t, err)
	assert.Empty(t, found.Variants)
}

func TestMemoryStore_UniqueKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	category := &model.Category{Name: "A", Slug: "a"}
	require.NoError(t, s.CreateCategory(ctx, category))
	assert.Error(t, s.CreateCategory(ctx, &model.Category{Name: "A2", Slug: "a"}))

	require.NoError(t, s.CreateProduct(ctx, &model.Product{Sku: "X", Slug: "x", CategoryID: category.ID}))
	assert.Error(t, s.CreateProduct(ctx, &model.Product{Sku: "X", Slug: "y", CategoryID: category.ID}))
	assert.Error(t, s.CreateProduct(ctx, &model.Product{Sku: "Y", Slug: "x", CategoryID: category.ID}))
	assert.Error(t, s.CreateProduct(ctx, &model.Product{Sku: "Z", Slug: "z"}))
}

func TestMemoryStore_FindPrefersSkuOverSlug(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	category := &model.Category{Name: "A", Slug: "a"}
	require.NoError(t, s.CreateCategory(ctx, category))

	bySku := &model.Product{Sku: "SKU-1", Slug: "first", CategoryID: category.ID}
	bySlug := &model.Product{Sku: "SKU-2", Slug: "second", CategoryID: category.ID}
	require.NoError(t, s.CreateProduct(ctx, bySku))
	require.NoError(t, s.CreateProduct(ctx, bySlug))

	for range 50 {
		found, err := s.FindProductBySkuOrSlug(ctx, "SKU-1", "second")
		require.NoError(t, err)
		assert.Equal(t, bySku.ID, found.ID)
	}

	found, err := s.FindProductBySkuOrSlug(ctx, "missing", "second")
	require.NoError(t, err)
	assert.Equal(t, bySlug.ID, found.ID)
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.FindCategoryBySlug(context.Background(), "missing")

	var notFound *errors.ErrNotFound
	require.True(t, stderrors.As(err, &notFound))
	assert.Equal(t, "category", notFound.Resource)

	err = s.CreateCategory(context.Background(), &model.Category{Name: "child", Slug: "child", ParentID: "ghost"})
	assert.True(t, stderrors.As(err, &notFound))
}

func TestMemoryStore_CategoryTree(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	parent := &model.Category{ID: "p", Name: "Текстиль", Slug: "textile"}
	require.NoError(t, s.CreateCategory(ctx, parent))
	require.NoError(t, s.CreateCategory(ctx, &model.Category{ID: "c", Name: "Пледы", Slug: "pledy", ParentID: "p", SortOrder: 1}))

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "p", categories[0].ID)
	require.Len(t, categories[0].Children, 1)
	assert.Equal(t, "Пледы", categories[0].Children[0].Name)
	require.NotNil(t, categories[1].Parent)
	assert.Equal(t, "Текстиль", categories[1].Parent.Name)
}

func TestOpen_Memory(t *testing.T) {
	st, closeFn, err := Open(context.Background(), &config.Config{StoreDriver: config.StoreDriverMemory}, logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)
	assert.NoError(t, closeFn())

	_, _, err = Open(context.Background(), &config.Config{StoreDriver: "oracle"}, logging.Nop())
	assert.Error(t, err)
}
