package store

import (
	"context"

	"catalog-sync/internal/domain/model"
)

// Store is the persistence collaborator of the sync pipeline. Find methods
// return *errors.ErrNotFound when nothing matches.
type Store interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	Settings(ctx context.Context) (map[string]any, error)

	FindProductBySkuOrSlug(ctx context.Context, sku, slug string) (*model.Product, error)
	CreateProduct(ctx context.Context, product *model.Product) error
	UpdateProduct(ctx context.Context, product *model.Product) error

	CreateVariant(ctx context.Context, variant *model.ProductVariant) error
	DeleteVariantsByProduct(ctx context.Context, productID string) error

	FindCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	UpdateCategory(ctx context.Context, category *model.Category) error
}
