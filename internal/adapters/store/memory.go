package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"catalog-sync/internal/domain/model"
	"catalog-sync/pkg/errors"
)

// MemoryStore keeps the catalog in process memory. It enforces the same
// uniqueness rules as the relational schema.
type MemoryStore struct {
	mu         sync.RWMutex
	products   map[string]model.Product
	variants   map[string][]model.ProductVariant
	categories map[string]model.Category
	reviews    map[string]model.ReviewSummary
	settings   map[string]any
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:   make(map[string]model.Product),
		variants:   make(map[string][]model.ProductVariant),
		categories: make(map[string]model.Category),
		reviews:    make(map[string]model.ReviewSummary),
		settings:   make(map[string]any),
		now:        time.Now,
	}
}

func (s *MemoryStore) SetSetting(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
}

func (s *MemoryStore) SetReviews(productID string, summary model.ReviewSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[productID] = summary
}

func (s *MemoryStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		p.Variants = append([]model.ProductVariant(nil), s.variants[p.ID]...)
		p.Reviews = s.reviews[p.ID]
		if c, ok := s.categories[p.CategoryID]; ok {
			p.Category = &c
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Sku < out[j].Sku
	})
	return out, nil
}

func (s *MemoryStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if parent, ok := s.categories[c.ParentID]; ok {
			p := parent
			c.Parent = &p
		}
		c.Children = nil
		for _, child := range s.categories {
			if child.ParentID == c.ID {
				c.Children = append(c.Children, child)
			}
		}
		sort.Slice(c.Children, func(i, j int) bool { return c.Children[i].SortOrder < c.Children[j].SortOrder || (c.Children[i].SortOrder == c.Children[j].SortOrder && c.Children[i].Name < c.Children[j].Name) })
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *MemoryStore) Settings(ctx context.Context) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.settings))
	for k, v := range s.settings {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) FindProductBySkuOrSlug(ctx context.Context, sku, slug string) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// A sku match wins over a slug match on another product.
	match := func(ok func(model.Product) bool) (*model.Product, bool) {
		for _, p := range s.products {
			if ok(p) {
				p.Variants = append([]model.ProductVariant(nil), s.variants[p.ID]...)
				return &p, true
			}
		}
		return nil, false
	}
	if sku != "" {
		if p, ok := match(func(p model.Product) bool { return p.Sku == sku }); ok {
			return p, nil
		}
	}
	if slug != "" {
		if p, ok := match(func(p model.Product) bool { return p.Slug == slug }); ok {
			return p, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "product", ID: sku}
}

func (s *MemoryStore) CreateProduct(ctx context.Context, product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.CategoryID == "" {
		return fmt.Errorf("product %s: category is required", product.Sku)
	}
	if _, ok := s.categories[product.CategoryID]; !ok {
		return &errors.ErrNotFound{Resource: "category", ID: product.CategoryID}
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if _, ok := s.products[product.ID]; ok {
		return fmt.Errorf("product id %s already exists", product.ID)
	}
	for _, p := range s.products {
		if p.Sku == product.Sku {
			return fmt.Errorf("product sku %s already exists", product.Sku)
		}
		if p.Slug == product.Slug {
			return fmt.Errorf("product slug %s already exists", product.Slug)
		}
	}
	now := s.now()
	product.CreatedAt = now
	product.UpdatedAt = now

	stored := *product
	stored.Variants = nil
	stored.Category = nil
	s.products[product.ID] = stored
	return nil
}

func (s *MemoryStore) UpdateProduct(ctx context.Context, product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return &errors.ErrNotFound{Resource: "product", ID: product.ID}
	}
	if _, ok := s.categories[product.CategoryID]; !ok {
		return &errors.ErrNotFound{Resource: "category", ID: product.CategoryID}
	}
	for id, p := range s.products {
		if id == product.ID {
			continue
		}
		if p.Sku == product.Sku || p.Slug == product.Slug {
			return fmt.Errorf("product %s conflicts with %s", product.Sku, id)
		}
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = s.now()

	stored := *product
	stored.Variants = nil
	stored.Category = nil
	s.products[product.ID] = stored
	return nil
}

func (s *MemoryStore) CreateVariant(ctx context.Context, variant *model.ProductVariant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[variant.ProductID]; !ok {
		return &errors.ErrNotFound{Resource: "product", ID: variant.ProductID}
	}
	for _, vs := range s.variants {
		for _, v := range vs {
			if v.Sku == variant.Sku {
				return fmt.Errorf("variant sku %s already exists", variant.Sku)
			}
		}
	}
	if variant.ID == "" {
		variant.ID = uuid.NewString()
	}
	s.variants[variant.ProductID] = append(s.variants[variant.ProductID], *variant)
	return nil
}

func (s *MemoryStore) DeleteVariantsByProduct(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.variants, productID)
	return nil
}

func (s *MemoryStore) FindCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "category", ID: slug}
}

func (s *MemoryStore) CreateCategory(ctx context.Context, category *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category.ParentID != "" {
		if _, ok := s.categories[category.ParentID]; !ok {
			return &errors.ErrNotFound{Resource: "category", ID: category.ParentID}
		}
	}
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	if _, ok := s.categories[category.ID]; ok {
		return fmt.Errorf("category id %s already exists", category.ID)
	}
	for _, c := range s.categories {
		if c.Slug == category.Slug {
			return fmt.Errorf("category slug %s already exists", category.Slug)
		}
	}
	stored := *category
	stored.Parent = nil
	stored.Children = nil
	s.categories[category.ID] = stored
	return nil
}

func (s *MemoryStore) UpdateCategory(ctx context.Context, category *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[category.ID]; !ok {
		return &errors.ErrNotFound{Resource: "category", ID: category.ID}
	}
	if category.ParentID != "" {
		if _, ok := s.categories[category.ParentID]; !ok {
			return &errors.ErrNotFound{Resource: "category", ID: category.ParentID}
		}
	}
	stored := *category
	stored.Parent = nil
	stored.Children = nil
	s.categories[category.ID] = stored
	return nil
}
