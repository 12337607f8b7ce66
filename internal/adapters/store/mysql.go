package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalog-sync/internal/domain/model"
	"catalog-sync/internal/logging"
	"catalog-sync/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

type MySQLStore struct {
	db     *sql.DB
	logger logging.LoggerService
}

func NewMySQLStore(db *sql.DB, logger logging.LoggerService) *MySQLStore {
	if logger == nil {
		logger = logging.Nop()
	}
	return &MySQLStore{db: db, logger: logger}
}

// Migrate creates the catalog tables when they do not exist.
func (s *MySQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("mysql: migrate: %w", err)
	}
	return nil
}

const productColumns = `p.id, p.slug, p.sku, p.title, COALESCE(p.description, ''), COALESCE(p.content, ''),
	p.price, p.old_price, p.currency, p.stock, p.min_order, p.weight, p.dimensions, p.material,
	p.category_id, p.tags, p.images, p.thumbnail, p.is_active, p.is_featured, p.visibility, p.tier,
	p.seo_title, COALESCE(p.seo_description, ''), p.seo_keywords, p.created_at, p.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (model.Product, error) {
	var (
		p          model.Product
		oldPrice   sql.NullFloat64
		weight     sql.NullFloat64
		tags       []byte
		images     []byte
		visibility string
		tier       string
	)
	err := row.Scan(
		&p.ID, &p.Slug, &p.Sku, &p.Title, &p.Description, &p.Content,
		&p.Price, &oldPrice, &p.Currency, &p.Stock, &p.MinOrder, &weight, &p.Dimensions, &p.Material,
		&p.CategoryID, &tags, &images, &p.Thumbnail, &p.IsActive, &p.IsFeatured, &visibility, &tier,
		&p.SeoTitle, &p.SeoDescription, &p.SeoKeywords, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}
	if oldPrice.Valid {
		v := oldPrice.Float64
		p.OldPrice = &v
	}
	if weight.Valid {
		v := weight.Float64
		p.Weight = &v
	}
	p.Visibility = model.Visibility(visibility)
	p.Tier = model.PriceTier(tier)
	if err := json.Unmarshal(tags, &p.Tags); err != nil {
		return p, fmt.Errorf("decode tags of %s: %w", p.Sku, err)
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return p, fmt.Errorf("decode images of %s: %w", p.Sku, err)
	}
	return p, nil
}

func (s *MySQLStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	categoryByID := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		categoryByID[c.ID] = c
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products p ORDER BY p.created_at, p.sku`)
	if err != nil {
		s.logger.LogError("Failed to list products", err)
		return nil, err
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		if c, ok := categoryByID[p.CategoryID]; ok {
			p.Category = &c
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	variants, err := s.variantsByProduct(ctx)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviewSummaries(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Variants = variants[products[i].ID]
		products[i].Reviews = reviews[products[i].ID]
	}
	return products, nil
}

func (s *MySQLStore) variantsByProduct(ctx context.Context) (map[string][]model.ProductVariant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, size, color, material, price, stock, sku, is_active, image_url
		FROM product_variants
		ORDER BY product_id, sku
	`)
	if err != nil {
		s.logger.LogError("Failed to list variants", err)
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]model.ProductVariant)
	for rows.Next() {
		var v model.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.Material, &v.Price, &v.Stock, &v.Sku, &v.IsActive, &v.ImageURL); err != nil {
			return nil, err
		}
		out[v.ProductID] = append(out[v.ProductID], v)
	}
	return out, rows.Err()
}

func (s *MySQLStore) reviewSummaries(ctx context.Context) (map[string]model.ReviewSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT product_id, COUNT(*), COALESCE(AVG(rating), 0) FROM reviews GROUP BY product_id`)
	if err != nil {
		s.logger.LogError("Failed to summarize reviews", err)
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]model.ReviewSummary)
	for rows.Next() {
		var (
			productID string
			summary   model.ReviewSummary
		)
		if err := rows.Scan(&productID, &summary.Count, &summary.AverageRating); err != nil {
			return nil, err
		}
		out[productID] = summary
	}
	return out, rows.Err()
}

func (s *MySQLStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, COALESCE(description, ''), image, COALESCE(parent_id, ''),
			is_active, sort_order, seo_title, COALESCE(seo_description, '')
		FROM categories
		ORDER BY sort_order, name
	`)
	if err != nil {
		s.logger.LogError("Failed to list categories", err)
		return nil, err
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byID := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	for i := range categories {
		if parent, ok := byID[categories[i].ParentID]; ok {
			categories[i].Parent = &parent
		}
		for _, child := range categories {
			if child.ParentID == categories[i].ID {
				categories[i].Children = append(categories[i].Children, child)
			}
		}
	}
	return categories, nil
}

func scanCategory(row rowScanner) (model.Category, error) {
	var c model.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.ParentID,
		&c.IsActive, &c.SortOrder, &c.SeoTitle, &c.SeoDescription)
	return c, err
}

func (s *MySQLStore) Settings(ctx context.Context) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT `key`, `value` FROM settings")
	if err != nil {
		s.logger.LogError("Failed to read settings", err)
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]any)
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			s.logger.LogWarning("Setting is not valid JSON, exported as text", zap.String("key", key))
			value = string(raw)
		}
		out[key] = value
	}
	return out, rows.Err()
}

func (s *MySQLStore) FindProductBySkuOrSlug(ctx context.Context, sku, slug string) (*model.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.sku = ? OR p.slug = ? ORDER BY p.sku = ? DESC LIMIT 1`, sku, slug, sku)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product", ID: sku}
	}
	if err != nil {
		s.logger.LogError("Failed to find product", err, zap.String("sku", sku), zap.String("slug", slug))
		return nil, err
	}
	return &p, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func jsonList(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func (s *MySQLStore) CreateProduct(ctx context.Context, product *model.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	tags, err := jsonList(product.Tags)
	if err != nil {
		return err
	}
	images, err := jsonList(product.Images)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO products (id, slug, sku, title, description, content, price, old_price, currency, stock,
			min_order, weight, dimensions, material, category_id, tags, images, thumbnail, is_active,
			is_featured, visibility, tier, seo_title, seo_description, seo_keywords, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		product.ID, product.Slug, product.Sku, product.Title, product.Description, product.Content,
		product.Price, nullFloat(product.OldPrice), product.Currency, product.Stock, product.MinOrder,
		nullFloat(product.Weight), product.Dimensions, product.Material, product.CategoryID, tags, images,
		product.Thumbnail, product.IsActive, product.IsFeatured, string(product.Visibility), string(product.Tier),
		product.SeoTitle, product.SeoDescription, product.SeoKeywords, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		s.logger.LogError("Failed to create product", err, zap.String("sku", product.Sku))
		return err
	}
	return nil
}

func (s *MySQLStore) UpdateProduct(ctx context.Context, product *model.Product) error {
	product.UpdatedAt = time.Now().UTC()

	tags, err := jsonList(product.Tags)
	if err != nil {
		return err
	}
	images, err := jsonList(product.Images)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE products SET slug = ?, sku = ?, title = ?, description = ?, content = ?, price = ?, old_price = ?,
			currency = ?, stock = ?, min_order = ?, weight = ?, dimensions = ?, material = ?, category_id = ?,
			tags = ?, images = ?, thumbnail = ?, is_active = ?, is_featured = ?, visibility = ?, tier = ?,
			seo_title = ?, seo_description = ?, seo_keywords = ?, updated_at = ?
		WHERE id = ?
	`,
		product.Slug, product.Sku, product.Title, product.Description, product.Content, product.Price,
		nullFloat(product.OldPrice), product.Currency, product.Stock, product.MinOrder, nullFloat(product.Weight),
		product.Dimensions, product.Material, product.CategoryID, tags, images, product.Thumbnail,
		product.IsActive, product.IsFeatured, string(product.Visibility), string(product.Tier),
		product.SeoTitle, product.SeoDescription, product.SeoKeywords, product.UpdatedAt, product.ID,
	)
	if err != nil {
		s.logger.LogError("Failed to update product", err, zap.String("sku", product.Sku))
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, product.ID).Scan(&exists); err == sql.ErrNoRows {
			return &errors.ErrNotFound{Resource: "product", ID: product.ID}
		}
	}
	return nil
}

func (s *MySQLStore) CreateVariant(ctx context.Context, variant *model.ProductVariant) error {
	if variant.ID == "" {
		variant.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_variants (id, product_id, size, color, material, price, stock, sku, is_active, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		variant.ID, variant.ProductID, variant.Size, variant.Color, variant.Material, variant.Price,
		variant.Stock, variant.Sku, variant.IsActive, variant.ImageURL,
	)
	if err != nil {
		s.logger.LogError("Failed to create variant", err, zap.String("sku", variant.Sku))
		return err
	}
	return nil
}

func (s *MySQLStore) DeleteVariantsByProduct(ctx context.Context, productID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM product_variants WHERE product_id = ?`, productID); err != nil {
		s.logger.LogError("Failed to delete variants", err, zap.String("product_id", productID))
		return err
	}
	return nil
}

func (s *MySQLStore) FindCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, slug, COALESCE(description, ''), image, COALESCE(parent_id, ''),
			is_active, sort_order, seo_title, COALESCE(seo_description, '')
		FROM categories
		WHERE slug = ?
	`, slug)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "category", ID: slug}
	}
	if err != nil {
		s.logger.LogError("Failed to find category", err, zap.String("slug", slug))
		return nil, err
	}
	return &c, nil
}

func (s *MySQLStore) CreateCategory(ctx context.Context, category *model.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, slug, description, image, parent_id, is_active, sort_order, seo_title, seo_description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		category.ID, category.Name, category.Slug, category.Description, category.Image, nullString(category.ParentID),
		category.IsActive, category.SortOrder, category.SeoTitle, category.SeoDescription,
	)
	if err != nil {
		s.logger.LogError("Failed to create category", err, zap.String("slug", category.Slug))
		return err
	}
	return nil
}

func (s *MySQLStore) UpdateCategory(ctx context.Context, category *model.Category) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, slug = ?, description = ?, image = ?, parent_id = ?, is_active = ?,
			sort_order = ?, seo_title = ?, seo_description = ?
		WHERE id = ?
	`,
		category.Name, category.Slug, category.Description, category.Image, nullString(category.ParentID),
		category.IsActive, category.SortOrder, category.SeoTitle, category.SeoDescription, category.ID,
	)
	if err != nil {
		s.logger.LogError("Failed to update category", err, zap.String("slug", category.Slug))
		return err
	}
	return nil
}
