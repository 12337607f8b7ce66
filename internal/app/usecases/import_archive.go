package usecases

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"catalog-sync/internal/adapters/archive"
	"catalog-sync/internal/adapters/media"
	"catalog-sync/internal/adapters/store"
	"catalog-sync/internal/domain/model"
	"catalog-sync/internal/logging"
	"catalog-sync/pkg/errors"
)

type ArchiveOptions struct {
	SkipExisting   bool `json:"skipExisting"`
	UpdateExisting bool `json:"updateExisting"`
	ImportMedia    bool `json:"importMedia"`
}

type ImportArchiveService interface {
	Run(ctx context.Context, data []byte, opts ArchiveOptions) (*model.ImportResult, error)
}

type ArchiveImport struct {
	store   store.Store
	storage media.StorageService
	logger  logging.LoggerService
}

func NewImportArchive(st store.Store, storage media.StorageService, logger logging.LoggerService) ImportArchiveService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ArchiveImport{
		store:   st,
		storage: storage,
		logger:  logger,
	}
}

// Run restores an export archive. Categories go first, then products with
// their variants, then media. Per-item problems never stop the run.
func (a *ArchiveImport) Run(ctx context.Context, data []byte, opts ArchiveOptions) (*model.ImportResult, error) {
	arc, err := archive.ReadZIP(data)
	if err != nil {
		return nil, err
	}
	doc := arc.Document

	order, err := categoryOrder(doc.Categories)
	if err != nil {
		return nil, err
	}

	a.logger.Log("Archive import started",
		zap.String("schema_version", doc.SchemaVersion),
		zap.Int("products", len(doc.Products)),
		zap.Int("categories", len(doc.Categories)),
		zap.Int("media", len(doc.MediaIndex)),
	)
	result := model.NewImportResult()

	// Document category name or slug, case-folded, to store id.
	resolved := make(map[string]string, len(doc.Categories)*2)
	for _, i := range order {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		c := doc.Categories[i]
		result.Processed.Categories++
		id, err := a.importCategory(ctx, c, resolved, opts, result)
		if err != nil {
			result.AddError("category %s: %v", c.Name, err)
			continue
		}
		if id != "" {
			resolved[foldKey(c.Name)] = id
			resolved[foldKey(c.Slug)] = id
		}
	}

	for _, p := range doc.Products {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Processed.Products++
		result.Processed.Variants += len(p.Variants)

		categoryID, ok := resolved[foldKey(p.Category)]
		if !ok || p.Category == "" {
			result.AddSkipped(p.Sku)
			result.AddError("product %s: category %q is not in the archive", p.Sku, p.Category)
			continue
		}
		if err := a.importProduct(ctx, p, categoryID, opts, result); err != nil {
			result.AddError("product %s: %v", p.Sku, err)
		}
	}

	if opts.ImportMedia {
		a.importMedia(ctx, arc, result)
	}

	a.logger.LogSuccess(fmt.Sprintf(
		"Archive import completed products=%d/%d categories=%d/%d media=%d errors=%d",
		result.Created.Products+result.Updated.Products,
		result.Processed.Products,
		result.Created.Categories+result.Updated.Categories,
		result.Processed.Categories,
		result.Created.Media,
		len(result.Errors),
	))
	return result, nil
}

// categoryOrder puts parents before children. Parents outside the document
// are resolved against the store later.
func categoryOrder(categories []model.ExportCategory) ([]int, error) {
	index := make(map[string]int, len(categories)*2)
	for i, c := range categories {
		index["slug:"+foldKey(c.Slug)] = i
		index["name:"+foldKey(c.Name)] = i
	}
	order, err := topoSort(len(categories), func(i int) []int {
		if j, ok := parentIndex(categories[i], index); ok && j != i {
			return []int{j}
		}
		return nil
	})
	if stderrors.Is(err, errCycle) {
		return nil, &errors.ErrStructural{Message: "category tree in archive has a cycle"}
	}
	return order, err
}

func parentIndex(c model.ExportCategory, index map[string]int) (int, bool) {
	if c.ParentSlug != "" {
		if j, ok := index["slug:"+foldKey(c.ParentSlug)]; ok {
			return j, true
		}
	}
	if c.Parent != "" {
		if j, ok := index["name:"+foldKey(c.Parent)]; ok {
			return j, true
		}
	}
	return 0, false
}

func (a *ArchiveImport) importCategory(ctx context.Context, c model.ExportCategory, resolved map[string]string, opts ArchiveOptions, result *model.ImportResult) (string, error) {
	parentID, err := a.resolveParent(ctx, c, resolved)
	if err != nil {
		return "", err
	}

	existing, err := a.store.FindCategoryBySlug(ctx, c.Slug)
	if err != nil && !isNotFound(err) {
		return "", fmt.Errorf("find category: %w", err)
	}

	switch reconcile(existing != nil, opts.SkipExisting, opts.UpdateExisting) {
	case actionSkip:
		result.AddSkipped(c.Name)
		if !opts.SkipExisting {
			result.AddWarning("category %s already exists, skipped", c.Name)
		}
		return existing.ID, nil

	case actionUpdate:
		applyCategory(existing, c, parentID)
		if err := a.store.UpdateCategory(ctx, existing); err != nil {
			return "", fmt.Errorf("update category: %w", err)
		}
		result.Updated.Categories++
		return existing.ID, nil

	default:
		category := &model.Category{ID: c.ID}
		applyCategory(category, c, parentID)
		if err := a.store.CreateCategory(ctx, category); err != nil {
			return "", fmt.Errorf("create category: %w", err)
		}
		result.Created.Categories++
		return category.ID, nil
	}
}

func (a *ArchiveImport) resolveParent(ctx context.Context, c model.ExportCategory, resolved map[string]string) (string, error) {
	if c.ParentSlug == "" && c.Parent == "" {
		return "", nil
	}
	for _, key := range []string{c.ParentSlug, c.Parent} {
		if id, ok := resolved[foldKey(key)]; ok && key != "" {
			return id, nil
		}
	}
	if c.ParentSlug != "" {
		parent, err := a.store.FindCategoryBySlug(ctx, c.ParentSlug)
		if err == nil {
			return parent.ID, nil
		}
		if !isNotFound(err) {
			return "", fmt.Errorf("find parent category: %w", err)
		}
	}
	return "", fmt.Errorf("parent category %q not found", firstNonEmpty(c.ParentSlug, c.Parent))
}

func applyCategory(dst *model.Category, c model.ExportCategory, parentID string) {
	dst.Name = c.Name
	dst.Slug = c.Slug
	dst.Description = c.Description
	dst.Image = c.Image
	dst.ParentID = parentID
	dst.IsActive = c.IsActive
	dst.SortOrder = c.SortOrder
	dst.SeoTitle = c.Seo.Title
	dst.SeoDescription = c.Seo.Description
	dst.Parent = nil
	dst.Children = nil
}

func (a *ArchiveImport) importProduct(ctx context.Context, p model.ExportProduct, categoryID string, opts ArchiveOptions, result *model.ImportResult) error {
	existing, err := a.store.FindProductBySkuOrSlug(ctx, p.Sku, p.Slug)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("find product: %w", err)
	}

	switch reconcile(existing != nil, opts.SkipExisting, opts.UpdateExisting) {
	case actionSkip:
		result.AddSkipped(p.Sku)
		if !opts.SkipExisting {
			result.AddWarning("product %s already exists, skipped", p.Sku)
		}
		return nil

	case actionUpdate:
		applyProduct(existing, p, categoryID)
		if err := a.store.UpdateProduct(ctx, existing); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if err := a.store.DeleteVariantsByProduct(ctx, existing.ID); err != nil {
			return fmt.Errorf("delete variants: %w", err)
		}
		result.Updated.Products++
		result.Updated.Variants += a.importVariants(ctx, existing, p.Variants, result)
		return nil

	default:
		product := &model.Product{ID: p.ID}
		applyProduct(product, p, categoryID)
		if err := a.store.CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		result.Created.Products++
		result.Created.Variants += a.importVariants(ctx, product, p.Variants, result)
		return nil
	}
}

// importVariants writes variants with absolute prices: the product's base
// price plus the stored delta.
func (a *ArchiveImport) importVariants(ctx context.Context, product *model.Product, variants []model.ExportVariant, result *model.ImportResult) int {
	created := 0
	for _, v := range variants {
		variant := &model.ProductVariant{
			ProductID: product.ID,
			Size:      v.Size,
			Color:     v.Color,
			Material:  v.Material,
			Price:     applyDelta(product.Price, v.PriceDelta),
			Stock:     v.Stock,
			Sku:       v.Sku,
			IsActive:  v.IsActive,
			ImageURL:  v.ImageURL,
		}
		if err := a.store.CreateVariant(ctx, variant); err != nil {
			result.AddError("product %s: variant %s: %v", product.Sku, v.Sku, err)
			continue
		}
		created++
	}
	return created
}

func applyProduct(dst *model.Product, p model.ExportProduct, categoryID string) {
	dst.Slug = p.Slug
	dst.Sku = p.Sku
	dst.Title = p.Title
	dst.Description = p.Description
	dst.Content = p.Content
	dst.Price = p.Price
	dst.OldPrice = p.OldPrice
	dst.Currency = p.Currency
	dst.Stock = p.Stock
	dst.MinOrder = p.MinOrder
	dst.Weight = p.Weight
	dst.Dimensions = p.Dimensions
	dst.Material = p.Material
	dst.CategoryID = categoryID
	dst.Category = nil
	dst.Tags = nonNil(p.Tags)
	dst.Images = nonNil(p.Images)
	dst.Thumbnail = p.Thumbnail
	dst.IsActive = p.IsActive
	dst.IsFeatured = p.IsFeatured
	dst.Visibility = p.Visibility
	dst.Tier = p.Tier
	dst.SeoTitle = p.Seo.Title
	dst.SeoDescription = p.Seo.Description
	dst.SeoKeywords = p.Seo.Keywords
	dst.Variants = nil
	if dst.Visibility == "" {
		dst.Visibility = model.VisibilityVisible
	}
	if dst.Currency == "" {
		dst.Currency = "RUB"
	}
}

// importMedia copies indexed files from media/ into storage. Missing or
// unwritable files are warnings.
func (a *ArchiveImport) importMedia(ctx context.Context, arc *archive.Archive, result *model.ImportResult) {
	if a.storage == nil {
		result.AddWarning("media import requested but no storage is configured")
		return
	}
	for _, entry := range arc.Document.MediaIndex {
		if ctx.Err() != nil {
			return
		}
		result.Processed.Media++

		data, err := arc.MediaFile(entry.FileName)
		if err != nil {
			result.AddWarning("media %s: %v", entry.FileName, err)
			continue
		}
		if entry.MimeType != "" && !mimetype.Detect(data).Is(entry.MimeType) {
			result.AddWarning("media %s: content is %s, index says %s", entry.FileName, mimetype.Detect(data).String(), entry.MimeType)
		}
		if _, err := a.storage.Save(ctx, entry.FileName, data); err != nil {
			result.AddWarning("media %s: %v", entry.FileName, err)
			continue
		}
		result.Created.Media++
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
