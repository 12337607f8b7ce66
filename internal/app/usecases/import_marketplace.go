package usecases

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"catalog-sync/internal/adapters/store"
	"catalog-sync/internal/adapters/wildberries"
	"catalog-sync/internal/domain/model"
	"catalog-sync/internal/logging"
	"catalog-sync/pkg/errors"
)

type MarketplaceOptions struct {
	CategoryID     string `json:"categoryId"`
	SkipExisting   bool   `json:"skipExisting"`
	UpdateExisting bool   `json:"updateExisting"`
	VerifyImages   bool   `json:"verifyImages"`
}

type ImportMarketplaceService interface {
	Run(ctx context.Context, urls []string, opts MarketplaceOptions) (*model.ImportResult, error)
}

type MarketplaceImport struct {
	fetcher    wildberries.FetcherService
	normalizer *wildberries.Normalizer
	store      store.Store
	logger     logging.LoggerService
}

func NewImportMarketplace(fetcher wildberries.FetcherService, normalizer *wildberries.Normalizer, st store.Store, logger logging.LoggerService) ImportMarketplaceService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &MarketplaceImport{
		fetcher:    fetcher,
		normalizer: normalizer,
		store:      st,
		logger:     logger,
	}
}

// Run imports each marketplace URL into the target category. A product that
// cannot be fetched is an error for that URL only.
func (m *MarketplaceImport) Run(ctx context.Context, urls []string, opts MarketplaceOptions) (*model.ImportResult, error) {
	if err := m.checkCategory(ctx, opts.CategoryID); err != nil {
		return nil, err
	}

	m.logger.Log("Marketplace import started", zap.Int("urls", len(urls)), zap.String("category_id", opts.CategoryID))
	result := model.NewImportResult()

	for _, raw := range urls {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		result.Processed.Products++

		id, ok := wildberries.ExtractProductID(raw)
		if !ok {
			result.AddError("%s: cannot extract product id", raw)
			continue
		}

		payload, attempts, err := m.fetcher.FetchProduct(ctx, id)
		if err != nil {
			m.logger.LogWarning("Marketplace product unavailable",
				zap.Int64("product_id", id),
				zap.String("attempts", attempts.String()),
			)
			result.AddError("%s: %v", raw, err)
			continue
		}

		product := m.normalizer.Normalize(payload)
		product.CategoryID = opts.CategoryID
		if opts.VerifyImages {
			m.verifyImages(ctx, &product, result)
		}
		result.Processed.Variants += len(product.Variants)

		if err := m.save(ctx, &product, opts, result); err != nil {
			result.AddError("%s: %v", raw, err)
		}
	}

	m.logger.LogSuccess(fmt.Sprintf(
		"Marketplace import completed processed=%d created=%d updated=%d errors=%d",
		result.Processed.Products,
		result.Created.Products,
		result.Updated.Products,
		len(result.Errors),
	))
	return result, nil
}

func (m *MarketplaceImport) checkCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return &errors.ErrValidation{Message: "category id is required", Fields: map[string]string{"categoryId": "required"}}
	}
	categories, err := m.store.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	for _, c := range categories {
		if c.ID == categoryID {
			return nil
		}
	}
	return &errors.ErrNotFound{Resource: "category", ID: categoryID}
}

func (m *MarketplaceImport) verifyImages(ctx context.Context, product *model.Product, result *model.ImportResult) {
	kept := make([]string, 0, len(product.Images))
	for _, url := range product.Images {
		if m.fetcher.ImageExists(ctx, url) {
			kept = append(kept, url)
			continue
		}
		result.AddWarning("%s: image %s is unreachable", product.Sku, url)
	}
	product.Images = kept
	product.Thumbnail = ""
	if len(kept) > 0 {
		product.Thumbnail = kept[0]
	}
}

func (m *MarketplaceImport) save(ctx context.Context, product *model.Product, opts MarketplaceOptions, result *model.ImportResult) error {
	existing, err := m.store.FindProductBySkuOrSlug(ctx, product.Sku, "")
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("find product: %w", err)
	}

	switch reconcile(existing != nil, opts.SkipExisting, opts.UpdateExisting) {
	case actionSkip:
		result.AddSkipped(product.Sku)
		if !opts.SkipExisting {
			result.AddWarning("%s already exists, skipped", product.Sku)
		}
		return nil

	case actionUpdate:
		product.ID = existing.ID
		product.Slug = existing.Slug
		if err := m.store.UpdateProduct(ctx, product); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if err := m.store.DeleteVariantsByProduct(ctx, product.ID); err != nil {
			return fmt.Errorf("delete variants: %w", err)
		}
		result.Updated.Products++
		result.Updated.Variants += m.createVariants(ctx, product, result)
		return nil

	default:
		if err := m.store.CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		result.Created.Products++
		result.Created.Variants += m.createVariants(ctx, product, result)
		return nil
	}
}

func (m *MarketplaceImport) createVariants(ctx context.Context, product *model.Product, result *model.ImportResult) int {
	created := 0
	for i := range product.Variants {
		v := &product.Variants[i]
		v.ProductID = product.ID
		if err := m.store.CreateVariant(ctx, v); err != nil {
			result.AddError("%s: variant %s: %v", product.Sku, v.Sku, err)
			continue
		}
		created++
	}
	return created
}
