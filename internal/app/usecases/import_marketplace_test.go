package usecases

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-sync/internal/adapters/store"
	"catalog-sync/internal/adapters/wildberries"
	"catalog-sync/internal/config"
	"catalog-sync/internal/domain/model"
	"catalog-sync/internal/logging"
	"catalog-sync/pkg/errors"
)

const plaidID = 407325131

type fakeFetcher struct {
	payloads      map[int64]*wildberries.Payload
	missingImages map[string]bool
}

func (f *fakeFetcher) FetchProduct(ctx context.Context, productID int64) (*wildberries.Payload, model.Attempts, error) {
	if p, ok := f.payloads[productID]; ok {
		copied := *p
		return &copied, model.Attempts{{Target: "v4", StatusCode: 200}}, nil
	}
	attempts := model.Attempts{{Target: "v4", StatusCode: 404, Err: fmt.Errorf("status 404")}}
	return nil, attempts, &wildberries.UnavailableError{ProductID: productID, Attempts: attempts}
}

func (f *fakeFetcher) ImageExists(ctx context.Context, url string) bool {
	return !f.missingImages[url]
}

func plaidPayload() *wildberries.Payload {
	return &wildberries.Payload{
		ID:         plaidID,
		Name:       "Плед велсофт",
		Brand:      "Домотекс",
		ImageCount: 3,
		Prices:     wildberries.PriceCandidates{Sale: 1490, SaleBasic: 2990},
		Colors:     []string{"серый", "бежевый"},
		Sizes:      []wildberries.SizeOffer{{Name: "150x200", Stock: 9}},
	}
}

func marketplaceFixture(t *testing.T) (*store.MemoryStore, *fakeFetcher, ImportMarketplaceService) {
	t.Helper()
	st := store.NewMemoryStore()
	require.NoError(t, st.CreateCategory(context.Background(), &model.Category{ID: "cat-plaids", Name: "Пледы", Slug: "pledy"}))

	fetcher := &fakeFetcher{payloads: map[int64]*wildberries.Payload{plaidID: plaidPayload()}}
	normalizer := wildberries.NewNormalizer(wildberries.NewImageResolver(config.DefaultImageHost))
	return st, fetcher, NewImportMarketplace(fetcher, normalizer, st, logging.Nop())
}

func TestImportMarketplace_CreatesProduct(t *testing.T) {
	st, _, uc := marketplaceFixture(t)
	ctx := context.Background()

	result, err := uc.Run(ctx, []string{
		"https://www.wildberries.ru/catalog/407325131/detail.aspx",
		"not a product link",
		"123456",
	}, MarketplaceOptions{CategoryID: "cat-plaids"})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Processed.Products)
	assert.Equal(t, 1, result.Created.Products)
	assert.Equal(t, 2, result.Created.Variants)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "cannot extract product id")
	assert.Contains(t, result.Errors[1], "123456")

	product, err := st.FindProductBySkuOrSlug(ctx, "WB407325131", "")
	require.NoError(t, err)
	assert.Equal(t, "Домотекс Плед велсофт", product.Title)
	assert.Equal(t, "cat-plaids", product.CategoryID)
	assert.Equal(t, 1490.0, product.Price)
	assert.Len(t, product.Images, 3)
	require.Len(t, product.Variants, 2)
	for _, v := range product.Variants {
		assert.Equal(t, 4, v.Stock)
	}
}

func TestImportMarketplace_Reconcile(t *testing.T) {
	st, fetcher, uc := marketplaceFixture(t)
	ctx := context.Background()
	urls := []string{"407325131"}

	_, err := uc.Run(ctx, urls, MarketplaceOptions{CategoryID: "cat-plaids"})
	require.NoError(t, err)

	result, err := uc.Run(ctx, urls, MarketplaceOptions{CategoryID: "cat-plaids"})
	require.NoError(t, err)
	assert.Equal(t, []string{"WB407325131"}, result.Skipped)
	assert.Len(t, result.Warnings, 1)

	result, err = uc.Run(ctx, urls, MarketplaceOptions{CategoryID: "cat-plaids", SkipExisting: true, UpdateExisting: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"WB407325131"}, result.Skipped)
	assert.Empty(t, result.Warnings)

	fetcher.payloads[plaidID].Prices.Sale = 1290
	result, err = uc.Run(ctx, urls, MarketplaceOptions{CategoryID: "cat-plaids", UpdateExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated.Products)
	assert.Equal(t, 2, result.Updated.Variants)
	assert.Empty(t, result.Errors)

	products, err := st.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 1290.0, products[0].Price)
	assert.Len(t, products[0].Variants, 2)
}

func TestImportMarketplace_VerifyImages(t *testing.T) {
	st, fetcher, uc := marketplaceFixture(t)
	ctx := context.Background()
	broken := wildberries.NewImageResolver(config.DefaultImageHost).ImageURL(plaidID, 1)
	fetcher.missingImages = map[string]bool{broken: true}

	result, err := uc.Run(ctx, []string{"407325131"}, MarketplaceOptions{CategoryID: "cat-plaids", VerifyImages: true})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], broken)

	product, err := st.FindProductBySkuOrSlug(ctx, "WB407325131", "")
	require.NoError(t, err)
	assert.Len(t, product.Images, 2)
	assert.NotContains(t, product.Images, broken)
	assert.Equal(t, product.Images[0], product.Thumbnail)
}

func TestImportMarketplace_Category(t *testing.T) {
	_, _, uc := marketplaceFixture(t)

	_, err := uc.Run(context.Background(), []string{"407325131"}, MarketplaceOptions{})
	var validation *errors.ErrValidation
	assert.True(t, stderrors.As(err, &validation))

	_, err = uc.Run(context.Background(), []string{"407325131"}, MarketplaceOptions{CategoryID: "missing"})
	var notFound *errors.ErrNotFound
	assert.True(t, stderrors.As(err, &notFound))
}
