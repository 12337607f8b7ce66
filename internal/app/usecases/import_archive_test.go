package usecases

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-sync/internal/adapters/store"
	"catalog-sync/internal/domain/model"
	"catalog-sync/internal/logging"
	"catalog-sync/pkg/errors"
)

// comparable strips fields the store rewrites on every save.
func comparableProducts(products []model.Product) []model.Product {
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		p.UpdatedAt = p.CreatedAt
		p.Category = nil
		variants := make([]model.ProductVariant, 0, len(p.Variants))
		for _, v := range p.Variants {
			v.ID = ""
			variants = append(variants, v)
		}
		p.Variants = variants
		out = append(out, p)
	}
	return out
}

func TestImportArchive_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := seedCatalog(t)
	before, err := st.ListProducts(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = newExport(st, nil).Run(ctx, &buf, FormatZIP)
	require.NoError(t, err)

	result, err := NewImportArchive(st, newFakeStorage(), logging.Nop()).Run(ctx, buf.Bytes(), ArchiveOptions{UpdateExisting: true})
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.Updated.Categories)
	assert.Equal(t, 1, result.Updated.Products)
	assert.Equal(t, 2, result.Updated.Variants)

	after, err := st.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, comparableProducts(before), comparableProducts(after))
	require.Len(t, after[0].Variants, 2)
	assert.Equal(t, 1200.0, after[0].Variants[0].Price)
	assert.Equal(t, 950.5, after[0].Variants[1].Price)
}

func TestImportArchive_DeltaFollowsBasePrice(t *testing.T) {
	ctx := context.Background()
	st := seedCatalog(t)
	doc, err := newExport(st, nil).Collect(ctx)
	require.NoError(t, err)
	doc.Products[0].Price = 2000

	result, err := NewImportArchive(st, nil, nil).Run(ctx, writeArchive(t, doc, nil), ArchiveOptions{UpdateExisting: true})
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	product, err := st.FindProductBySkuOrSlug(ctx, "PLAID-1", "")
	require.NoError(t, err)
	require.Len(t, product.Variants, 2)
	assert.Equal(t, 2200.0, product.Variants[0].Price)
	assert.Equal(t, 1950.5, product.Variants[1].Price)
}

func TestImportArchive_IntoEmptyStore(t *testing.T) {
	ctx := context.Background()
	doc, err := newExport(seedCatalog(t), nil).Collect(ctx)
	require.NoError(t, err)

	target := store.NewMemoryStore()
	result, err := NewImportArchive(target, nil, nil).Run(ctx, writeArchive(t, doc, nil), ArchiveOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, model.EntityCounts{Products: 1, Categories: 2, Variants: 2}, result.Created)

	child, err := target.FindCategoryBySlug(ctx, "pledy")
	require.NoError(t, err)
	assert.Equal(t, "cat-plaids", child.ID)
	assert.Equal(t, "cat-textile", child.ParentID)

	product, err := target.FindProductBySkuOrSlug(ctx, "PLAID-1", "")
	require.NoError(t, err)
	assert.Equal(t, "prod-1", product.ID)
	assert.Equal(t, "cat-plaids", product.CategoryID)
}

func TestImportArchive_ChildBeforeParentInDocument(t *testing.T) {
	ctx := context.Background()
	doc := &model.ExportDocument{
		SchemaVersion: model.ExportSchemaVersion,
		Categories: []model.ExportCategory{
			{ID: "c2", Name: "Пледы", Slug: "pledy", Parent: "Текстиль", ParentSlug: "tekstil"},
			{ID: "c1", Name: "Текстиль", Slug: "tekstil"},
		},
		Products:   []model.ExportProduct{},
		MediaIndex: []model.MediaEntry{},
	}
	st := store.NewMemoryStore()

	result, err := NewImportArchive(st, nil, nil).Run(ctx, writeArchive(t, doc, nil), ArchiveOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.Created.Categories)
}

func TestImportArchive_ExistingRecords(t *testing.T) {
	ctx := context.Background()
	st := seedCatalog(t)
	doc, err := newExport(st, nil).Collect(ctx)
	require.NoError(t, err)
	data := writeArchive(t, doc, nil)

	result, err := NewImportArchive(st, nil, nil).Run(ctx, data, ArchiveOptions{SkipExisting: true, UpdateExisting: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Текстиль", "Пледы", "PLAID-1"}, result.Skipped)
	assert.Empty(t, result.Warnings)
	assert.Zero(t, result.Updated.Products)

	result, err = NewImportArchive(st, nil, nil).Run(ctx, data, ArchiveOptions{})
	require.NoError(t, err)
	assert.Len(t, result.Skipped, 3)
	assert.Len(t, result.Warnings, 3)
}

func TestImportArchive_CategoryMissingFromDocument(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.CreateCategory(ctx, &model.Category{ID: "cat-x", Name: "Шторы", Slug: "shtory"}))

	doc := &model.ExportDocument{
		SchemaVersion: model.ExportSchemaVersion,
		Products: []model.ExportProduct{
			{Sku: "CUR-1", Slug: "curtain", Title: "Штора", Price: 10, Category: "Шторы"},
		},
		Categories: []model.ExportCategory{},
		MediaIndex: []model.MediaEntry{},
	}

	result, err := NewImportArchive(st, nil, nil).Run(ctx, writeArchive(t, doc, nil), ArchiveOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"CUR-1"}, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Шторы")
	assert.Zero(t, result.Created.Products)

	_, err = st.FindProductBySkuOrSlug(ctx, "CUR-1", "")
	assert.True(t, isNotFound(err))
}

func TestImportArchive_UnknownParent(t *testing.T) {
	ctx := context.Background()
	doc := &model.ExportDocument{
		SchemaVersion: model.ExportSchemaVersion,
		Categories:    []model.ExportCategory{{ID: "c2", Name: "Пледы", Slug: "pledy", Parent: "Текстиль", ParentSlug: "tekstil"}},
		Products:      []model.ExportProduct{{Sku: "P1", Slug: "p1", Title: "Плед", Category: "Пледы"}},
		MediaIndex:    []model.MediaEntry{},
	}

	result, err := NewImportArchive(store.NewMemoryStore(), nil, nil).Run(ctx, writeArchive(t, doc, nil), ArchiveOptions{})
	require.NoError(t, err)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], `parent category "tekstil" not found`)
	assert.Equal(t, []string{"P1"}, result.Skipped)
}

func TestImportArchive_CategoryCycle(t *testing.T) {
	doc := &model.ExportDocument{
		SchemaVersion: model.ExportSchemaVersion,
		Categories: []model.ExportCategory{
			{Name: "A", Slug: "a", ParentSlug: "b"},
			{Name: "B", Slug: "b", ParentSlug: "a"},
		},
	}

	_, err := NewImportArchive(store.NewMemoryStore(), nil, nil).Run(context.Background(), writeArchive(t, doc, nil), ArchiveOptions{})
	var structural *errors.ErrStructural
	assert.True(t, stderrors.As(err, &structural))
}

func TestImportArchive_EmptyCatalog(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	_, err := newExport(store.NewMemoryStore(), nil).Run(ctx, &buf, FormatZIP)
	require.NoError(t, err)

	result, err := NewImportArchive(store.NewMemoryStore(), newFakeStorage(), nil).Run(ctx, buf.Bytes(), ArchiveOptions{ImportMedia: true})
	require.NoError(t, err)
	assert.Equal(t, model.EntityCounts{}, result.Processed)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestImportArchive_Media(t *testing.T) {
	ctx := context.Background()
	doc := &model.ExportDocument{
		SchemaVersion: model.ExportSchemaVersion,
		Categories:    []model.ExportCategory{},
		Products:      []model.ExportProduct{},
		MediaIndex: []model.MediaEntry{
			{FileName: "a.png", OriginalURL: "https://cdn/a.png", MimeType: "image/png"},
			{FileName: "b.jpg", OriginalURL: "https://cdn/b.jpg", MimeType: "image/jpeg"},
		},
	}
	data := writeArchive(t, doc, &fakeDownloader{files: map[string][]byte{"https://cdn/a.png": pngBytes}})
	storage := newFakeStorage()

	result, err := NewImportArchive(store.NewMemoryStore(), storage, nil).Run(ctx, data, ArchiveOptions{ImportMedia: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed.Media)
	assert.Equal(t, 1, result.Created.Media)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "b.jpg")
	assert.Equal(t, pngBytes, storage.saved["a.png"])
}

func TestImportArchive_MissingDataJSON(t *testing.T) {
	_, err := NewImportArchive(store.NewMemoryStore(), nil, nil).Run(context.Background(), zipWithout(t, "README.md"), ArchiveOptions{})
	var structural *errors.ErrStructural
	require.True(t, stderrors.As(err, &structural))
	assert.Contains(t, err.Error(), "data.json")
}

func TestReconcile(t *testing.T) {
	assert.Equal(t, actionCreate, reconcile(false, true, true))
	assert.Equal(t, actionSkip, reconcile(true, true, true))
	assert.Equal(t, actionUpdate, reconcile(true, false, true))
	assert.Equal(t, actionSkip, reconcile(true, false, false))
}

func TestTopoSort(t *testing.T) {
	order, err := topoSort(4, func(i int) []int {
		return map[int][]int{0: {2}, 1: {0}, 3: nil}[i]
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1, 3}, order)

	_, err = topoSort(2, func(i int) []int { return []int{1 - i} })
	assert.ErrorIs(t, err, errCycle)
}
