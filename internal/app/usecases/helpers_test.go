package usecases

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"catalog-sync/internal/adapters/archive"
	"catalog-sync/internal/adapters/store"
	"catalog-sync/internal/domain/model"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

type fakeDownloader struct {
	files map[string][]byte
}

func (f *fakeDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	if data, ok := f.files[url]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("404 %s", url)
}

type fakeStorage struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: make(map[string][]byte)}
}

func (s *fakeStorage) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[fileName] = data
	return "/uploads/" + fileName, nil
}

func ptr[T any](v T) *T {
	return &v
}

// seedCatalog stores a two-level category tree and one product with two variants.
func seedCatalog(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()

	parent := &model.Category{ID: "cat-textile", Name: "Текстиль", Slug: "tekstil", IsActive: true, SortOrder: 1}
	child := &model.Category{ID: "cat-plaids", Name: "Пледы", Slug: "pledy", ParentID: parent.ID, Image: "/uploads/cat.png", IsActive: true, SortOrder: 2}
	require.NoError(t, st.CreateCategory(ctx, parent))
	require.NoError(t, st.CreateCategory(ctx, child))

	product := &model.Product{
		ID:          "prod-1",
		Slug:        "pled-flanel",
		Sku:         "PLAID-1",
		Title:       "Плед фланель",
		Description: "Мягкий плед",
		Price:       1000,
		OldPrice:    ptr(1300.0),
		Currency:    "RUB",
		Stock:       12,
		MinOrder:    1,
		Weight:      ptr(0.9),
		Dimensions:  "150x200",
		Material:    "Фланель",
		CategoryID:  child.ID,
		Tags:        []string{"плед", "фланель"},
		Images:      []string{"https://cdn/a/1.webp", "https://cdn/b/1.webp", "/uploads/x.jpg"},
		Thumbnail:   "https://cdn/a/1.webp",
		IsActive:    true,
		Visibility:  model.VisibilityVisible,
		Tier:        model.TierMiddle,
		SeoTitle:    "Плед фланель купить",
	}
	require.NoError(t, st.CreateProduct(ctx, product))
	require.NoError(t, st.CreateVariant(ctx, &model.ProductVariant{ProductID: product.ID, Size: "150x200", Color: "серый", Price: 1200, Stock: 6, Sku: "PLAID-1-S1-C1", IsActive: true, ImageURL: "https://cdn/v/1.webp"}))
	require.NoError(t, st.CreateVariant(ctx, &model.ProductVariant{ProductID: product.ID, Size: "150x200", Color: "синий", Price: 950.5, Stock: 6, Sku: "PLAID-1-S1-C2", IsActive: true}))

	st.SetReviews(product.ID, model.ReviewSummary{Count: 3, AverageRating: 4.5})
	st.SetSetting("store", map[string]any{"name": "Домотекс", "currency": "RUB"})
	return st
}

func writeArchive(t *testing.T, doc *model.ExportDocument, downloader *fakeDownloader) []byte {
	t.Helper()
	if doc.ExportedAt.IsZero() {
		doc.ExportedAt = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	}
	var buf bytes.Buffer
	var w *archive.Writer
	if downloader != nil {
		w = archive.NewWriter(downloader, nil, 1)
	} else {
		w = archive.NewWriter(nil, nil, 1)
	}
	_, err := w.WriteZIP(context.Background(), &buf, doc)
	require.NoError(t, err)
	return buf.Bytes()
}

func zipWithout(t *testing.T, name string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create(name)
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
