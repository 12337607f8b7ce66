package store

import (
	"context"
	stderrors "errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-sync/internal/domain/model"
	"catalog-sync/pkg/errors"
)

func TestMySQLStore_FindProductNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM products p WHERE p.sku = ? OR p.slug = ? ORDER BY p.sku = ? DESC LIMIT 1")).
		WithArgs("BED001", "bed001", "BED001").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	s := NewMySQLStore(db, nil)
	_, err = s.FindProductBySkuOrSlug(context.Background(), "BED001", "bed001")

	var notFound *errors.ErrNotFound
	require.True(t, stderrors.As(err, &notFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_FindProductDecodesJSONColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "slug", "sku", "title", "description", "content", "price", "old_price", "currency", "stock",
		"min_order", "weight", "dimensions", "material", "category_id", "tags", "images", "thumbnail",
		"is_active", "is_featured", "visibility", "tier", "seo_title", "seo_description", "seo_keywords",
		"created_at", "updated_at",
	}).AddRow(
		"p1", "bed001", "BED001", "Комплект", "", "", 2500.0, 3000.0, "RUB", 10,
		1, nil, "", "сатин", "c1", []byte(`["сатин","евро"]`), []byte(`["/uploads/a.jpg"]`), "",
		true, false, "VISIBLE", "MIDDLE", "", "", "", now, now,
	)
	mock.ExpectQuery("FROM products p WHERE").WillReturnRows(rows)

	s := NewMySQLStore(db, nil)
	p, err := s.FindProductBySkuOrSlug(context.Background(), "BED001", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"сатин", "евро"}, p.Tags)
	assert.Equal(t, []string{"/uploads/a.jpg"}, p.Images)
	require.NotNil(t, p.OldPrice)
	assert.Equal(t, 3000.0, *p.OldPrice)
	assert.Nil(t, p.Weight)
	assert.Equal(t, model.VisibilityVisible, p.Visibility)
}

func TestMySQLStore_CreateVariantAssignsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO product_variants").
		WithArgs(sqlmock.AnyArg(), "p1", "M", "red", "", 2600.0, 3, "BED001-M", true, "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	s := NewMySQLStore(db, nil)
	v := &model.ProductVariant{ProductID: "p1", Size: "M", Color: "red", Price: 2600, Stock: 3, Sku: "BED001-M", IsActive: true}
	require.NoError(t, s.CreateVariant(context.Background(), v))
	assert.NotEmpty(t, v.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
