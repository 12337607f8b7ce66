package wildberries

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNormalizer() *Normalizer {
	n := NewNormalizer(NewImageResolver("https://basket-%s.wbbasket.ru"))
	n.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	seq := 0
	n.token = func() string {
		seq++
		return fmt.Sprintf("t%03d", seq)
	}
	return n
}

func sizes(names ...string) []SizeOffer {
	out := make([]SizeOffer, 0, len(names))
	for _, name := range names {
		out = append(out, SizeOffer{Name: name, Stock: 10})
	}
	return out
}

func TestNormalize_VariantCounts(t *testing.T) {
	cases := []struct {
		name   string
		sizes  []SizeOffer
		colors []string
		want   int
	}{
		{"sizes x colors", sizes("S", "M", "L"), []string{"red", "blue"}, 6},
		{"sizes only", sizes("S", "M"), nil, 2},
		{"colors only", nil, []string{"red", "blue", "green"}, 3},
		{"neither", nil, nil, 0},
		{"sentinel size only counts as no size", sizes("0"), []string{"red"}, 1},
		{"empty size ignored", sizes("", "M"), nil, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := testNormalizer()
			product := n.Normalize(&Payload{ID: 407325131, Name: "Плед", Sizes: tc.sizes, Colors: tc.colors})
			require.Len(t, product.Variants, tc.want)

			seen := make(map[string]struct{})
			for _, v := range product.Variants {
				_, dup := seen[v.Sku]
				assert.False(t, dup, "duplicate sku %s", v.Sku)
				seen[v.Sku] = struct{}{}
				assert.True(t, strings.HasPrefix(v.Sku, "WB407325131-S"))
			}
		})
	}
}

func TestNormalize_StockSplitFloorsPerColor(t *testing.T) {
	n := testNormalizer()
	product := n.Normalize(&Payload{
		ID:     1,
		Name:   "Simple",
		Sizes:  []SizeOffer{{Name: "M", Stock: 10}, {Name: "L", Stock: 5}},
		Colors: []string{"red", "blue", "green"},
	})

	require.Len(t, product.Variants, 6)
	assert.Equal(t, 3, product.Variants[0].Stock)
	assert.Equal(t, 1, product.Variants[3].Stock)
	assert.Equal(t, 15, product.Stock)
	assert.Equal(t, "M", product.Variants[0].Size)
	assert.Equal(t, "red", product.Variants[0].Color)
	assert.Equal(t, "WB1-S2-C3-", product.Variants[5].Sku[:10])
}

func TestNormalize_ColorsOnlyUsesTotalStock(t *testing.T) {
	n := testNormalizer()
	product := n.Normalize(&Payload{
		ID:     2,
		Sizes:  []SizeOffer{{Name: "0", Stock: 7}},
		Colors: []string{"red", "blue"},
	})
	require.Len(t, product.Variants, 2)
	assert.Equal(t, 3, product.Variants[0].Stock)
	assert.Equal(t, "WB2-S0-C1-", product.Variants[0].Sku[:10])
}

func TestNormalize_PricePriority(t *testing.T) {
	price, old := pickPrice(PriceCandidates{Sale: 900, SaleBasic: 1500, SizeLevel: 1000, Legacy: 1200})
	assert.Equal(t, 900.0, price)
	require.NotNil(t, old)
	assert.Equal(t, 1500.0, *old)

	price, old = pickPrice(PriceCandidates{SizeLevel: 1000, SizeBasic: 1000, Legacy: 1200, LegacyOld: 2000})
	assert.Equal(t, 1000.0, price)
	assert.Nil(t, old)

	price, old = pickPrice(PriceCandidates{Legacy: 1200, LegacyOld: 2000})
	assert.Equal(t, 1200.0, price)
	require.NotNil(t, old)
	assert.Equal(t, 2000.0, *old)
}

func TestNormalize_Fields(t *testing.T) {
	n := testNormalizer()
	product := n.Normalize(&Payload{
		ID:          407325131,
		Name:        "Комплект постельного белья",
		Brand:       "Домотекс",
		Description: "Мягкий сатин.",
		ImageCount:  20,
		Prices:      PriceCandidates{Sale: 2500, SaleBasic: 4000},
		Colors:      []string{"Белый", "белый"},
		Characteristics: []Characteristic{
			{Name: "Состав", Value: "хлопок 100%"},
			{Name: "Материал", Value: "сатин"},
			{Name: "Страна производства", Value: "Россия"},
			{Name: "Назначение", Value: "Домотекс"},
		},
	})

	assert.Equal(t, "Домотекс Комплект постельного белья", product.Title)
	assert.Equal(t, "WB407325131", product.Sku)
	assert.True(t, strings.HasSuffix(product.Slug, "-407325131"))
	assert.Equal(t, "сатин", product.Material)
	assert.Equal(t, []string{"Домотекс", "Белый", "Россия"}, product.Tags)
	assert.Len(t, product.Images, maxImages)
	assert.Equal(t, product.Images[0], product.Thumbnail)
	assert.True(t, strings.HasSuffix(product.Images[13], "/images/big/14.webp"))
	assert.Contains(t, product.Description, "Мягкий сатин.\n\nХарактеристики:\n• Состав: хлопок 100%")
	assert.Equal(t, 2500.0, product.Price)
	require.NotNil(t, product.OldPrice)
	assert.Equal(t, 4000.0, *product.OldPrice)
}

func TestNormalize_MaterialFallsBackToComposition(t *testing.T) {
	p := &Payload{Characteristics: []Characteristic{{Name: "Состав", Value: "лён"}}}
	assert.Equal(t, "лён", guessMaterial(p))
}

func TestNormalize_SizePriceOverridesBase(t *testing.T) {
	n := testNormalizer()
	product := n.Normalize(&Payload{
		ID:     3,
		Prices: PriceCandidates{Legacy: 100},
		Sizes:  []SizeOffer{{Name: "S", Stock: 1, Price: 120}, {Name: "M", Stock: 1}},
	})
	require.Len(t, product.Variants, 2)
	assert.Equal(t, 120.0, product.Variants[0].Price)
	assert.Equal(t, 100.0, product.Variants[1].Price)
}
