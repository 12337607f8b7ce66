package wildberries

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"catalog-sync/internal/domain/model"
)

const maxImages = 14

// tagCharacteristics are the characteristic keys whose values become product tags.
var tagCharacteristics = []string{
	"Страна производства",
	"Назначение",
	"Пол",
	"Сезон",
	"Стиль",
	"Коллекция",
}

type Normalizer struct {
	images *ImageResolver
	now    func() time.Time
	token  func() string
}

func NewNormalizer(images *ImageResolver) *Normalizer {
	return &Normalizer{
		images: images,
		now:    time.Now,
		token: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
		},
	}
}

// Normalize converts a decoded marketplace payload into a product draft with
// generated variants. The draft has no id and no category yet.
func (n *Normalizer) Normalize(p *Payload) model.Product {
	title := p.Name
	if p.Brand != "" {
		title = p.Brand + " " + p.Name
	}
	title = strings.TrimSpace(title)

	price, oldPrice := pickPrice(p.Prices)

	product := model.Product{
		Sku:         marketplaceSku(p.ID),
		Slug:        productSlug(title, p.ID),
		Title:       title,
		Description: describe(p),
		Price:       price,
		OldPrice:    oldPrice,
		Currency:    "RUB",
		Stock:       totalStock(p.Sizes),
		MinOrder:    1,
		Material:    guessMaterial(p),
		Tags:        collectTags(p),
		Images:      n.imageURLs(p),
		IsActive:    true,
		Visibility:  model.VisibilityVisible,
		Tier:        model.TierMiddle,
		SeoTitle:    title,
	}
	if len(product.Images) > 0 {
		product.Thumbnail = product.Images[0]
	}
	product.Variants = n.variants(p, price)
	return product
}

func marketplaceSku(id int64) string {
	return "WB" + strconv.FormatInt(id, 10)
}

func productSlug(title string, id int64) string {
	base := slug.Make(title)
	if base == "" {
		return "wb-" + strconv.FormatInt(id, 10)
	}
	return base + "-" + strconv.FormatInt(id, 10)
}

// pickPrice applies the fixed priority: explicit sale price, then size-level
// price, then legacy card fields.
func pickPrice(c PriceCandidates) (float64, *float64) {
	var price, basic float64
	switch {
	case c.Sale > 0:
		price, basic = c.Sale, c.SaleBasic
	case c.SizeLevel > 0:
		price, basic = c.SizeLevel, c.SizeBasic
	default:
		price, basic = c.Legacy, c.LegacyOld
	}
	if basic > price {
		return price, &basic
	}
	return price, nil
}

func describe(p *Payload) string {
	description := p.Description
	if len(p.Characteristics) == 0 {
		return description
	}
	var b strings.Builder
	b.WriteString(description)
	if description != "" {
		b.WriteString("\n\n")
	}
	b.WriteString("Характеристики:")
	for _, c := range p.Characteristics {
		b.WriteString("\n• ")
		b.WriteString(c.Name)
		b.WriteString(": ")
		b.WriteString(c.Value)
	}
	return b.String()
}

func guessMaterial(p *Payload) string {
	if m := p.characteristic("Материал"); m != "" {
		return m
	}
	return p.characteristic("Состав")
}

func collectTags(p *Payload) []string {
	tags := make([]string, 0)
	seen := make(map[string]struct{})
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		tags = append(tags, v)
	}

	add(p.Brand)
	for _, c := range p.Colors {
		add(c)
	}
	for _, key := range tagCharacteristics {
		add(p.characteristic(key))
	}
	return tags
}

func (n *Normalizer) imageURLs(p *Payload) []string {
	count := p.ImageCount
	if count > maxImages {
		count = maxImages
	}
	urls := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		urls = append(urls, n.images.ImageURL(p.ID, i))
	}
	return urls
}

func totalStock(sizes []SizeOffer) int {
	total := 0
	for _, s := range sizes {
		total += s.Stock
	}
	return total
}

func validSizes(sizes []SizeOffer) []SizeOffer {
	out := make([]SizeOffer, 0, len(sizes))
	for _, s := range sizes {
		if s.Name == "" || s.Name == "0" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// variants builds the size x colour cross product. Stock of a size is split
// evenly across colours with floor division; remainders are dropped.
func (n *Normalizer) variants(p *Payload, basePrice float64) []model.ProductVariant {
	sizes := validSizes(p.Sizes)
	colors := p.Colors
	out := make([]model.ProductVariant, 0, max(len(sizes), 1)*max(len(colors), 1))

	switch {
	case len(sizes) > 0 && len(colors) > 0:
		for si, s := range sizes {
			for ci, color := range colors {
				out = append(out, n.variant(p.ID, si+1, ci+1, s.Name, color, sizePrice(s, basePrice), s.Stock/len(colors)))
			}
		}
	case len(sizes) > 0:
		for si, s := range sizes {
			out = append(out, n.variant(p.ID, si+1, 0, s.Name, "", sizePrice(s, basePrice), s.Stock))
		}
	case len(colors) > 0:
		perColor := totalStock(p.Sizes) / len(colors)
		for ci, color := range colors {
			out = append(out, n.variant(p.ID, 0, ci+1, "", color, basePrice, perColor))
		}
	}
	return out
}

func sizePrice(s SizeOffer, basePrice float64) float64 {
	if s.Price > 0 {
		return s.Price
	}
	return basePrice
}

func (n *Normalizer) variant(id int64, sizeIndex, colorIndex int, size, color string, price float64, stock int) model.ProductVariant {
	return model.ProductVariant{
		Size:     size,
		Color:    color,
		Price:    price,
		Stock:    stock,
		Sku:      n.variantSku(id, sizeIndex, colorIndex),
		IsActive: true,
	}
}

// variantSku is unique across repeated imports of the same marketplace id.
func (n *Normalizer) variantSku(id int64, sizeIndex, colorIndex int) string {
	suffix := strconv.FormatInt(n.now().UnixMilli(), 36) + n.token()
	return fmt.Sprintf("WB%d-S%d-C%d-%s", id, sizeIndex, colorIndex, suffix)
}
