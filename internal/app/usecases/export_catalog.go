package usecases

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"catalog-sync/internal/adapters/archive"
	"catalog-sync/internal/adapters/store"
	"catalog-sync/internal/domain/model"
	"catalog-sync/internal/logging"
	"catalog-sync/pkg/errors"
)

type ExportFormat string

const (
	FormatZIP  ExportFormat = "zip"
	FormatJSON ExportFormat = "json"
	FormatXLSX ExportFormat = "xlsx"
)

// ParseExportFormat defaults to zip.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatZIP, nil
	case FormatZIP, FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", &errors.ErrValidation{Message: fmt.Sprintf("unknown export format %q", raw), Fields: map[string]string{"format": "oneof=zip json xlsx"}}
	}
}

func (f ExportFormat) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/zip"
	}
}

type ExportCatalogService interface {
	Collect(ctx context.Context) (*model.ExportDocument, error)
	Run(ctx context.Context, out io.Writer, format ExportFormat) (model.Attempts, error)
}

type CatalogExport struct {
	store  store.Store
	writer *archive.Writer
	logger logging.LoggerService
	now    func() time.Time
}

func NewExportCatalog(st store.Store, writer *archive.Writer, logger logging.LoggerService) ExportCatalogService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &CatalogExport{
		store:  st,
		writer: writer,
		logger: logger,
		now:    time.Now,
	}
}

// Run collects the catalog and writes it in the requested format. The
// returned attempts are the media downloads of a zip export.
func (e *CatalogExport) Run(ctx context.Context, out io.Writer, format ExportFormat) (model.Attempts, error) {
	e.logger.Log("Catalog export started", zap.String("format", string(format)))

	doc, err := e.Collect(ctx)
	if err != nil {
		e.logger.LogError("Error collect catalog", err)
		return nil, err
	}

	var attempts model.Attempts
	switch format {
	case FormatJSON:
		err = e.writer.WriteJSON(out, doc)
	case FormatXLSX:
		err = e.writer.WriteXLSX(out, doc)
	case FormatZIP:
		attempts, err = e.writer.WriteZIP(ctx, out, doc)
	default:
		_, err = ParseExportFormat(string(format))
	}
	if err != nil {
		e.logger.LogError("Error write export", err, zap.String("format", string(format)))
		return attempts, err
	}

	e.logger.LogSuccess(fmt.Sprintf(
		"Catalog export completed format=%s products=%d categories=%d media=%d",
		format,
		len(doc.Products),
		len(doc.Categories),
		len(doc.MediaIndex),
	))
	return attempts, nil
}

// Collect reads the whole catalog into a fresh export document.
func (e *CatalogExport) Collect(ctx context.Context) (*model.ExportDocument, error) {
	products, err := e.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	settings, err := e.store.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if settings == nil {
		settings = map[string]any{}
	}

	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	media := newMediaIndex()
	doc := &model.ExportDocument{
		SchemaVersion: model.ExportSchemaVersion,
		ExportedAt:    e.now().UTC(),
		Products:      make([]model.ExportProduct, 0, len(products)),
		Categories:    make([]model.ExportCategory, 0, len(categories)),
		Settings:      settings,
	}

	for _, p := range products {
		doc.Products = append(doc.Products, exportProduct(p, names))
		for _, img := range p.Images {
			media.add(img)
		}
		media.add(p.Thumbnail)
		for _, v := range p.Variants {
			media.add(v.ImageURL)
		}
	}
	for _, c := range categories {
		doc.Categories = append(doc.Categories, exportCategory(c))
		media.add(c.Image)
	}
	doc.MediaIndex = media.entries
	return doc, nil
}

func exportProduct(p model.Product, categoryNames map[string]string) model.ExportProduct {
	category := categoryNames[p.CategoryID]
	if p.Category != nil {
		category = p.Category.Name
	}
	out := model.ExportProduct{
		ID:          p.ID,
		Slug:        p.Slug,
		Sku:         p.Sku,
		Title:       p.Title,
		Description: p.Description,
		Content:     p.Content,
		Price:       p.Price,
		OldPrice:    p.OldPrice,
		Currency:    p.Currency,
		Stock:       p.Stock,
		MinOrder:    p.MinOrder,
		Weight:      p.Weight,
		Dimensions:  p.Dimensions,
		Material:    p.Material,
		Category:    category,
		Tags:        nonNil(p.Tags),
		Images:      nonNil(p.Images),
		Thumbnail:   p.Thumbnail,
		IsActive:    p.IsActive,
		IsFeatured:  p.IsFeatured,
		Visibility:  p.Visibility,
		Tier:        p.Tier,
		Seo: model.ExportSeo{
			Title:       p.SeoTitle,
			Description: p.SeoDescription,
			Keywords:    p.SeoKeywords,
		},
		Variants: make([]model.ExportVariant, 0, len(p.Variants)),
		Reviews: model.ExportReviews{
			Count:         p.Reviews.Count,
			AverageRating: p.Reviews.AverageRating,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for _, v := range p.Variants {
		out.Variants = append(out.Variants, model.ExportVariant{
			Sku:        v.Sku,
			Size:       v.Size,
			Color:      v.Color,
			Material:   v.Material,
			PriceDelta: priceDelta(v.Price, p.Price),
			Stock:      v.Stock,
			IsActive:   v.IsActive,
			ImageURL:   v.ImageURL,
		})
	}
	return out
}

func exportCategory(c model.Category) model.ExportCategory {
	out := model.ExportCategory{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Image:       c.Image,
		IsActive:    c.IsActive,
		SortOrder:   c.SortOrder,
		Seo: model.ExportSeo{
			Title:       c.SeoTitle,
			Description: c.SeoDescription,
		},
	}
	if c.Parent != nil {
		out.Parent = c.Parent.Name
		out.ParentSlug = c.Parent.Slug
	}
	for _, child := range c.Children {
		out.Children = append(out.Children, child.Name)
	}
	return out
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
	".svg":  "image/svg+xml",
	".mp4":  "video/mp4",
}

// mediaIndex deduplicates media by URL. File names stay unique inside the
// archive: a second URL with the same basename gets a numeric suffix.
type mediaIndex struct {
	entries []model.MediaEntry
	byURL   map[string]struct{}
	names   map[string]struct{}
}

func newMediaIndex() *mediaIndex {
	return &mediaIndex{
		entries: []model.MediaEntry{},
		byURL:   make(map[string]struct{}),
		names:   make(map[string]struct{}),
	}
}

func (m *mediaIndex) add(rawURL string) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return
	}
	if _, ok := m.byURL[rawURL]; ok {
		return
	}
	m.byURL[rawURL] = struct{}{}

	name := mediaFileName(rawURL)
	ext := strings.ToLower(path.Ext(name))
	unique := name
	for i := 2; ; i++ {
		if _, taken := m.names[unique]; !taken {
			break
		}
		unique = strings.TrimSuffix(name, path.Ext(name)) + "-" + strconv.Itoa(i) + path.Ext(name)
	}
	m.names[unique] = struct{}{}

	mimeType, ok := mimeTypes[ext]
	if !ok {
		mimeType = "application/octet-stream"
	}
	m.entries = append(m.entries, model.MediaEntry{
		FileName:    unique,
		Checksum:    checksum(rawURL),
		OriginalURL: rawURL,
		MimeType:    mimeType,
	})
}

func mediaFileName(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}

// checksum is a sanity tag for humans, not an integrity check.
func checksum(rawURL string) string {
	sum := base64.StdEncoding.EncodeToString([]byte(rawURL))
	if len(sum) > 16 {
		sum = sum[:16]
	}
	return sum
}
