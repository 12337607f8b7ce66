package model

import "time"

const ExportSchemaVersion = "1.0"

// ExportDocument is the self-contained catalog snapshot written to ZIP/JSON/XLSX.
// Categories are referenced by name and variant prices are deltas from the
// product base price.
type ExportDocument struct {
	SchemaVersion string           `json:"schemaVersion"`
	ExportedAt    time.Time        `json:"exportedAt"`
	Products      []ExportProduct  `json:"products"`
	Categories    []ExportCategory `json:"categories"`
	MediaIndex    []MediaEntry     `json:"mediaIndex"`
	Settings      map[string]any   `json:"settings"`
}

type ExportProduct struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Sku         string          `json:"sku"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Content     string          `json:"content,omitempty"`
	Price       float64         `json:"price"`
	OldPrice    *float64        `json:"oldPrice,omitempty"`
	Currency    string          `json:"currency"`
	Stock       int             `json:"stock"`
	MinOrder    int             `json:"minOrder"`
	Weight      *float64        `json:"weight,omitempty"`
	Dimensions  string          `json:"dimensions,omitempty"`
	Material    string          `json:"material,omitempty"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags"`
	Images      []string        `json:"images"`
	Thumbnail   string          `json:"thumbnail,omitempty"`
	IsActive    bool            `json:"isActive"`
	IsFeatured  bool            `json:"isFeatured"`
	Visibility  Visibility      `json:"visibility"`
	Tier        PriceTier       `json:"tier,omitempty"`
	Seo         ExportSeo       `json:"seo"`
	Variants    []ExportVariant `json:"variants"`
	Reviews     ExportReviews   `json:"reviews"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type ExportVariant struct {
	Sku        string  `json:"sku"`
	Size       string  `json:"size,omitempty"`
	Color      string  `json:"color,omitempty"`
	Material   string  `json:"material,omitempty"`
	PriceDelta float64 `json:"priceDelta"`
	Stock      int     `json:"stock"`
	IsActive   bool    `json:"isActive"`
	ImageURL   string  `json:"imageUrl,omitempty"`
}

type ExportSeo struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
}

type ExportReviews struct {
	Count         int     `json:"count"`
	AverageRating float64 `json:"averageRating"`
}

type ExportCategory struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	Parent      string    `json:"parent,omitempty"`
	ParentSlug  string    `json:"parentSlug,omitempty"`
	Children    []string  `json:"children,omitempty"`
	IsActive    bool      `json:"isActive"`
	SortOrder   int       `json:"sortOrder"`
	Seo         ExportSeo `json:"seo"`
}

// MediaEntry describes one file referenced by the catalog. FileName is the
// URL basename and the entry name under media/ in the archive.
type MediaEntry struct {
	FileName    string `json:"fileName"`
	Checksum    string `json:"checksum"`
	OriginalURL string `json:"originalUrl"`
	MimeType    string `json:"mimeType"`
}
