package model

import "time"

type Visibility string

const (
	VisibilityVisible Visibility = "VISIBLE"
	VisibilityHidden  Visibility = "HIDDEN"
	VisibilityDraft   Visibility = "DRAFT"
)

// PriceTier is the commercial segment a product is sold in.
type PriceTier string

const (
	TierEconomy PriceTier = "ECONOMY"
	TierMiddle  PriceTier = "MIDDLE"
	TierLuxury  PriceTier = "LUXURY"
)

type Product struct {
	ID             string
	Slug           string
	Sku            string
	Title          string
	Description    string
	Content        string
	Price          float64
	OldPrice       *float64
	Currency       string
	Stock          int
	MinOrder       int
	Weight         *float64
	Dimensions     string
	Material       string
	CategoryID     string
	Category       *Category
	Tags           []string
	Images         []string
	Thumbnail      string
	IsActive       bool
	IsFeatured     bool
	Visibility     Visibility
	Tier           PriceTier
	SeoTitle       string
	SeoDescription string
	SeoKeywords    string
	Variants       []ProductVariant
	Reviews        ReviewSummary
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProductVariant is owned by exactly one product. Price is absolute.
type ProductVariant struct {
	ID        string
	ProductID string
	Size      string
	Color     string
	Material  string
	Price     float64
	Stock     int
	Sku       string
	IsActive  bool
	ImageURL  string
}

type ReviewSummary struct {
	Count         int
	AverageRating float64
}
