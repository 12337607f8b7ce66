package usecases

import (
	"bytes"
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"catalog-sync/internal/adapters/store"
	"catalog-sync/internal/domain/model"
	"catalog-sync/internal/logging"
	"catalog-sync/pkg/errors"
)

var requiredColumns = []string{"sku", "title", "category", "price", "stock"}

type CSVOptions struct {
	ValidateOnly    bool              `json:"validateOnly"`
	UpdateExisting  bool              `json:"updateExisting"`
	SkipInvalid     bool              `json:"skipInvalid"`
	CategoryMapping map[string]string `json:"categoryMapping"`
}

type ImportCSVService interface {
	Run(ctx context.Context, r io.Reader, opts CSVOptions) (*model.ImportResult, error)
}

type CSVImport struct {
	store    store.Store
	validate *validator.Validate
	logger   logging.LoggerService
}

func NewImportCSV(st store.Store, logger logging.LoggerService) ImportCSVService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &CSVImport{
		store:    st,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// csvRow is one data row after parsing. Line is the spreadsheet row number.
type csvRow struct {
	Line           int
	Sku            string  `validate:"required"`
	Title          string  `validate:"required"`
	Category       string  `validate:"required"`
	Price          float64 `validate:"gte=0"`
	Stock          int     `validate:"gte=0"`
	OldPrice       *float64
	Weight         *float64 `validate:"omitnil,gte=0"`
	Description    string
	Material       string
	Size           string
	Dimensions     string
	Tags           []string
	Images         []string
	SeoTitle       string
	SeoDescription string
	Slug           string
	Visibility     string
	ProductID      string
	Currency       string
}

var fieldMessages = map[string]string{
	"Sku":      "sku is required",
	"Title":    "title is required",
	"Category": "category is required",
	"Price":    "price must be a non-negative number",
	"Stock":    "stock must be a non-negative integer",
	"Weight":   "weight must be a non-negative number",
}

func (c *CSVImport) Run(ctx context.Context, r io.Reader, opts CSVOptions) (*model.ImportResult, error) {
	header, records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &errors.ErrStructural{Message: "missing required columns: " + strings.Join(missing, ", ")}
	}

	categories, err := c.categoryLookup(ctx, opts.CategoryMapping)
	if err != nil {
		return nil, err
	}

	c.logger.Log("CSV import started", zap.Int("rows", len(records)), zap.Bool("validate_only", opts.ValidateOnly))
	result := model.NewImportResult()

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		line := i + 2
		result.Processed.Products++

		if err := c.importRow(ctx, line, record, columns, categories, opts, result); err != nil {
			result.AddError("row %d: %v", line, err)
			if !opts.SkipInvalid {
				c.logger.LogWarning("CSV import stopped at invalid row", zap.Int("row", line), zap.Error(err))
				break
			}
		}
	}

	c.logger.LogSuccess(fmt.Sprintf(
		"CSV import completed processed=%d created=%d updated=%d errors=%d warnings=%d",
		result.Processed.Products,
		result.Created.Products,
		result.Updated.Products,
		len(result.Errors),
		len(result.Warnings),
	))
	return result, nil
}

// readCSV strips a UTF-8 BOM and guesses the delimiter from the header line.
func readCSV(r io.Reader) ([]string, [][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, &errors.ErrStructural{Message: "cannot parse csv", Err: err}
	}
	if len(records) == 0 {
		return nil, nil, &errors.ErrStructural{Message: "csv has no header row"}
	}
	return records[0], records[1:], nil
}

func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// categoryLookup maps case-folded category names and slugs to ids. Caller
// overrides win.
func (c *CSVImport) categoryLookup(ctx context.Context, overrides map[string]string) (map[string]string, error) {
	categories, err := c.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	lookup := make(map[string]string, len(categories)*2+len(overrides))
	for _, cat := range categories {
		lookup[foldKey(cat.Name)] = cat.ID
		lookup[foldKey(cat.Slug)] = cat.ID
	}
	for name, id := range overrides {
		lookup[foldKey(name)] = id
	}
	return lookup, nil
}

func (c *CSVImport) importRow(ctx context.Context, line int, record []string, columns map[string]int, categories map[string]string, opts CSVOptions, result *model.ImportResult) error {
	row, err := c.parseRow(line, record, columns)
	if err != nil {
		return err
	}
	if row.OldPrice != nil && *row.OldPrice <= row.Price {
		result.AddWarning("row %d: old price %.2f is not greater than price %.2f, ignored", line, *row.OldPrice, row.Price)
		row.OldPrice = nil
	}

	categoryID, ok := categories[foldKey(row.Category)]
	if !ok {
		return fmt.Errorf("category %q not found", row.Category)
	}
	if opts.ValidateOnly {
		return nil
	}

	existing, err := c.store.FindProductBySkuOrSlug(ctx, row.Sku, row.Slug)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("find product: %w", err)
	}

	if existing != nil {
		if !opts.UpdateExisting {
			result.AddSkipped(row.Sku)
			result.AddWarning("row %d: product %s already exists, skipped", line, row.Sku)
			return nil
		}
		row.apply(existing, categoryID)
		if err := c.store.UpdateProduct(ctx, existing); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		result.Updated.Products++
		result.AddWarning("row %d: product %s updated", line, row.Sku)
		if row.Size != "" {
			result.Processed.Variants++
			if err := c.store.DeleteVariantsByProduct(ctx, existing.ID); err != nil {
				result.AddWarning("row %d: product %s written without size variant: delete variants: %v", line, row.Sku, err)
				return nil
			}
			if c.createSizeVariant(ctx, existing, row, line, result) {
				result.Updated.Variants++
			}
		}
		return nil
	}

	product := &model.Product{
		ID:       row.ProductID,
		Sku:      row.Sku,
		Slug:     row.Slug,
		MinOrder: 1,
		IsActive: true,
		Currency: "RUB",
	}
	if product.Slug == "" {
		product.Slug = slug.Make(row.Title + " " + row.Sku)
	}
	row.apply(product, categoryID)
	if err := c.store.CreateProduct(ctx, product); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	result.Created.Products++
	if row.Size != "" {
		result.Processed.Variants++
		if c.createSizeVariant(ctx, product, row, line, result) {
			result.Created.Variants++
		}
	}
	return nil
}

// createSizeVariant runs after the product is written, so a failed variant
// is a warning on that product and never fails the row.
func (c *CSVImport) createSizeVariant(ctx context.Context, product *model.Product, row *csvRow, line int, result *model.ImportResult) bool {
	variant := &model.ProductVariant{
		ProductID: product.ID,
		Size:      row.Size,
		Material:  row.Material,
		Price:     product.Price,
		Stock:     product.Stock,
		Sku:       product.Sku + "-" + slug.Make(row.Size),
		IsActive:  true,
	}
	if err := c.store.CreateVariant(ctx, variant); err != nil {
		result.AddWarning("row %d: product %s written without size variant %s: %v", line, product.Sku, variant.Sku, err)
		return false
	}
	return true
}

func (c *CSVImport) parseRow(line int, record []string, columns map[string]int) (*csvRow, error) {
	get := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := &csvRow{
		Line:           line,
		Sku:            get("sku"),
		Title:          get("title"),
		Category:       get("category"),
		Description:    get("description"),
		Material:       get("material"),
		Size:           get("size"),
		Dimensions:     get("dimensions"),
		Tags:           splitList(get("tags")),
		Images:         splitList(get("images")),
		SeoTitle:       get("seo_title"),
		SeoDescription: get("seo_description"),
		Slug:           get("slug"),
		Visibility:     get("visibility"),
		ProductID:      get("product_id"),
		Currency:       strings.ToUpper(get("currency")),
	}

	var problems []string
	if raw := get("price"); raw != "" {
		price, err := parseNumber(raw)
		if err != nil {
			problems = append(problems, fieldMessages["Price"])
		}
		row.Price = price
	} else {
		problems = append(problems, "price is required")
	}
	if raw := get("stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			problems = append(problems, fieldMessages["Stock"])
		}
		row.Stock = stock
	} else {
		problems = append(problems, "stock is required")
	}
	if raw := get("old_price"); raw != "" {
		v, err := parseNumber(raw)
		if err != nil {
			problems = append(problems, "old price must be a number")
		} else {
			row.OldPrice = &v
		}
	}
	if raw := get("weight"); raw != "" {
		v, err := parseNumber(raw)
		if err != nil {
			problems = append(problems, fieldMessages["Weight"])
		} else {
			row.Weight = &v
		}
	}

	if err := c.validate.Struct(row); err != nil {
		var fieldErrs validator.ValidationErrors
		if !stderrors.As(err, &fieldErrs) {
			return nil, err
		}
		for _, fe := range fieldErrs {
			msg := fieldMessages[fe.Field()]
			if msg == "" {
				msg = fe.Error()
			}
			if !contains(problems, msg) {
				problems = append(problems, msg)
			}
		}
	}

	if len(problems) > 0 {
		fields := make(map[string]string, len(problems))
		for _, p := range problems {
			fields[strings.Fields(p)[0]] = p
		}
		return nil, &errors.ErrValidation{Message: strings.Join(problems, "; "), Fields: fields}
	}
	return row, nil
}

// apply copies row values onto a product. Optional columns only overwrite
// when the cell is non-empty.
func (row *csvRow) apply(p *model.Product, categoryID string) {
	p.Title = row.Title
	p.CategoryID = categoryID
	p.Category = nil
	p.Price = row.Price
	p.OldPrice = row.OldPrice
	p.Stock = row.Stock
	p.Tier = classifyTier(row.Category)
	if row.Visibility != "" || p.Visibility == "" {
		p.Visibility = classifyVisibility(row.Visibility)
	}
	if row.Description != "" {
		p.Description = row.Description
	}
	if row.Material != "" {
		p.Material = row.Material
	}
	if row.Dimensions != "" {
		p.Dimensions = row.Dimensions
	}
	if row.Weight != nil {
		p.Weight = row.Weight
	}
	if len(row.Tags) > 0 {
		p.Tags = row.Tags
	}
	if len(row.Images) > 0 {
		p.Images = row.Images
		p.Thumbnail = row.Images[0]
	}
	if row.SeoTitle != "" {
		p.SeoTitle = row.SeoTitle
	}
	if row.SeoDescription != "" {
		p.SeoDescription = row.SeoDescription
	}
	if row.Currency != "" {
		p.Currency = row.Currency
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
}

var (
	luxuryKeywords  = []string{"люкс", "премиум", "элит", "luxury", "premium", "elite"}
	economyKeywords = []string{"эконом", "бюджет", "economy", "budget", "basic"}
	hiddenKeywords  = []string{"скрыт", "hidden", "hide", "невидим"}
	draftKeywords   = []string{"черновик", "draft"}
)

func classifyTier(text string) model.PriceTier {
	switch {
	case containsAny(text, luxuryKeywords):
		return model.TierLuxury
	case containsAny(text, economyKeywords):
		return model.TierEconomy
	default:
		return model.TierMiddle
	}
}

func classifyVisibility(text string) model.Visibility {
	switch {
	case containsAny(text, draftKeywords):
		return model.VisibilityDraft
	case containsAny(text, hiddenKeywords):
		return model.VisibilityHidden
	default:
		return model.VisibilityVisible
	}
}

func containsAny(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var errNotFinite = stderrors.New("number is not finite")

// parseNumber accepts spaces as thousands separators. A single comma followed
// by one or two digits is a decimal comma ("1,5", "3 100,50"); any other
// comma separates thousands ("2,500", "1,234.50").
func parseNumber(raw string) (float64, error) {
	cleaned := strings.NewReplacer(" ", "", "\u00a0", "").Replace(raw)
	if isDecimalComma(cleaned) {
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errNotFinite
	}
	return v, nil
}

func isDecimalComma(s string) bool {
	if strings.Count(s, ",") != 1 || strings.Contains(s, ".") {
		return false
	}
	frac := s[strings.IndexByte(s, ',')+1:]
	if len(frac) < 1 || len(frac) > 2 {
		return false
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
