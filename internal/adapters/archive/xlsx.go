package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"catalog-sync/internal/domain/model"
)

const (
	SheetProducts   = "Товары"
	SheetCategories = "Категории"
	SheetSettings   = "Настройки"
)

var productHeaders = []string{
	"ID", "Артикул", "Название", "Слаг", "Описание", "Цена", "Старая цена", "Валюта", "Остаток",
	"Мин. заказ", "Вес", "Размеры", "Материал", "Категория", "Теги", "Изображения", "Миниатюра",
	"Активен", "Рекомендуемый", "Видимость", "Ценовой сегмент", "SEO заголовок", "SEO описание",
	"SEO ключевые слова", "Варианты", "Отзывы", "Рейтинг",
}

var categoryHeaders = []string{
	"ID", "Название", "Слаг", "Описание", "Родительская категория", "Изображение", "Активна",
	"Порядок сортировки", "SEO заголовок", "SEO описание",
}

var settingsHeaders = []string{"Ключ", "Значение"}

func yesNo(v bool) string {
	if v {
		return "Да"
	}
	return "Нет"
}

func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func variantsCell(p model.ExportProduct) string {
	parts := make([]string, 0, len(p.Variants))
	for _, v := range p.Variants {
		label := strings.TrimSpace(strings.Join([]string{v.Size, v.Color}, " "))
		if label == "" {
			label = v.Sku
		}
		parts = append(parts, fmt.Sprintf("%s (%+.2f, %d)", label, v.PriceDelta, v.Stock))
	}
	return strings.Join(parts, ", ")
}

// WriteXLSX writes products, categories and flattened settings on three sheets.
func (w *Writer) WriteXLSX(out io.Writer, doc *model.ExportDocument) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetProducts); err != nil {
		return err
	}
	for _, name := range []string{SheetCategories, SheetSettings} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	productRows := make([][]any, 0, len(doc.Products))
	for _, p := range doc.Products {
		productRows = append(productRows, []any{
			p.ID, p.Sku, p.Title, p.Slug, p.Description, p.Price, optional(p.OldPrice), p.Currency, p.Stock,
			p.MinOrder, optional(p.Weight), p.Dimensions, p.Material, p.Category, strings.Join(p.Tags, ", "),
			strings.Join(p.Images, ", "), p.Thumbnail, yesNo(p.IsActive), yesNo(p.IsFeatured), string(p.Visibility),
			string(p.Tier), p.Seo.Title, p.Seo.Description, p.Seo.Keywords, variantsCell(p), p.Reviews.Count,
			p.Reviews.AverageRating,
		})
	}
	if err := writeSheet(f, SheetProducts, productHeaders, productRows); err != nil {
		return err
	}

	categoryRows := make([][]any, 0, len(doc.Categories))
	for _, c := range doc.Categories {
		categoryRows = append(categoryRows, []any{
			c.ID, c.Name, c.Slug, c.Description, c.Parent, c.Image, yesNo(c.IsActive), c.SortOrder,
			c.Seo.Title, c.Seo.Description,
		})
	}
	if err := writeSheet(f, SheetCategories, categoryHeaders, categoryRows); err != nil {
		return err
	}

	flat := FlattenSettings(doc.Settings)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	settingRows := make([][]any, 0, len(keys))
	for _, k := range keys {
		settingRows = append(settingRows, []any{k, flat[k]})
	}
	if err := writeSheet(f, SheetSettings, settingsHeaders, settingRows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// FlattenSettings turns nested maps into dotted keys. Lists are kept as JSON text.
func FlattenSettings(settings map[string]any) map[string]string {
	out := make(map[string]string)
	flattenInto(out, "", settings)
	return out
}

func flattenInto(out map[string]string, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		for k, child := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flattenInto(out, key, child)
		}
	case nil:
		if prefix != "" {
			out[prefix] = ""
		}
	case string:
		out[prefix] = v
	case []any:
		raw, err := json.Marshal(v)
		if err != nil {
			out[prefix] = fmt.Sprint(v)
			return
		}
		out[prefix] = string(raw)
	default:
		out[prefix] = fmt.Sprint(v)
	}
}
