package wildberries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"catalog-sync/internal/adapters/wildberries/dto"
)

// Payload is the single internal shape every card API version is decoded into.
// Prices are in roubles.
type Payload struct {
	ID              int64
	Schema          string
	Name            string
	Brand           string
	Description     string
	ImageCount      int
	Prices          PriceCandidates
	Colors          []string
	Sizes           []SizeOffer
	Characteristics []Characteristic
}

// PriceCandidates keeps every price source the card carried; the normalizer picks one.
type PriceCandidates struct {
	Sale      float64
	SaleBasic float64
	SizeLevel float64
	SizeBasic float64
	Legacy    float64
	LegacyOld float64
}

type SizeOffer struct {
	Name  string
	Stock int
	Price float64
}

type Characteristic struct {
	Name  string
	Value string
}

var errNoProducts = errors.New("response has no products")

// decodeCardResponse tries the v4 envelope first, then the nested v1/v2 one.
func decodeCardResponse(body []byte) (dto.Card, string, error) {
	var resp dto.CardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return dto.Card{}, "", fmt.Errorf("decode card response: %w", err)
	}
	if len(resp.Products) > 0 {
		return resp.Products[0], "v4", nil
	}
	if resp.Data != nil && len(resp.Data.Products) > 0 {
		return resp.Data.Products[0], "v2", nil
	}
	return dto.Card{}, "", errNoProducts
}

func kopecks(v int64) float64 {
	return float64(v) / 100
}

func toPayload(card dto.Card, schema string) *Payload {
	p := &Payload{
		ID:          card.ID,
		Schema:      schema,
		Name:        strings.TrimSpace(card.Name),
		Brand:       strings.TrimSpace(card.Brand),
		Description: strings.TrimSpace(card.Description),
		ImageCount:  card.Pics,
	}

	if card.Extended != nil {
		p.Prices.Sale = kopecks(card.Extended.ClientPriceU)
		p.Prices.SaleBasic = kopecks(card.Extended.BasicPriceU)
	}
	p.Prices.Legacy = kopecks(card.SalePriceU)
	p.Prices.LegacyOld = kopecks(card.PriceU)
	if p.Prices.Legacy == 0 {
		p.Prices.Legacy = p.Prices.LegacyOld
	}

	for _, c := range card.Colors {
		if name := strings.TrimSpace(c.Name); name != "" {
			p.Colors = append(p.Colors, name)
		}
	}

	for _, s := range card.Sizes {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			name = strings.TrimSpace(s.OrigName)
		}
		offer := SizeOffer{Name: name}
		for _, st := range s.Stocks {
			offer.Stock += st.Qty
		}
		if s.Price != nil && s.Price.Product > 0 {
			offer.Price = kopecks(s.Price.Product)
			if p.Prices.SizeLevel == 0 {
				p.Prices.SizeLevel = offer.Price
				p.Prices.SizeBasic = kopecks(s.Price.Basic)
			}
		}
		p.Sizes = append(p.Sizes, offer)
	}

	p.mergeOptions(card.Options)
	return p
}

// enrich fills description, characteristics, image count and colours from card.json
// where the card API left them empty.
func (p *Payload) enrich(info dto.CardInfo) {
	if p.Description == "" {
		p.Description = strings.TrimSpace(info.Description)
	}
	if p.Name == "" {
		p.Name = strings.TrimSpace(info.ImtName)
	}
	if p.ImageCount == 0 {
		p.ImageCount = info.Media.PhotoCount
	}
	if len(p.Colors) == 0 && info.NmColorsNames != "" {
		for _, c := range strings.Split(info.NmColorsNames, ",") {
			if c = strings.TrimSpace(c); c != "" {
				p.Colors = append(p.Colors, c)
			}
		}
	}
	p.mergeOptions(info.Options)
}

func (p *Payload) mergeOptions(options []dto.Option) {
	seen := make(map[string]struct{}, len(p.Characteristics))
	for _, c := range p.Characteristics {
		seen[c.Name] = struct{}{}
	}
	for _, o := range options {
		name := strings.TrimSpace(o.Name)
		value := strings.TrimSpace(o.Value)
		if name == "" || value == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		p.Characteristics = append(p.Characteristics, Characteristic{Name: name, Value: value})
	}
}

func (p *Payload) characteristic(name string) string {
	for _, c := range p.Characteristics {
		if strings.EqualFold(c.Name, name) {
			return c.Value
		}
	}
	return ""
}
