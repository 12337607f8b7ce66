package dto

// CardResponse covers both envelope shapes of the card API: v1/v2 nest the
// product list under data, v4 returns it at the top level.
type CardResponse struct {
	State    int       `json:"state"`
	Data     *CardData `json:"data,omitempty"`
	Products []Card    `json:"products,omitempty"`
}

type CardData struct {
	Products []Card `json:"products"`
}

type Card struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Brand         string    `json:"brand"`
	Description   string    `json:"description,omitempty"`
	Pics          int       `json:"pics"`
	PriceU        int64     `json:"priceU,omitempty"`
	SalePriceU    int64     `json:"salePriceU,omitempty"`
	Extended      *Extended `json:"extended,omitempty"`
	Colors        []Color   `json:"colors"`
	Sizes         []Size    `json:"sizes"`
	Options       []Option  `json:"options,omitempty"`
	TotalQuantity int       `json:"totalQuantity"`
}

type Extended struct {
	BasicPriceU  int64 `json:"basicPriceU"`
	ClientPriceU int64 `json:"clientPriceU"`
}

type Color struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Size struct {
	Name     string     `json:"name"`
	OrigName string     `json:"origName"`
	Stocks   []Stock    `json:"stocks"`
	Price    *SizePrice `json:"price,omitempty"`
}

type Stock struct {
	Wh  int64 `json:"wh"`
	Qty int   `json:"qty"`
}

// SizePrice amounts are in kopecks.
type SizePrice struct {
	Basic   int64 `json:"basic"`
	Product int64 `json:"product"`
	Total   int64 `json:"total"`
}

type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CardInfo is the static card.json served from the basket host.
type CardInfo struct {
	ImtName       string   `json:"imt_name"`
	Description   string   `json:"description"`
	Options       []Option `json:"options"`
	NmColorsNames string   `json:"nm_colors_names"`
	Media         struct {
		PhotoCount int `json:"photo_count"`
	} `json:"media"`
}
