package wildberries

import (
	"fmt"
	"strings"
)

type shardRange struct {
	low   int64
	high  int64
	shard int
}

// basketRanges maps vol = id/100000 to the CDN shard serving it. The table is
// observed marketplace behaviour; update it here when the marketplace re-shards.
var basketRanges = []shardRange{
	{0, 143, 1},
	{144, 287, 2},
	{288, 431, 3},
	{432, 719, 4},
	{720, 1007, 5},
	{1008, 1061, 6},
	{1062, 1115, 7},
	{1116, 1169, 8},
	{1170, 1313, 9},
	{1314, 1601, 10},
	{1602, 1655, 11},
	{1656, 1919, 12},
	{1920, 2045, 13},
	{2046, 2189, 14},
	{2190, 2405, 15},
	{2406, 2621, 16},
	{2622, 2837, 17},
	{2838, 3053, 18},
	{3054, 3269, 19},
	{3270, 3485, 20},
	{3486, 3701, 21},
	{3702, 3917, 22},
	{3918, 4133, 23},
	{4134, 4349, 24},
	{4350, 4565, 25},
}

const (
	fallbackRangeStart = 4566
	fallbackRangeWidth = 216
	fallbackNextShard  = 26
	maxShard           = 99
)

func vol(productID int64) int64 {
	return productID / 100000
}

func part(productID int64) int64 {
	return productID / 1000
}

// BasketNumber returns the two-digit shard code for a product id.
func BasketNumber(productID int64) string {
	v := vol(productID)
	for _, r := range basketRanges {
		if v >= r.low && v <= r.high {
			return fmt.Sprintf("%02d", r.shard)
		}
	}
	shard := int((v-fallbackRangeStart)/fallbackRangeWidth) + fallbackNextShard
	if shard > maxShard {
		shard = maxShard
	}
	if shard < 1 {
		shard = 1
	}
	return fmt.Sprintf("%02d", shard)
}

// ImageResolver builds deterministic CDN URLs for product media.
type ImageResolver struct {
	hostTemplate string
}

// NewImageResolver takes a host template with one %s for the shard code.
func NewImageResolver(hostTemplate string) *ImageResolver {
	return &ImageResolver{hostTemplate: strings.TrimRight(hostTemplate, "/")}
}

func (r *ImageResolver) basePath(productID int64) string {
	host := fmt.Sprintf(r.hostTemplate, BasketNumber(productID))
	return fmt.Sprintf("%s/vol%d/part%d/%d", host, vol(productID), part(productID), productID)
}

func (r *ImageResolver) ImageURL(productID int64, index int) string {
	return fmt.Sprintf("%s/images/big/%d.webp", r.basePath(productID), index)
}

func (r *ImageResolver) CardInfoURL(productID int64) string {
	return r.basePath(productID) + "/info/ru/card.json"
}
