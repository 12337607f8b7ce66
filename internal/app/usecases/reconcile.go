package usecases

import (
	stderrors "errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"catalog-sync/pkg/errors"
)

type reconcileAction int

const (
	actionCreate reconcileAction = iota
	actionUpdate
	actionSkip
)

// reconcile decides what to do with an incoming record. skipExisting wins
// over updateExisting.
func reconcile(found, skipExisting, updateExisting bool) reconcileAction {
	switch {
	case !found:
		return actionCreate
	case skipExisting:
		return actionSkip
	case updateExisting:
		return actionUpdate
	default:
		return actionSkip
	}
}

func isNotFound(err error) bool {
	var notFound *errors.ErrNotFound
	return stderrors.As(err, &notFound)
}

// priceDelta and applyDelta keep variant prices exact to the kopeck across
// the export/import round trip.
func priceDelta(variantPrice, basePrice float64) float64 {
	return decimal.NewFromFloat(variantPrice).Sub(decimal.NewFromFloat(basePrice)).Round(2).InexactFloat64()
}

func applyDelta(basePrice, delta float64) float64 {
	return decimal.NewFromFloat(basePrice).Add(decimal.NewFromFloat(delta)).Round(2).InexactFloat64()
}

// foldKey is the lookup key for category names and slugs.
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
