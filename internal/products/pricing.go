package product

import (
	"errors"
	"time"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrVariationNotFound = errors.New("product variation not found")

// Quote is the resolved price of one cart line.
type Quote struct {
	UnitPrice     decimal.Decimal
	Variation     *models.ProductVariation
	SpecialActive bool
}

// SpecialPriceActive reports whether the special price window covers now.
// Both bounds are inclusive and both must be set.
func SpecialPriceActive(p *models.Product, now time.Time) bool {
	if !p.SpecialPrice.Valid || p.SpecialPriceStartingDate == nil || p.SpecialPriceEndingDate == nil {
		return false
	}
	return !now.Before(*p.SpecialPriceStartingDate) && !now.After(*p.SpecialPriceEndingDate)
}

// EffectiveUnitPrice resolves base price, then an active special price, then
// the selected variation's own price.
func EffectiveUnitPrice(p *models.Product, variationID *uuid.UUID, now time.Time) (Quote, error) {
	quote := Quote{UnitPrice: p.PricePerUnit}
	if SpecialPriceActive(p, now) {
		quote.UnitPrice = p.SpecialPrice.Decimal
		quote.SpecialActive = true
	}
	if variationID != nil && *variationID != uuid.Nil {
		variation := findVariation(p, *variationID)
		if variation == nil {
			return Quote{}, ErrVariationNotFound
		}
		quote.Variation = variation
		quote.UnitPrice = variation.Price
	}
	quote.UnitPrice = money.Round(quote.UnitPrice)
	return quote, nil
}

func findVariation(p *models.Product, id uuid.UUID) *models.ProductVariation {
	for i := range p.Variations {
		if p.Variations[i].ID == id {
			return &p.Variations[i]
		}
	}
	return nil
}
