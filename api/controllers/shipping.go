package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/shipping"
)

// RateQuoter prices parcels; *shipping.Client satisfies it.
type RateQuoter interface {
	Quote(ctx context.Context, req shipping.QuoteRequest) ([]shipping.Rate, error)
}

// ShippingRates prices a parcel with the configured carrier aggregator.
func ShippingRates(quoter RateQuoter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if quoter == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "shipping rates unavailable"))
			return
		}

		q := r.URL.Query()
		weight, err := parseQueryDecimal(r, "weight_kg")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if weight == nil {
			zero := decimal.Zero
			weight = &zero
		}
		items, err := validators.ParseQueryInt(r, "item_count", 1, 1, 1000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rates, err := quoter.Quote(r.Context(), shipping.QuoteRequest{
			Country:    strings.TrimSpace(q.Get("country")),
			City:       strings.TrimSpace(q.Get("city")),
			PostalCode: strings.TrimSpace(q.Get("postal_code")),
			WeightKg:   *weight,
			ItemCount:  items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"rates": rates})
	}
}
