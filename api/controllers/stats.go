package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	"github.com/angelmondragon/souq-backend/internal/payouts"
	"github.com/angelmondragon/souq-backend/pkg/logger"
)

type vendorStatsService interface {
	GetVendorSalesStats(ctx context.Context, vendorID uuid.UUID, period payouts.DateRange) (payouts.SalesStats, error)
	GetVendorMonthlySales(ctx context.Context, vendorID uuid.UUID, year int) ([]payouts.MonthlySales, error)
}

type commissionStatsService interface {
	GetAdminCommissionStats(ctx context.Context, period payouts.DateRange) (payouts.CommissionStats, error)
}

func parseDateRange(r *http.Request) (payouts.DateRange, error) {
	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return payouts.DateRange{}, err
	}
	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return payouts.DateRange{}, err
	}
	return payouts.DateRange{From: from, To: to}, nil
}

func VendorSalesStats(svc vendorStatsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		period, err := parseDateRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.GetVendorSalesStats(r.Context(), vendorID, period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// VendorMonthlySales returns twelve monthly buckets for ?year=, defaulting to the current year.
func VendorMonthlySales(svc vendorStatsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		year, err := validators.ParseQueryInt(r, "year", time.Now().UTC().Year(), 2000, 9999)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		months, err := svc.GetVendorMonthlySales(r.Context(), vendorID, year)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"year": year, "months": months})
	}
}

func AdminCommissionStats(svc commissionStatsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, err := parseDateRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.GetAdminCommissionStats(r.Context(), period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
