package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/souq-backend/internal/payouts"
	"github.com/angelmondragon/souq-backend/pkg/config"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/shipping"
)

type stubStats struct {
	period payouts.DateRange
	year   int
}

func (s *stubStats) GetVendorSalesStats(ctx context.Context, vendorID uuid.UUID, period payouts.DateRange) (payouts.SalesStats, error) {
	s.period = period
	return payouts.SalesStats{TotalOrders: 2, TotalSales: decimal.NewFromInt(150), TotalEarnings: decimal.NewFromInt(135)}, nil
}

func (s *stubStats) GetVendorMonthlySales(ctx context.Context, vendorID uuid.UUID, year int) ([]payouts.MonthlySales, error) {
	s.year = year
	months := make([]payouts.MonthlySales, 12)
	for i := range months {
		months[i] = payouts.MonthlySales{Month: i + 1, Sales: decimal.Zero, Earnings: decimal.Zero}
	}
	return months, nil
}

func (s *stubStats) GetAdminCommissionStats(ctx context.Context, period payouts.DateRange) (payouts.CommissionStats, error) {
	s.period = period
	return payouts.CommissionStats{TotalOrders: 1, TotalCommission: decimal.NewFromInt(15)}, nil
}

func TestVendorSalesStatsDateRange(t *testing.T) {
	svc := &stubStats{}
	rec := serve(t, http.MethodGet, "/vendor/stats/sales", "/vendor/stats/sales?from=2026-01-01&to=2026-03-31T23:59:59Z", nil, uuid.New(), enums.MemberRoleVendor, VendorSalesStats(svc, testLogger()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.period.From)
	require.NotNil(t, svc.period.To)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *svc.period.From)

	var stats payouts.SalesStats
	decodeData(t, rec, &stats)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.True(t, stats.TotalEarnings.Equal(decimal.NewFromInt(135)))
}

func TestVendorMonthlySalesDefaultsToCurrentYear(t *testing.T) {
	svc := &stubStats{}
	rec := serve(t, http.MethodGet, "/vendor/stats/monthly", "/vendor/stats/monthly", nil, uuid.New(), enums.MemberRoleVendor, VendorMonthlySales(svc, testLogger()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Now().UTC().Year(), svc.year)

	var payload struct {
		Year   int                    `json:"year"`
		Months []payouts.MonthlySales `json:"months"`
	}
	decodeData(t, rec, &payload)
	assert.Len(t, payload.Months, 12)
}

func TestVendorMonthlySalesRejectsBadYear(t *testing.T) {
	rec := serve(t, http.MethodGet, "/vendor/stats/monthly", "/vendor/stats/monthly?year=99", nil, uuid.New(), enums.MemberRoleVendor, VendorMonthlySales(&stubStats{}, testLogger()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminCommissionStats(t *testing.T) {
	svc := &stubStats{}
	rec := serve(t, http.MethodGet, "/admin/stats/commission", "/admin/stats/commission", nil, uuid.New(), enums.MemberRoleAdmin, AdminCommissionStats(svc, testLogger()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.period.From)
	var stats payouts.CommissionStats
	decodeData(t, rec, &stats)
	assert.True(t, stats.TotalCommission.Equal(decimal.NewFromInt(15)))
}

type stubQuoter struct {
	got shipping.QuoteRequest
	err error
}

func (s *stubQuoter) Quote(ctx context.Context, req shipping.QuoteRequest) ([]shipping.Rate, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return []shipping.Rate{{MethodID: "std", Carrier: "Aramex", Amount: decimal.RequireFromString("1.5"), Currency: enums.CurrencyBHD, EstimatedDays: 2}}, nil
}

func TestShippingRates(t *testing.T) {
	quoter := &stubQuoter{}
	rec := serve(t, http.MethodGet, "/shipping/rates", "/shipping/rates?country=BH&city=Manama&weight_kg=2.5&item_count=3", nil, uuid.New(), enums.MemberRoleCustomer, ShippingRates(quoter, testLogger()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "BH", quoter.got.Country)
	assert.Equal(t, 3, quoter.got.ItemCount)
	assert.True(t, quoter.got.WeightKg.Equal(decimal.RequireFromString("2.5")))

	var payload struct {
		Rates []shipping.Rate `json:"rates"`
	}
	decodeData(t, rec, &payload)
	require.Len(t, payload.Rates, 1)
	assert.Equal(t, "std", payload.Rates[0].MethodID)
}

func TestShippingRatesWithoutProvider(t *testing.T) {
	rec := serve(t, http.MethodGet, "/shipping/rates", "/shipping/rates?country=BH&city=Manama", nil, uuid.New(), enums.MemberRoleCustomer, ShippingRates(nil, testLogger()))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	rec := serve(t, http.MethodGet, "/health/ready", "/health/ready", nil, uuid.Nil, "", HealthReady(cfg, testLogger(), map[string]Pinger{"postgres": stubPinger{}}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Souq-Env"))

	rec = serve(t, http.MethodGet, "/health/ready", "/health/ready", nil, uuid.Nil, "", HealthReady(cfg, testLogger(), map[string]Pinger{"redis": stubPinger{err: errors.New("connection refused")}}))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
