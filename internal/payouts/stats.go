package payouts

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/money"
)

// DateRange bounds an aggregation by earned date. Nil ends are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) valid() bool {
	return r.From == nil || r.To == nil || !r.From.After(*r.To)
}

type SalesStats struct {
	TotalOrders       int             `json:"total_orders"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalEarnings     decimal.Decimal `json:"total_earnings"`
	TotalCommission   decimal.Decimal `json:"total_commission"`
	PendingPayout     decimal.Decimal `json:"pending_payout"`
	PaidOut           decimal.Decimal `json:"paid_out"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type MonthlySales struct {
	Month    int             `json:"month"`
	Orders   int             `json:"orders"`
	Sales    decimal.Decimal `json:"sales"`
	Earnings decimal.Decimal `json:"earnings"`
}

type VendorCommission struct {
	VendorID   uuid.UUID       `json:"vendor_id"`
	Orders     int             `json:"orders"`
	Sales      decimal.Decimal `json:"sales"`
	Commission decimal.Decimal `json:"commission"`
}

type CommissionStats struct {
	TotalOrders     int                `json:"total_orders"`
	TotalSales      decimal.Decimal    `json:"total_sales"`
	TotalCommission decimal.Decimal    `json:"total_commission"`
	ByVendor        []VendorCommission `json:"by_vendor"`
}

// SummarizeSales folds one vendor's earnings into headline figures.
func SummarizeSales(earnings []models.VendorEarning) SalesStats {
	stats := SalesStats{
		TotalSales:        decimal.Zero,
		TotalEarnings:     decimal.Zero,
		TotalCommission:   decimal.Zero,
		PendingPayout:     decimal.Zero,
		PaidOut:           decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}
	orders := make(map[uuid.UUID]struct{}, len(earnings))
	for _, e := range earnings {
		orders[e.OrderID] = struct{}{}
		stats.TotalSales = stats.TotalSales.Add(e.OrderAmount)
		stats.TotalEarnings = stats.TotalEarnings.Add(e.VendorShare)
		stats.TotalCommission = stats.TotalCommission.Add(e.PlatformCommission)
		switch e.PayoutStatus {
		case enums.EarningPayoutStatusPaid:
			stats.PaidOut = stats.PaidOut.Add(e.VendorShare)
		default:
			stats.PendingPayout = stats.PendingPayout.Add(e.VendorShare)
		}
	}
	stats.TotalOrders = len(orders)
	stats.TotalSales = money.Round(stats.TotalSales)
	stats.TotalEarnings = money.Round(stats.TotalEarnings)
	stats.TotalCommission = money.Round(stats.TotalCommission)
	stats.PendingPayout = money.Round(stats.PendingPayout)
	stats.PaidOut = money.Round(stats.PaidOut)
	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = money.Round(stats.TotalSales.Div(decimal.NewFromInt(int64(stats.TotalOrders))))
	}
	return stats
}

// MonthlyBreakdown returns twelve buckets for year, January first. Earnings
// outside year are ignored.
func MonthlyBreakdown(earnings []models.VendorEarning, year int) []MonthlySales {
	months := make([]MonthlySales, 12)
	seen := make([]map[uuid.UUID]struct{}, 12)
	for i := range months {
		months[i] = MonthlySales{Month: i + 1, Sales: decimal.Zero, Earnings: decimal.Zero}
		seen[i] = map[uuid.UUID]struct{}{}
	}
	for _, e := range earnings {
		earned := e.EarnedDate.UTC()
		if earned.Year() != year {
			continue
		}
		idx := int(earned.Month()) - 1
		seen[idx][e.OrderID] = struct{}{}
		months[idx].Sales = months[idx].Sales.Add(e.OrderAmount)
		months[idx].Earnings = months[idx].Earnings.Add(e.VendorShare)
	}
	for i := range months {
		months[i].Orders = len(seen[i])
		months[i].Sales = money.Round(months[i].Sales)
		months[i].Earnings = money.Round(months[i].Earnings)
	}
	return months
}

// SummarizeCommission folds earnings across vendors. ByVendor is ordered by
// commission, highest first.
func SummarizeCommission(earnings []models.VendorEarning) CommissionStats {
	stats := CommissionStats{TotalSales: decimal.Zero, TotalCommission: decimal.Zero, ByVendor: []VendorCommission{}}
	orders := map[uuid.UUID]struct{}{}
	byVendor := map[uuid.UUID]*VendorCommission{}
	vendorOrders := map[uuid.UUID]map[uuid.UUID]struct{}{}
	for _, e := range earnings {
		orders[e.OrderID] = struct{}{}
		stats.TotalSales = stats.TotalSales.Add(e.OrderAmount)
		stats.TotalCommission = stats.TotalCommission.Add(e.PlatformCommission)

		row, ok := byVendor[e.VendorID]
		if !ok {
			row = &VendorCommission{VendorID: e.VendorID, Sales: decimal.Zero, Commission: decimal.Zero}
			byVendor[e.VendorID] = row
			vendorOrders[e.VendorID] = map[uuid.UUID]struct{}{}
		}
		vendorOrders[e.VendorID][e.OrderID] = struct{}{}
		row.Sales = row.Sales.Add(e.OrderAmount)
		row.Commission = row.Commission.Add(e.PlatformCommission)
	}
	stats.TotalOrders = len(orders)
	stats.TotalSales = money.Round(stats.TotalSales)
	stats.TotalCommission = money.Round(stats.TotalCommission)

	for vendorID, row := range byVendor {
		row.Orders = len(vendorOrders[vendorID])
		row.Sales = money.Round(row.Sales)
		row.Commission = money.Round(row.Commission)
		stats.ByVendor = append(stats.ByVendor, *row)
	}
	sort.Slice(stats.ByVendor, func(i, j int) bool {
		a, b := stats.ByVendor[i], stats.ByVendor[j]
		if !a.Commission.Equal(b.Commission) {
			return a.Commission.GreaterThan(b.Commission)
		}
		return a.VendorID.String() < b.VendorID.String()
	})
	return stats
}
