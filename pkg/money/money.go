// Package money holds the decimal helpers shared by every ledger write.
// Amounts are kept at three decimal places to match the ledger currency.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits persisted for every amount.
const Places int32 = 3

var (
	Zero = decimal.Zero

	DefaultVendorRate     = decimal.RequireFromString("0.9")
	DefaultCommissionRate = decimal.RequireFromString("0.1")
)

// Round rounds half away from zero to three decimal places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Share returns amount × rate rounded to three places.
func Share(amount, rate decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(rate))
}

// Split divides amount into a vendor share and a platform commission.
// Both parts are rounded independently; when that rounding leaves a remainder
// the commission absorbs it so the parts always sum to Round(amount).
func Split(amount, vendorRate, commissionRate decimal.Decimal) (vendorShare, commission decimal.Decimal) {
	total := Round(amount)
	vendorShare = Share(total, vendorRate)
	commission = Share(total, commissionRate)
	if diff := total.Sub(vendorShare.Add(commission)); !diff.IsZero() {
		commission = commission.Add(diff)
	}
	return vendorShare, commission
}

// Sum adds the amounts and rounds the result.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return Round(total)
}

// Positive reports whether d is strictly greater than zero once rounded.
func Positive(d decimal.Decimal) bool {
	return Round(d).GreaterThan(decimal.Zero)
}

// Format renders d with exactly three decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// Parse reads a decimal string and rounds it.
func Parse(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return Round(d), nil
}
