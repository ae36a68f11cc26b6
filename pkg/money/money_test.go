package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, "1.235", Format(Round(decimal.RequireFromString("1.2345"))))
	assert.Equal(t, "-1.235", Format(Round(decimal.RequireFromString("-1.2345"))))
	assert.Equal(t, "2.000", Format(Round(decimal.NewFromInt(2))))
}

func TestSplitAlwaysSumsToAmount(t *testing.T) {
	cases := []struct {
		amount     string
		vendor     string
		commission string
	}{
		{"100", "90.000", "10.000"},
		{"0.001", "0.001", "0.000"},
		{"0.005", "0.005", "0.000"},
		{"33.333", "30.000", "3.333"},
		{"12.345", "11.111", "1.234"},
		{"7.777", "6.999", "0.778"},
	}

	for _, tc := range cases {
		t.Run(tc.amount, func(t *testing.T) {
			amount := decimal.RequireFromString(tc.amount)
			vendor, commission := Split(amount, DefaultVendorRate, DefaultCommissionRate)

			assert.Equal(t, tc.vendor, Format(vendor))
			assert.Equal(t, tc.commission, Format(commission))
			assert.True(t, vendor.Add(commission).Equal(Round(amount)), "parts must sum to amount")
			assert.True(t, vendor.Equal(Share(amount, DefaultVendorRate)), "vendor share is the plain rounded product")
		})
	}
}

func TestSumAndPositive(t *testing.T) {
	total := Sum(decimal.RequireFromString("0.0004"), decimal.RequireFromString("0.0004"))
	assert.Equal(t, "0.001", Format(total))
	assert.False(t, Positive(decimal.RequireFromString("0.0004")))
	assert.True(t, Positive(decimal.RequireFromString("0.0005")))
}

func TestParse(t *testing.T) {
	d, err := Parse("10.0006")
	require.NoError(t, err)
	assert.Equal(t, "10.001", Format(d))

	_, err = Parse("ten")
	require.Error(t, err)
}
