package enums

import "fmt"

// EarningPayoutStatus records whether an earning has been paid out.
type EarningPayoutStatus string

const (
	EarningPayoutStatusPending EarningPayoutStatus = "PENDING"
	EarningPayoutStatusPaid    EarningPayoutStatus = "PAID"
)

var validEarningPayoutStatuses = []EarningPayoutStatus{
	EarningPayoutStatusPending,
	EarningPayoutStatusPaid,
}

// String implements fmt.Stringer.
func (e EarningPayoutStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EarningPayoutStatus.
func (e EarningPayoutStatus) IsValid() bool {
	for _, candidate := range validEarningPayoutStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEarningPayoutStatus converts raw input into a EarningPayoutStatus.
func ParseEarningPayoutStatus(value string) (EarningPayoutStatus, error) {
	for _, candidate := range validEarningPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid earning payout status %q", value)
}
