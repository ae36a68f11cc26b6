package enums

import "fmt"

// PayoutStatus tracks a vendor withdrawal request.
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "PENDING"
	PayoutStatusApproved   PayoutStatus = "APPROVED"
	PayoutStatusProcessing PayoutStatus = "PROCESSING"
	PayoutStatusCompleted  PayoutStatus = "COMPLETED"
	PayoutStatusRejected   PayoutStatus = "REJECTED"
	PayoutStatusFailed     PayoutStatus = "FAILED"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutStatusPending,
	PayoutStatusApproved,
	PayoutStatusProcessing,
	PayoutStatusCompleted,
	PayoutStatusRejected,
	PayoutStatusFailed,
}

// OutstandingPayoutStatuses are the states that still hold funds in pending.
var OutstandingPayoutStatuses = []PayoutStatus{
	PayoutStatusPending,
	PayoutStatusApproved,
	PayoutStatusProcessing,
}

// String implements fmt.Stringer.
func (p PayoutStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayoutStatus.
func (p PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsOutstanding reports whether the request still holds funds in pending.
func (p PayoutStatus) IsOutstanding() bool {
	for _, candidate := range OutstandingPayoutStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsProcessable reports whether an admin may still act on the request.
func (p PayoutStatus) IsProcessable() bool {
	return p == PayoutStatusPending || p == PayoutStatusApproved
}

// ParsePayoutStatus converts raw input into a PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	for _, candidate := range validPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}
