package payouts

import "errors"

var (
	ErrPendingRequestExists = errors.New("vendor already has an outstanding payout request")
	ErrNotProcessable       = errors.New("payout request is not in a processable state")
	ErrWalletNotFound       = errors.New("vendor wallet not found")
	ErrPayoutNotFound       = errors.New("payout request not found")
	ErrInvalidPayoutStatus  = errors.New("invalid payout target status")
	ErrInvalidPayoutDetails = errors.New("invalid payout details")
)
