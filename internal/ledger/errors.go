package ledger

import "errors"

var (
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrWalletInactive      = errors.New("wallet is inactive")
)
