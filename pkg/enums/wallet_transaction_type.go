package enums

import "fmt"

// WalletTransactionType classifies a wallet journal entry.
type WalletTransactionType string

const (
	WalletTransactionTypeCredit     WalletTransactionType = "CREDIT"
	WalletTransactionTypeDebit      WalletTransactionType = "DEBIT"
	WalletTransactionTypeRefund     WalletTransactionType = "REFUND"
	WalletTransactionTypeWithdrawal WalletTransactionType = "WITHDRAWAL"
)

var validWalletTransactionTypes = []WalletTransactionType{
	WalletTransactionTypeCredit,
	WalletTransactionTypeDebit,
	WalletTransactionTypeRefund,
	WalletTransactionTypeWithdrawal,
}

// String implements fmt.Stringer.
func (w WalletTransactionType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WalletTransactionType.
func (w WalletTransactionType) IsValid() bool {
	for _, candidate := range validWalletTransactionTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWalletTransactionType converts raw input into a WalletTransactionType.
func ParseWalletTransactionType(value string) (WalletTransactionType, error) {
	for _, candidate := range validWalletTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction type %q", value)
}

// IsDebit reports whether the entry reduces the wallet balance.
func (w WalletTransactionType) IsDebit() bool {
	return w == WalletTransactionTypeDebit || w == WalletTransactionTypeWithdrawal
}
