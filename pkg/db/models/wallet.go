package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/enums"
)

// Wallet is a single-balance ledger owned by one user.
type Wallet struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID      uuid.UUID           `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:ux_wallets_owner"`
	Balance      decimal.Decimal     `gorm:"column:balance;type:numeric(14,3);not null"`
	Currency     enums.Currency      `gorm:"column:currency;type:varchar(3);not null"`
	IsActive     bool                `gorm:"column:is_active;not null"`
	EntryCount   int64               `gorm:"column:entry_count;not null"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	Transactions []WalletTransaction `gorm:"foreignKey:WalletID;references:ID"`
}

func (w *Wallet) BeforeCreate(*gorm.DB) error {
	assignID(&w.ID)
	if w.Currency == "" {
		w.Currency = enums.DefaultCurrency
	}
	return nil
}

// WalletTransaction is one immutable journal row. Sequence orders the rows of
// a wallet; BalanceAfter of the highest sequence equals Wallet.Balance.
type WalletTransaction struct {
	ID                   uuid.UUID                     `gorm:"column:id;type:uuid;primaryKey"`
	WalletID             uuid.UUID                     `gorm:"column:wallet_id;type:uuid;not null;uniqueIndex:ux_wallet_transactions_sequence,priority:1"`
	OwnerID              uuid.UUID                     `gorm:"column:owner_id;type:uuid;not null;index"`
	Sequence             int64                         `gorm:"column:sequence;not null;uniqueIndex:ux_wallet_transactions_sequence,priority:2"`
	TransactionID        string                        `gorm:"column:transaction_id;not null;uniqueIndex"`
	Type                 enums.WalletTransactionType   `gorm:"column:type;type:varchar(16);not null"`
	Amount               decimal.Decimal               `gorm:"column:amount;type:numeric(14,3);not null"`
	BalanceBefore        decimal.Decimal               `gorm:"column:balance_before;type:numeric(14,3);not null"`
	BalanceAfter         decimal.Decimal               `gorm:"column:balance_after;type:numeric(14,3);not null"`
	Description          string                        `gorm:"column:description;not null"`
	Status               enums.WalletTransactionStatus `gorm:"column:status;type:varchar(16);not null"`
	PaymentMethod        *string                       `gorm:"column:payment_method"`
	OrderID              *uuid.UUID                    `gorm:"column:order_id;type:uuid;index"`
	GatewayTransactionID *string                       `gorm:"column:gateway_transaction_id"`
	CreatedAt            time.Time                     `gorm:"column:created_at;autoCreateTime"`
}

func (t *WalletTransaction) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}
