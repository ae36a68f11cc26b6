package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/enums"
)

// VendorEarning is the vendor's share of one delivered order.
type VendorEarning struct {
	ID                 uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	VendorID           uuid.UUID                 `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:ux_vendor_earnings_vendor_order,priority:1"`
	OrderID            uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_vendor_earnings_vendor_order,priority:2"`
	OrderNumber        string                    `gorm:"column:order_number;not null"`
	OrderAmount        decimal.Decimal           `gorm:"column:order_amount;type:numeric(14,3);not null"`
	VendorShare        decimal.Decimal           `gorm:"column:vendor_share;type:numeric(14,3);not null"`
	PlatformCommission decimal.Decimal           `gorm:"column:platform_commission;type:numeric(14,3);not null"`
	Currency           enums.Currency            `gorm:"column:currency;type:varchar(3);not null"`
	EarnedDate         time.Time                 `gorm:"column:earned_date;not null;index"`
	PayoutStatus       enums.EarningPayoutStatus `gorm:"column:payout_status;type:varchar(16);not null"`
	PayoutRequestID    *uuid.UUID                `gorm:"column:payout_request_id;type:uuid"`
	CreatedAt          time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *VendorEarning) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	if e.Currency == "" {
		e.Currency = enums.DefaultCurrency
	}
	return nil
}

// VendorWallet keeps a vendor's funds in three buckets.
type VendorWallet struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	VendorID         uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:ux_vendor_wallets_vendor"`
	AvailableBalance decimal.Decimal `gorm:"column:available_balance;type:numeric(14,3);not null"`
	PendingBalance   decimal.Decimal `gorm:"column:pending_balance;type:numeric(14,3);not null"`
	TotalEarned      decimal.Decimal `gorm:"column:total_earned;type:numeric(14,3);not null"`
	TotalWithdrawn   decimal.Decimal `gorm:"column:total_withdrawn;type:numeric(14,3);not null"`
	Currency         enums.Currency  `gorm:"column:currency;type:varchar(3);not null"`
	LastPayoutDate   *time.Time      `gorm:"column:last_payout_date"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *VendorWallet) BeforeCreate(*gorm.DB) error {
	assignID(&w.ID)
	if w.Currency == "" {
		w.Currency = enums.DefaultCurrency
	}
	return nil
}
