package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/enums"
)

// PayoutDetails carries the method-specific destination of a payout.
type PayoutDetails struct {
	AccountHolderName string `json:"account_holder_name,omitempty"`
	BankName          string `json:"bank_name,omitempty"`
	AccountNumber     string `json:"account_number,omitempty"`
	IBAN              string `json:"iban,omitempty"`
	SwiftCode         string `json:"swift_code,omitempty"`
	PayPalEmail       string `json:"paypal_email,omitempty"`
	StripeAccountID   string `json:"stripe_account_id,omitempty"`
}

// PayoutRequest is a vendor withdrawal moving through admin review.
type PayoutRequest struct {
	ID                   uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	VendorID             uuid.UUID          `gorm:"column:vendor_id;type:uuid;not null;index"`
	RequestedAmount      decimal.Decimal    `gorm:"column:requested_amount;type:numeric(14,3);not null"`
	Currency             enums.Currency     `gorm:"column:currency;type:varchar(3);not null"`
	PayoutMethod         enums.PayoutMethod `gorm:"column:payout_method;type:varchar(16);not null"`
	PayoutDetails        PayoutDetails      `gorm:"column:payout_details;type:jsonb;serializer:json;not null"`
	Status               enums.PayoutStatus `gorm:"column:status;type:varchar(16);not null;index"`
	RequestedDate        time.Time          `gorm:"column:requested_date;not null"`
	ProcessedDate        *time.Time         `gorm:"column:processed_date"`
	CompletedDate        *time.Time         `gorm:"column:completed_date"`
	RejectionReason      *string            `gorm:"column:rejection_reason"`
	ProcessedBy          *uuid.UUID         `gorm:"column:processed_by;type:uuid"`
	TransactionReference *string            `gorm:"column:transaction_reference"`
	Notes                *string            `gorm:"column:notes"`
	CreatedAt            time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PayoutRequest) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	if p.Currency == "" {
		p.Currency = enums.DefaultCurrency
	}
	return nil
}
