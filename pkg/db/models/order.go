package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/money"
)

// ShippingAddress is the structured delivery address stored with an order.
type ShippingAddress struct {
	FullName     string  `json:"full_name" validate:"required"`
	Phone        string  `json:"phone" validate:"required"`
	AddressLine1 string  `json:"address_line1" validate:"required"`
	AddressLine2 *string `json:"address_line2,omitempty"`
	Block        *string `json:"block,omitempty"`
	Road         *string `json:"road,omitempty"`
	Building     *string `json:"building,omitempty"`
	City         string  `json:"city" validate:"required"`
	PostalCode   *string `json:"postal_code,omitempty"`
	Country      string  `json:"country" validate:"required"`
}

// Order is a customer checkout with its priced snapshot and both state machines.
type Order struct {
	ID                    uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID                uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	OrderNumber           string                `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	ShippingAddress       ShippingAddress       `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	TotalPrice            decimal.Decimal       `gorm:"column:total_price;type:numeric(14,3);not null"`
	ShippingFee           decimal.Decimal       `gorm:"column:shipping_fee;type:numeric(14,3);not null"`
	Discount              decimal.Decimal       `gorm:"column:discount;type:numeric(14,3);not null"`
	Tax                   decimal.Decimal       `gorm:"column:tax;type:numeric(14,3);not null"`
	GrandTotal            decimal.Decimal       `gorm:"column:grand_total;type:numeric(14,3);not null"`
	Currency              enums.Currency        `gorm:"column:currency;type:varchar(3);not null"`
	PromoCode             *string               `gorm:"column:promo_code"`
	EstimatedDeliveryDate *time.Time            `gorm:"column:estimated_delivery_date"`
	ActualDeliveryDate    *time.Time            `gorm:"column:actual_delivery_date"`
	Status                enums.OrderStatus     `gorm:"column:status;type:varchar(32);not null;index"`
	PaymentStatus         enums.PaymentStatus   `gorm:"column:payment_status;type:varchar(16);not null"`
	PaymentMethodUsed     *string               `gorm:"column:payment_method_used"`
	ShippingMethodID      *string               `gorm:"column:shipping_method_id"`
	TrackingNumber        *string               `gorm:"column:tracking_number"`
	CreatedAt             time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time             `gorm:"column:updated_at;autoUpdateTime"`
	Items                 []OrderLineItem       `gorm:"foreignKey:OrderID;references:ID"`
	StatusHistory         []OrderStatusHistory  `gorm:"foreignKey:OrderID;references:ID"`
	PaymentHistory        []OrderPaymentHistory `gorm:"foreignKey:OrderID;references:ID"`
}

// RecomputeGrandTotal applies grandTotal = totalPrice + shippingFee + tax - discount.
func (o *Order) RecomputeGrandTotal() {
	o.TotalPrice = money.Round(o.TotalPrice)
	o.ShippingFee = money.Round(o.ShippingFee)
	o.Tax = money.Round(o.Tax)
	o.Discount = money.Round(o.Discount)
	o.GrandTotal = money.Round(o.TotalPrice.Add(o.ShippingFee).Add(o.Tax).Sub(o.Discount))
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	if o.Currency == "" {
		o.Currency = enums.DefaultCurrency
	}
	return nil
}

// BeforeSave runs for both inserts and Save updates.
func (o *Order) BeforeSave(*gorm.DB) error {
	o.RecomputeGrandTotal()
	return nil
}

// OrderLineItem snapshots price and vendor at checkout time.
type OrderLineItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariationID   *uuid.UUID      `gorm:"column:variation_id;type:uuid"`
	VendorID      uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;index"`
	ProductName   string          `gorm:"column:product_name;not null"`
	VariationName *string         `gorm:"column:variation_name"`
	Quantity      int             `gorm:"column:quantity;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(14,3);not null"`
	Total         decimal.Decimal `gorm:"column:total;type:numeric(14,3);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderLineItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// OrderStatusHistory is an append-only row; Sequence is strictly increasing per order.
type OrderStatusHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_order_status_history_sequence,priority:1"`
	Sequence  int               `gorm:"column:sequence;not null;uniqueIndex:ux_order_status_history_sequence,priority:2"`
	Status    enums.OrderStatus `gorm:"column:status;type:varchar(32);not null"`
	Note      string            `gorm:"column:note;not null"`
	ChangedBy *uuid.UUID        `gorm:"column:changed_by;type:uuid"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

func (h *OrderStatusHistory) BeforeCreate(*gorm.DB) error {
	assignID(&h.ID)
	return nil
}

// OrderPaymentHistory is an append-only record of payment signals for an order.
type OrderPaymentHistory struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_order_payment_history_sequence,priority:1"`
	Sequence       int                  `gorm:"column:sequence;not null;uniqueIndex:ux_order_payment_history_sequence,priority:2"`
	Gateway        enums.PaymentGateway `gorm:"column:gateway;type:varchar(32);not null"`
	Status         enums.PaymentStatus  `gorm:"column:status;type:varchar(16);not null"`
	Amount         decimal.Decimal      `gorm:"column:amount;type:numeric(14,3);not null"`
	TransactionRef *string              `gorm:"column:transaction_ref"`
	Note           string               `gorm:"column:note;not null"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (OrderPaymentHistory) TableName() string {
	return "order_payment_history"
}

func (h *OrderPaymentHistory) BeforeCreate(*gorm.DB) error {
	assignID(&h.ID)
	return nil
}
