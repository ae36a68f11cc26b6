package orders

import (
	"time"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderFilter narrows a customer's order listing.
type OrderFilter struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	From          *time.Time
	To            *time.Time
}

// CartLine is one product selection at checkout.
type CartLine struct {
	ProductID   uuid.UUID  `json:"product_id" validate:"required"`
	VariationID *uuid.UUID `json:"variation_id,omitempty"`
	Quantity    int        `json:"quantity" validate:"required,gt=0"`
}

// Totals are the cart figures computed by the caller. They are stored as given.
type Totals struct {
	TotalPrice  decimal.Decimal `json:"total_price"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Discount    decimal.Decimal `json:"discount"`
}

type CreateOrderInput struct {
	UserID                uuid.UUID
	Lines                 []CartLine
	Shipping              models.ShippingAddress
	Totals                Totals
	PromoCode             *string
	ShippingMethodID      *string
	PaymentMethod         *string
	EstimatedDeliveryDate *time.Time
}

type UpdateStatusInput struct {
	OrderID        uuid.UUID
	Status         enums.OrderStatus
	Note           string
	TrackingNumber *string
	ChangedBy      *uuid.UUID
}

type CancelInput struct {
	OrderID   uuid.UUID
	Reason    string
	ChangedBy *uuid.UUID
}

// PaymentEntry is one payment signal appended to an order's payment history.
type PaymentEntry struct {
	Gateway        enums.PaymentGateway
	Amount         decimal.Decimal
	TransactionRef *string
	Note           string
}

type PaymentUpdateInput struct {
	OrderID   uuid.UUID
	Status    enums.PaymentStatus
	Entry     PaymentEntry
	ChangedBy *uuid.UUID
}
