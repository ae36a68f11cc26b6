package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/money"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

// Amounts leave the API as fixed three-decimal strings.

type orderItemView struct {
	ID            uuid.UUID  `json:"id"`
	ProductID     uuid.UUID  `json:"product_id"`
	VariationID   *uuid.UUID `json:"variation_id,omitempty"`
	VendorID      uuid.UUID  `json:"vendor_id"`
	ProductName   string     `json:"product_name"`
	VariationName *string    `json:"variation_name,omitempty"`
	Quantity      int        `json:"quantity"`
	Price         string     `json:"price"`
	Total         string     `json:"total"`
}

type statusHistoryView struct {
	Sequence  int               `json:"sequence"`
	Status    enums.OrderStatus `json:"status"`
	Note      string            `json:"note"`
	ChangedBy *uuid.UUID        `json:"changed_by,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type paymentHistoryView struct {
	Sequence       int                  `json:"sequence"`
	Gateway        enums.PaymentGateway `json:"gateway"`
	Status         enums.PaymentStatus  `json:"status"`
	Amount         string               `json:"amount"`
	TransactionRef *string              `json:"transaction_ref,omitempty"`
	Note           string               `json:"note"`
	CreatedAt      time.Time            `json:"created_at"`
}

type orderView struct {
	ID                    uuid.UUID              `json:"id"`
	UserID                uuid.UUID              `json:"user_id"`
	OrderNumber           string                 `json:"order_number"`
	Status                enums.OrderStatus      `json:"status"`
	PaymentStatus         enums.PaymentStatus    `json:"payment_status"`
	PaymentMethodUsed     *string                `json:"payment_method_used,omitempty"`
	ShippingAddress       models.ShippingAddress `json:"shipping_address"`
	ShippingMethodID      *string                `json:"shipping_method_id,omitempty"`
	TrackingNumber        *string                `json:"tracking_number,omitempty"`
	PromoCode             *string                `json:"promo_code,omitempty"`
	TotalPrice            string                 `json:"total_price"`
	ShippingFee           string                 `json:"shipping_fee"`
	Tax                   string                 `json:"tax"`
	Discount              string                 `json:"discount"`
	GrandTotal            string                 `json:"grand_total"`
	Currency              enums.Currency         `json:"currency"`
	EstimatedDeliveryDate *time.Time             `json:"estimated_delivery_date,omitempty"`
	ActualDeliveryDate    *time.Time             `json:"actual_delivery_date,omitempty"`
	Items                 []orderItemView        `json:"items"`
	StatusHistory         []statusHistoryView    `json:"status_history"`
	PaymentHistory        []paymentHistoryView   `json:"payment_history"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

func newOrderView(o *models.Order) orderView {
	view := orderView{
		ID:                    o.ID,
		UserID:                o.UserID,
		OrderNumber:           o.OrderNumber,
		Status:                o.Status,
		PaymentStatus:         o.PaymentStatus,
		PaymentMethodUsed:     o.PaymentMethodUsed,
		ShippingAddress:       o.ShippingAddress,
		ShippingMethodID:      o.ShippingMethodID,
		TrackingNumber:        o.TrackingNumber,
		PromoCode:             o.PromoCode,
		TotalPrice:            money.Format(o.TotalPrice),
		ShippingFee:           money.Format(o.ShippingFee),
		Tax:                   money.Format(o.Tax),
		Discount:              money.Format(o.Discount),
		GrandTotal:            money.Format(o.GrandTotal),
		Currency:              o.Currency,
		EstimatedDeliveryDate: o.EstimatedDeliveryDate,
		ActualDeliveryDate:    o.ActualDeliveryDate,
		Items:                 make([]orderItemView, 0, len(o.Items)),
		StatusHistory:         make([]statusHistoryView, 0, len(o.StatusHistory)),
		PaymentHistory:        make([]paymentHistoryView, 0, len(o.PaymentHistory)),
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
	for _, item := range o.Items {
		view.Items = append(view.Items, orderItemView{
			ID:            item.ID,
			ProductID:     item.ProductID,
			VariationID:   item.VariationID,
			VendorID:      item.VendorID,
			ProductName:   item.ProductName,
			VariationName: item.VariationName,
			Quantity:      item.Quantity,
			Price:         money.Format(item.Price),
			Total:         money.Format(item.Total),
		})
	}
	for _, h := range o.StatusHistory {
		view.StatusHistory = append(view.StatusHistory, statusHistoryView{
			Sequence: h.Sequence, Status: h.Status, Note: h.Note, ChangedBy: h.ChangedBy, CreatedAt: h.CreatedAt,
		})
	}
	for _, p := range o.PaymentHistory {
		view.PaymentHistory = append(view.PaymentHistory, paymentHistoryView{
			Sequence: p.Sequence, Gateway: p.Gateway, Status: p.Status, Amount: money.Format(p.Amount),
			TransactionRef: p.TransactionRef, Note: p.Note, CreatedAt: p.CreatedAt,
		})
	}
	return view
}

type walletView struct {
	ID        uuid.UUID      `json:"id"`
	OwnerID   uuid.UUID      `json:"owner_id"`
	Balance   string         `json:"balance"`
	Currency  enums.Currency `json:"currency"`
	IsActive  bool           `json:"is_active"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func newWalletView(w *models.Wallet) walletView {
	return walletView{
		ID:        w.ID,
		OwnerID:   w.OwnerID,
		Balance:   money.Format(w.Balance),
		Currency:  w.Currency,
		IsActive:  w.IsActive,
		UpdatedAt: w.UpdatedAt,
	}
}

type walletTransactionView struct {
	ID                   uuid.UUID                     `json:"id"`
	TransactionID        string                        `json:"transaction_id"`
	Type                 enums.WalletTransactionType   `json:"type"`
	Status               enums.WalletTransactionStatus `json:"status"`
	Amount               string                        `json:"amount"`
	BalanceBefore        string                        `json:"balance_before"`
	BalanceAfter         string                        `json:"balance_after"`
	Description          string                        `json:"description"`
	PaymentMethod        *string                       `json:"payment_method,omitempty"`
	OrderID              *uuid.UUID                    `json:"order_id,omitempty"`
	GatewayTransactionID *string                       `json:"gateway_transaction_id,omitempty"`
	CreatedAt            time.Time                     `json:"created_at"`
}

func newWalletTransactionView(t models.WalletTransaction) walletTransactionView {
	return walletTransactionView{
		ID:                   t.ID,
		TransactionID:        t.TransactionID,
		Type:                 t.Type,
		Status:               t.Status,
		Amount:               money.Format(t.Amount),
		BalanceBefore:        money.Format(t.BalanceBefore),
		BalanceAfter:         money.Format(t.BalanceAfter),
		Description:          t.Description,
		PaymentMethod:        t.PaymentMethod,
		OrderID:              t.OrderID,
		GatewayTransactionID: t.GatewayTransactionID,
		CreatedAt:            t.CreatedAt,
	}
}

type vendorWalletView struct {
	VendorID         uuid.UUID      `json:"vendor_id"`
	AvailableBalance string         `json:"available_balance"`
	PendingBalance   string         `json:"pending_balance"`
	TotalEarned      string         `json:"total_earned"`
	TotalWithdrawn   string         `json:"total_withdrawn"`
	Currency         enums.Currency `json:"currency"`
	LastPayoutDate   *time.Time     `json:"last_payout_date,omitempty"`
}

func newVendorWalletView(w *models.VendorWallet) vendorWalletView {
	return vendorWalletView{
		VendorID:         w.VendorID,
		AvailableBalance: money.Format(w.AvailableBalance),
		PendingBalance:   money.Format(w.PendingBalance),
		TotalEarned:      money.Format(w.TotalEarned),
		TotalWithdrawn:   money.Format(w.TotalWithdrawn),
		Currency:         w.Currency,
		LastPayoutDate:   w.LastPayoutDate,
	}
}

type earningView struct {
	ID                 uuid.UUID                 `json:"id"`
	OrderID            uuid.UUID                 `json:"order_id"`
	OrderNumber        string                    `json:"order_number"`
	OrderAmount        string                    `json:"order_amount"`
	VendorShare        string                    `json:"vendor_share"`
	PlatformCommission string                    `json:"platform_commission"`
	Currency           enums.Currency            `json:"currency"`
	EarnedDate         time.Time                 `json:"earned_date"`
	PayoutStatus       enums.EarningPayoutStatus `json:"payout_status"`
	PayoutRequestID    *uuid.UUID                `json:"payout_request_id,omitempty"`
}

func newEarningView(e models.VendorEarning) earningView {
	return earningView{
		ID:                 e.ID,
		OrderID:            e.OrderID,
		OrderNumber:        e.OrderNumber,
		OrderAmount:        money.Format(e.OrderAmount),
		VendorShare:        money.Format(e.VendorShare),
		PlatformCommission: money.Format(e.PlatformCommission),
		Currency:           e.Currency,
		EarnedDate:         e.EarnedDate,
		PayoutStatus:       e.PayoutStatus,
		PayoutRequestID:    e.PayoutRequestID,
	}
}

type payoutView struct {
	ID                   uuid.UUID            `json:"id"`
	VendorID             uuid.UUID            `json:"vendor_id"`
	RequestedAmount      string               `json:"requested_amount"`
	Currency             enums.Currency       `json:"currency"`
	PayoutMethod         enums.PayoutMethod   `json:"payout_method"`
	PayoutDetails        models.PayoutDetails `json:"payout_details"`
	Status               enums.PayoutStatus   `json:"status"`
	RequestedDate        time.Time            `json:"requested_date"`
	ProcessedDate        *time.Time           `json:"processed_date,omitempty"`
	CompletedDate        *time.Time           `json:"completed_date,omitempty"`
	RejectionReason      *string              `json:"rejection_reason,omitempty"`
	ProcessedBy          *uuid.UUID           `json:"processed_by,omitempty"`
	TransactionReference *string              `json:"transaction_reference,omitempty"`
	Notes                *string              `json:"notes,omitempty"`
}

func newPayoutView(p *models.PayoutRequest) payoutView {
	return payoutView{
		ID:                   p.ID,
		VendorID:             p.VendorID,
		RequestedAmount:      money.Format(p.RequestedAmount),
		Currency:             p.Currency,
		PayoutMethod:         p.PayoutMethod,
		PayoutDetails:        p.PayoutDetails,
		Status:               p.Status,
		RequestedDate:        p.RequestedDate,
		ProcessedDate:        p.ProcessedDate,
		CompletedDate:        p.CompletedDate,
		RejectionReason:      p.RejectionReason,
		ProcessedBy:          p.ProcessedBy,
		TransactionReference: p.TransactionReference,
		Notes:                p.Notes,
	}
}

// mapPage converts a page of rows into a page of views, keeping the cursor.
func mapPage[T, V any](page pagination.Page[T], view func(T) V) pagination.Page[V] {
	out := pagination.Page[V]{Items: make([]V, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, item := range page.Items {
		out.Items = append(out.Items, view(item))
	}
	return out
}
