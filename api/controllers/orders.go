package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/api/middleware"
	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	internalorders "github.com/angelmondragon/souq-backend/internal/orders"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

type orderReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type customerOrderService interface {
	orderReader
	Create(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error)
	Cancel(ctx context.Context, input internalorders.CancelInput) (*models.Order, error)
	PayWithWallet(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter internalorders.OrderFilter, params pagination.Params) (pagination.Page[models.Order], error)
}

type createOrderRequest struct {
	Lines                 []internalorders.CartLine `json:"lines" validate:"required,min=1,dive"`
	ShippingAddress       models.ShippingAddress    `json:"shipping_address" validate:"required"`
	TotalPrice            decimal.Decimal           `json:"total_price"`
	ShippingFee           decimal.Decimal           `json:"shipping_fee"`
	Tax                   decimal.Decimal           `json:"tax"`
	Discount              decimal.Decimal           `json:"discount"`
	PromoCode             *string                   `json:"promo_code,omitempty"`
	ShippingMethodID      *string                   `json:"shipping_method_id,omitempty"`
	PaymentMethod         *string                   `json:"payment_method,omitempty"`
	EstimatedDeliveryDate *time.Time                `json:"estimated_delivery_date,omitempty"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// CreateOrder places an order for the authenticated customer.
func CreateOrder(svc customerOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), internalorders.CreateOrderInput{
			UserID:   userID,
			Lines:    req.Lines,
			Shipping: req.ShippingAddress,
			Totals: internalorders.Totals{
				TotalPrice:  req.TotalPrice,
				ShippingFee: req.ShippingFee,
				Tax:         req.Tax,
				Discount:    req.Discount,
			},
			PromoCode:             req.PromoCode,
			ShippingMethodID:      req.ShippingMethodID,
			PaymentMethod:         req.PaymentMethod,
			EstimatedDeliveryDate: req.EstimatedDeliveryDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderView(order))
	}
}

// ListOrders pages through the caller's orders, newest first.
func ListOrders(svc customerOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := parseOrderFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListByUser(r.Context(), userID, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapPage(page, func(o models.Order) orderView { return newOrderView(&o) }))
	}
}

func parseOrderFilter(r *http.Request) (internalorders.OrderFilter, error) {
	var filter internalorders.OrderFilter
	var err error
	if filter.Status, err = validators.ParseQueryEnum(r, "status", enums.ParseOrderStatus); err != nil {
		return filter, err
	}
	if filter.PaymentStatus, err = validators.ParseQueryEnum(r, "payment_status", enums.ParsePaymentStatus); err != nil {
		return filter, err
	}
	if filter.From, err = validators.ParseQueryTime(r, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = validators.ParseQueryTime(r, "to"); err != nil {
		return filter, err
	}
	return filter, nil
}

// GetOrder returns one order to its customer, an admin, or a vendor with lines on it.
func GetOrder(svc orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := loadVisibleOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// CancelOrder cancels one of the caller's orders and refunds wallet payments.
func CancelOrder(svc customerOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := loadVisibleOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID := middleware.UserIDFromContext(r.Context())
		if order.UserID != userID && middleware.RoleFromContext(r.Context()) != enums.MemberRoleAdmin {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only the customer can cancel this order"))
			return
		}

		var req cancelOrderRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cancelled, err := svc.Cancel(r.Context(), internalorders.CancelInput{
			OrderID:   order.ID,
			Reason:    req.Reason,
			ChangedBy: optionalUUID(userID),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(cancelled))
	}
}

// PayOrderWithWallet settles a pending order from the caller's wallet balance.
func PayOrderWithWallet(svc customerOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PayWithWallet(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

func loadVisibleOrder(r *http.Request, svc orderReader) (*models.Order, error) {
	userID, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	orderID, err := validators.ParseUUIDParam(r, "orderId")
	if err != nil {
		return nil, err
	}
	order, err := svc.Get(r.Context(), orderID)
	if err != nil {
		return nil, err
	}
	if !canView(order, userID, middleware.RoleFromContext(r.Context())) {
		// Hide the order's existence from other customers.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func canView(order *models.Order, userID uuid.UUID, role enums.MemberRole) bool {
	switch {
	case order.UserID == userID:
		return true
	case role == enums.MemberRoleAdmin:
		return true
	case role == enums.MemberRoleVendor:
		for _, item := range order.Items {
			if item.VendorID == userID {
				return true
			}
		}
	}
	return false
}
