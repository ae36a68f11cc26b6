package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	internalorders "github.com/angelmondragon/souq-backend/internal/orders"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
)

type adminOrderService interface {
	UpdateStatus(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error)
	UpdatePaymentWithHistory(ctx context.Context, input internalorders.PaymentUpdateInput) (*models.Order, error)
	Purge(ctx context.Context, id uuid.UUID) error
}

type updateStatusRequest struct {
	Status         string  `json:"status" validate:"required"`
	Note           string  `json:"note" validate:"max=500"`
	TrackingNumber *string `json:"tracking_number,omitempty" validate:"omitempty,max=128"`
}

type updatePaymentRequest struct {
	Status         string          `json:"status" validate:"required"`
	Gateway        string          `json:"gateway" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
	TransactionRef *string         `json:"transaction_ref,omitempty" validate:"omitempty,max=255"`
	Note           string          `json:"note" validate:"max=500"`
}

// AdminUpdateOrderStatus advances an order along its lifecycle.
func AdminUpdateOrderStatus(svc adminOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateStatusRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), internalorders.UpdateStatusInput{
			OrderID:        orderID,
			Status:         status,
			Note:           req.Note,
			TrackingNumber: req.TrackingNumber,
			ChangedBy:      &adminID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// AdminRecordPayment appends a gateway payment signal to an order.
func AdminRecordPayment(svc adminOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updatePaymentRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParsePaymentStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		gateway, err := enums.ParsePaymentGateway(req.Gateway)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gateway"))
			return
		}

		order, err := svc.UpdatePaymentWithHistory(r.Context(), internalorders.PaymentUpdateInput{
			OrderID: orderID,
			Status:  status,
			Entry: internalorders.PaymentEntry{
				Gateway:        gateway,
				Amount:         req.Amount,
				TransactionRef: req.TransactionRef,
				Note:           req.Note,
			},
			ChangedBy: &adminID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

func AdminDeleteOrder(svc adminOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Purge(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
