package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	"github.com/angelmondragon/souq-backend/internal/payouts"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

type vendorPayoutService interface {
	GetVendorWallet(ctx context.Context, vendorID uuid.UUID) (*models.VendorWallet, error)
	ListEarnings(ctx context.Context, filter payouts.EarningFilter, params pagination.Params) (pagination.Page[models.VendorEarning], error)
	CreatePayoutRequest(ctx context.Context, input payouts.PayoutRequestInput) (*models.PayoutRequest, error)
	ListPayoutRequests(ctx context.Context, filter payouts.PayoutFilter, params pagination.Params) (pagination.Page[models.PayoutRequest], error)
}

type adminPayoutService interface {
	ListPayoutRequests(ctx context.Context, filter payouts.PayoutFilter, params pagination.Params) (pagination.Page[models.PayoutRequest], error)
	ProcessPayoutRequest(ctx context.Context, input payouts.ProcessInput) (*models.PayoutRequest, error)
}

type createPayoutRequest struct {
	Amount        decimal.Decimal      `json:"amount"`
	PayoutMethod  string               `json:"payout_method" validate:"required"`
	PayoutDetails models.PayoutDetails `json:"payout_details"`
	Notes         *string              `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type processPayoutRequest struct {
	Status               string  `json:"status" validate:"required"`
	RejectionReason      *string `json:"rejection_reason,omitempty" validate:"omitempty,max=500"`
	TransactionReference *string `json:"transaction_reference,omitempty" validate:"omitempty,max=255"`
	Notes                *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func VendorWallet(svc vendorPayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		wallet, err := svc.GetVendorWallet(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newVendorWalletView(wallet))
	}
}

// VendorEarnings lists the caller's earnings, filterable by payout status and earned date.
func VendorEarnings(svc vendorPayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := payouts.EarningFilter{VendorID: &vendorID}
		if filter.PayoutStatus, err = validators.ParseQueryEnum(r, "payout_status", enums.ParseEarningPayoutStatus); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.From, err = validators.ParseQueryTime(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.To, err = validators.ParseQueryTime(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListEarnings(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapPage(page, newEarningView))
	}
}

// CreatePayout opens a withdrawal request against the caller's available balance.
func CreatePayout(svc vendorPayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createPayoutRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePayoutMethod(req.PayoutMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout_method"))
			return
		}

		request, err := svc.CreatePayoutRequest(r.Context(), payouts.PayoutRequestInput{
			VendorID: vendorID,
			Amount:   req.Amount,
			Method:   method,
			Details:  req.PayoutDetails,
			Notes:    req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPayoutView(request))
	}
}

func ListVendorPayouts(svc vendorPayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParsePayoutStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListPayoutRequests(r.Context(), payouts.PayoutFilter{VendorID: &vendorID, Status: status}, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapPage(page, func(p models.PayoutRequest) payoutView { return newPayoutView(&p) }))
	}
}

// AdminListPayouts lists payout requests across vendors.
func AdminListPayouts(svc adminPayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var filter payouts.PayoutFilter
		if filter.VendorID, err = parseQueryUUID(r, "vendor_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.Status, err = validators.ParseQueryEnum(r, "status", enums.ParsePayoutStatus); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListPayoutRequests(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapPage(page, func(p models.PayoutRequest) payoutView { return newPayoutView(&p) }))
	}
}

// AdminProcessPayout moves a payout request through review and settlement.
func AdminProcessPayout(svc adminPayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := validators.ParseUUIDParam(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req processPayoutRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParsePayoutStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		processed, err := svc.ProcessPayoutRequest(r.Context(), payouts.ProcessInput{
			RequestID:            requestID,
			AdminID:              adminID,
			Status:               status,
			RejectionReason:      req.RejectionReason,
			TransactionReference: req.TransactionReference,
			Notes:                req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPayoutView(processed))
	}
}
