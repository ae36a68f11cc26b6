package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	"github.com/angelmondragon/souq-backend/internal/ledger"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

type walletService interface {
	GetOrCreate(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error)
	Credit(ctx context.Context, input ledger.CreditInput) (*models.Wallet, error)
	ListTransactions(ctx context.Context, ownerID uuid.UUID, filter ledger.TransactionFilter, params pagination.Params) (pagination.Page[models.WalletTransaction], error)
}

type creditWalletRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method" validate:"required,max=64"`
	Description string          `json:"description" validate:"max=255"`
	GatewayRef  *string         `json:"gateway_ref,omitempty"`
}

func GetWallet(svc walletService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		wallet, err := svc.GetOrCreate(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWalletView(wallet))
	}
}

// ListWalletTransactions pages through the caller's journal with optional filters.
func ListWalletTransactions(svc walletService, logg *logger.Logger) http.HandlerFunc {
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
		filter, err := parseTransactionFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListTransactions(r.Context(), userID, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapPage(page, newWalletTransactionView))
	}
}

func parseTransactionFilter(r *http.Request) (ledger.TransactionFilter, error) {
	var filter ledger.TransactionFilter
	var err error
	if filter.Type, err = validators.ParseQueryEnum(r, "type", enums.ParseWalletTransactionType); err != nil {
		return filter, err
	}
	if filter.Status, err = validators.ParseQueryEnum(r, "status", enums.ParseWalletTransactionStatus); err != nil {
		return filter, err
	}
	if filter.MinAmount, err = parseQueryDecimal(r, "min_amount"); err != nil {
		return filter, err
	}
	if filter.MaxAmount, err = parseQueryDecimal(r, "max_amount"); err != nil {
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

// AdminCreditWallet tops up a user's wallet, e.g. after a card payment clears.
func AdminCreditWallet(svc walletService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := validators.ParseUUIDParam(r, "ownerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req creditWalletRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wallet, err := svc.Credit(r.Context(), ledger.CreditInput{
			OwnerID:     ownerID,
			Amount:      req.Amount,
			Method:      req.Method,
			Description: req.Description,
			GatewayRef:  req.GatewayRef,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWalletView(wallet))
	}
}
