package payouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/internal/ledger"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/metrics"
	"github.com/angelmondragon/souq-backend/pkg/money"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

const commissionMethod = "COMMISSION"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// commissionPoster is the slice of the wallet ledger used for admin commission.
type commissionPoster interface {
	PostOnce(ctx context.Context, entry ledger.Entry) (*ledger.Posting, bool, error)
}

// Service converts delivered order value into vendor balance and settles withdrawals.
type Service interface {
	CreateVendorEarning(ctx context.Context, input EarningInput) (*models.VendorEarning, error)
	CreateAdminCommission(ctx context.Context, input CommissionInput)
	CreatePayoutRequest(ctx context.Context, input PayoutRequestInput) (*models.PayoutRequest, error)
	ProcessPayoutRequest(ctx context.Context, input ProcessInput) (*models.PayoutRequest, error)
	GetVendorWallet(ctx context.Context, vendorID uuid.UUID) (*models.VendorWallet, error)
	GetPayoutRequest(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
	ListEarnings(ctx context.Context, filter EarningFilter, params pagination.Params) (pagination.Page[models.VendorEarning], error)
	ListPayoutRequests(ctx context.Context, filter PayoutFilter, params pagination.Params) (pagination.Page[models.PayoutRequest], error)
	GetVendorSalesStats(ctx context.Context, vendorID uuid.UUID, period DateRange) (SalesStats, error)
	GetVendorMonthlySales(ctx context.Context, vendorID uuid.UUID, year int) ([]MonthlySales, error)
	GetAdminCommissionStats(ctx context.Context, period DateRange) (CommissionStats, error)
}

// Options configures the split rates and the admin wallet receiving commission.
type Options struct {
	AdminWalletID  uuid.UUID
	VendorRate     decimal.Decimal
	CommissionRate decimal.Decimal
	Currency       enums.Currency
	Metrics        *metrics.LedgerMetrics
	Clock          func() time.Time
}

type EarningInput struct {
	VendorID    uuid.UUID
	OrderID     uuid.UUID
	OrderNumber string
	Amount      decimal.Decimal
}

type CommissionInput struct {
	OrderID     uuid.UUID
	OrderNumber string
	GrandTotal  decimal.Decimal
}

type PayoutRequestInput struct {
	VendorID uuid.UUID
	Amount   decimal.Decimal
	Method   enums.PayoutMethod
	Details  models.PayoutDetails
	Notes    *string
}

type ProcessInput struct {
	RequestID            uuid.UUID
	AdminID              uuid.UUID
	Status               enums.PayoutStatus
	RejectionReason      *string
	TransactionReference *string
	Notes                *string
}

type service struct {
	repo           Repository
	tx             txRunner
	wallets        commissionPoster
	logg           *logger.Logger
	metrics        *metrics.LedgerMetrics
	adminWalletID  uuid.UUID
	vendorRate     decimal.Decimal
	commissionRate decimal.Decimal
	currency       enums.Currency
	now            func() time.Time
}

// NewService wires the payout ledger. wallets may be nil when no admin wallet
// is configured.
func NewService(repo Repository, tx txRunner, wallets commissionPoster, logg *logger.Logger, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.AdminWalletID != uuid.Nil && wallets == nil {
		return nil, fmt.Errorf("wallet ledger required when an admin wallet is configured")
	}

	vendorRate, commissionRate := opts.VendorRate, opts.CommissionRate
	if vendorRate.IsZero() && commissionRate.IsZero() {
		vendorRate, commissionRate = money.DefaultVendorRate, money.DefaultCommissionRate
	}
	if !vendorRate.Add(commissionRate).Equal(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("vendor and commission rates must sum to 1")
	}
	currency := opts.Currency
	if currency == "" {
		currency = enums.DefaultCurrency
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &service{
		repo:           repo,
		tx:             tx,
		wallets:        wallets,
		logg:           logg,
		metrics:        opts.Metrics,
		adminWalletID:  opts.AdminWalletID,
		vendorRate:     vendorRate,
		commissionRate: commissionRate,
		currency:       currency,
		now:            clock,
	}, nil
}

// CreateVendorEarning records the vendor's share of an order and credits the
// vendor wallet. A second call for the same (vendor, order) returns the
// existing earning without touching the wallet.
func (s *service) CreateVendorEarning(ctx context.Context, input EarningInput) (*models.VendorEarning, error) {
	if input.VendorID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id and order id required")
	}
	amount := money.Round(input.Amount)
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "earning amount must be greater than zero")
	}

	var (
		earning *models.VendorEarning
		created bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		wallet, err := s.lockOrCreateWallet(ctx, repo, input.VendorID)
		if err != nil {
			return err
		}

		existing, err := repo.FindEarning(ctx, input.VendorID, input.OrderID)
		if err == nil {
			earning = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor earning")
		}

		vendorShare, commission := money.Split(amount, s.vendorRate, s.commissionRate)
		now := s.now().UTC()
		record := &models.VendorEarning{
			VendorID:           input.VendorID,
			OrderID:            input.OrderID,
			OrderNumber:        input.OrderNumber,
			OrderAmount:        amount,
			VendorShare:        vendorShare,
			PlatformCommission: commission,
			Currency:           s.currency,
			EarnedDate:         now,
			PayoutStatus:       enums.EarningPayoutStatusPending,
			CreatedAt:          now,
		}
		inserted, err := repo.CreateEarningIfAbsent(ctx, record)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor earning")
		}
		if !inserted {
			existing, err := repo.FindEarning(ctx, input.VendorID, input.OrderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor earning")
			}
			earning = existing
			return nil
		}

		wallet.AvailableBalance = money.Round(wallet.AvailableBalance.Add(vendorShare))
		wallet.TotalEarned = money.Round(wallet.TotalEarned.Add(vendorShare))
		if err := repo.UpdateVendorWallet(ctx, wallet); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit vendor wallet")
		}
		earning = record
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithVendorID(s.logg.WithOrderID(ctx, input.OrderID.String()), input.VendorID.String())
	if !created {
		s.logg.Info(logCtx, "vendor earning already recorded")
		return earning, nil
	}
	s.metrics.IncEarningCreated()
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"order_amount":        money.Format(earning.OrderAmount),
		"vendor_share":        money.Format(earning.VendorShare),
		"platform_commission": money.Format(earning.PlatformCommission),
	}), "vendor earning created")
	return earning, nil
}

// CreateAdminCommission credits the commission on the whole order to the admin
// wallet. Failures are logged and counted, never returned.
func (s *service) CreateAdminCommission(ctx context.Context, input CommissionInput) {
	if s.adminWalletID == uuid.Nil {
		return
	}
	logCtx := s.logg.WithOrderID(ctx, input.OrderID.String())
	amount := money.Share(input.GrandTotal, s.commissionRate)
	if !amount.IsPositive() {
		s.logg.Warn(logCtx, "admin commission skipped for non-positive amount")
		return
	}

	orderID := input.OrderID
	method := commissionMethod
	_, posted, err := s.wallets.PostOnce(ctx, ledger.Entry{
		OwnerID:     s.adminWalletID,
		Type:        enums.WalletTransactionTypeCredit,
		Amount:      amount,
		Description: fmt.Sprintf("Commission from order %s", input.OrderNumber),
		Method:      &method,
		OrderID:     &orderID,
	})
	if err != nil {
		s.metrics.IncSideEffectFailure("admin_commission")
		s.logg.Error(logCtx, "admin commission credit failed", err)
		return
	}
	if !posted {
		s.logg.Info(logCtx, "admin commission already credited")
		return
	}
	s.logg.Info(s.logg.WithField(logCtx, "amount", money.Format(amount)), "admin commission credited")
}

func (s *service) CreatePayoutRequest(ctx context.Context, input PayoutRequestInput) (*models.PayoutRequest, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	amount := money.Round(input.Amount)
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested amount must be greater than zero")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payout method %q", input.Method))
	}
	details, err := normalizeDetails(input.Method, input.Details)
	if err != nil {
		return nil, err
	}

	var request *models.PayoutRequest
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		wallet, err := repo.FindVendorWalletForUpdate(ctx, input.VendorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrWalletNotFound, "vendor wallet not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock vendor wallet")
		}

		outstanding, err := repo.CountOutstandingRequests(ctx, input.VendorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count outstanding payout requests")
		}
		if outstanding > 0 {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrPendingRequestExists, "a payout request is already in progress")
		}

		if wallet.AvailableBalance.LessThan(amount) {
			return pkgerrors.Wrap(pkgerrors.CodeInsufficient, ledger.ErrInsufficientBalance, "available balance is lower than the requested amount").
				WithDetails(map[string]any{
					"available": money.Format(wallet.AvailableBalance),
					"requested": money.Format(amount),
				})
		}

		now := s.now().UTC()
		request = &models.PayoutRequest{
			VendorID:        input.VendorID,
			RequestedAmount: amount,
			Currency:        s.currency,
			PayoutMethod:    input.Method,
			PayoutDetails:   details,
			Status:          enums.PayoutStatusPending,
			RequestedDate:   now,
			Notes:           trimmed(input.Notes),
			CreatedAt:       now,
		}
		if err := repo.CreatePayoutRequest(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout request")
		}

		wallet.AvailableBalance = money.Round(wallet.AvailableBalance.Sub(amount))
		wallet.PendingBalance = money.Round(wallet.PendingBalance.Add(amount))
		if err := repo.UpdateVendorWallet(ctx, wallet); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve payout funds")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPayoutRequest(request.Status.String())
	logCtx := s.logg.WithPayoutRequestID(s.logg.WithVendorID(ctx, input.VendorID.String()), request.ID.String())
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"amount": money.Format(amount),
		"method": input.Method.String(),
	}), "payout requested")
	return request, nil
}

func (s *service) ProcessPayoutRequest(ctx context.Context, input ProcessInput) (*models.PayoutRequest, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout request id required")
	}
	if input.AdminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin id required")
	}
	switch input.Status {
	case enums.PayoutStatusApproved, enums.PayoutStatusCompleted, enums.PayoutStatusRejected, enums.PayoutStatusFailed:
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidPayoutStatus, fmt.Sprintf("cannot process payout to %q", input.Status))
	}

	var (
		request *models.PayoutRequest
		settled int
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		req, err := repo.FindPayoutRequestForUpdate(ctx, input.RequestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrPayoutNotFound, "payout request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock payout request")
		}
		if !req.Status.IsProcessable() || req.Status == input.Status {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrNotProcessable, fmt.Sprintf("payout request is %s", req.Status)).
				WithDetails(map[string]any{"current_status": req.Status.String(), "requested_status": input.Status.String()})
		}

		wallet, err := repo.FindVendorWalletForUpdate(ctx, req.VendorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrWalletNotFound, "vendor wallet not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock vendor wallet")
		}

		now := s.now().UTC()
		adminID := input.AdminID
		req.Status = input.Status
		req.ProcessedDate = &now
		req.ProcessedBy = &adminID
		if ref := trimmed(input.TransactionReference); ref != nil {
			req.TransactionReference = ref
		}
		if notes := trimmed(input.Notes); notes != nil {
			req.Notes = notes
		}

		switch input.Status {
		case enums.PayoutStatusCompleted:
			req.CompletedDate = &now
			wallet.PendingBalance = money.Round(wallet.PendingBalance.Sub(req.RequestedAmount))
			wallet.TotalWithdrawn = money.Round(wallet.TotalWithdrawn.Add(req.RequestedAmount))
			wallet.LastPayoutDate = &now
			settled, err = s.settleEarnings(ctx, repo, req)
			if err != nil {
				return err
			}
		case enums.PayoutStatusRejected, enums.PayoutStatusFailed:
			wallet.PendingBalance = money.Round(wallet.PendingBalance.Sub(req.RequestedAmount))
			wallet.AvailableBalance = money.Round(wallet.AvailableBalance.Add(req.RequestedAmount))
			req.RejectionReason = trimmed(input.RejectionReason)
		}

		if err := repo.UpdatePayoutRequest(ctx, req); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout request")
		}
		if input.Status != enums.PayoutStatusApproved {
			if err := repo.UpdateVendorWallet(ctx, wallet); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor wallet")
			}
		}
		request = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPayoutRequest(request.Status.String())
	logCtx := s.logg.WithPayoutRequestID(s.logg.WithVendorID(ctx, request.VendorID.String()), request.ID.String())
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"status":           request.Status.String(),
		"admin_id":         input.AdminID.String(),
		"earnings_settled": settled,
	}), "payout request processed")
	return request, nil
}

// settleEarnings marks the vendor's oldest pending earnings as paid while their
// full share fits in the requested amount. It stops at the first earning that
// does not fit.
func (s *service) settleEarnings(ctx context.Context, repo Repository, req *models.PayoutRequest) (int, error) {
	pending, err := repo.ListPendingEarningsFIFO(ctx, req.VendorID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending earnings")
	}
	remaining := req.RequestedAmount
	ids := make([]uuid.UUID, 0, len(pending))
	for _, earning := range pending {
		if earning.VendorShare.GreaterThan(remaining) {
			break
		}
		remaining = remaining.Sub(earning.VendorShare)
		ids = append(ids, earning.ID)
		if !remaining.IsPositive() {
			break
		}
	}
	if err := repo.MarkEarningsPaid(ctx, ids, req.ID); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark earnings paid")
	}
	return len(ids), nil
}

func (s *service) GetVendorWallet(ctx context.Context, vendorID uuid.UUID) (*models.VendorWallet, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	wallet, err := s.repo.FindVendorWallet(ctx, vendorID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor wallet")
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.lockOrCreateWallet(ctx, s.repo.WithTx(tx), vendorID)
		if err != nil {
			return err
		}
		wallet = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *service) GetPayoutRequest(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	req, err := s.repo.FindPayoutRequest(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrPayoutNotFound, "payout request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout request")
	}
	return req, nil
}

func (s *service) ListEarnings(ctx context.Context, filter EarningFilter, params pagination.Params) (pagination.Page[models.VendorEarning], error) {
	var page pagination.Page[models.VendorEarning]
	if !(DateRange{From: filter.From, To: filter.To}).valid() {
		return page, pkgerrors.New(pkgerrors.CodeValidation, "from date is after to date")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return page, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListEarnings(ctx, filter, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return page, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor earnings")
	}
	return pagination.Build(rows, params.Limit, func(e models.VendorEarning) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	}), nil
}

func (s *service) ListPayoutRequests(ctx context.Context, filter PayoutFilter, params pagination.Params) (pagination.Page[models.PayoutRequest], error) {
	var page pagination.Page[models.PayoutRequest]
	if filter.Status != nil && !filter.Status.IsValid() {
		return page, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payout status %q", *filter.Status))
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return page, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListPayoutRequests(ctx, filter, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return page, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payout requests")
	}
	return pagination.Build(rows, params.Limit, func(r models.PayoutRequest) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	}), nil
}

func (s *service) GetVendorSalesStats(ctx context.Context, vendorID uuid.UUID, period DateRange) (SalesStats, error) {
	if vendorID == uuid.Nil {
		return SalesStats{}, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	earnings, err := s.earnings(ctx, &vendorID, period)
	if err != nil {
		return SalesStats{}, err
	}
	return SummarizeSales(earnings), nil
}

func (s *service) GetVendorMonthlySales(ctx context.Context, vendorID uuid.UUID, year int) ([]MonthlySales, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if year < 2000 || year > 9999 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid year %d", year))
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0).Add(-time.Nanosecond)
	earnings, err := s.earnings(ctx, &vendorID, DateRange{From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	return MonthlyBreakdown(earnings, year), nil
}

func (s *service) GetAdminCommissionStats(ctx context.Context, period DateRange) (CommissionStats, error) {
	earnings, err := s.earnings(ctx, nil, period)
	if err != nil {
		return CommissionStats{}, err
	}
	return SummarizeCommission(earnings), nil
}

func (s *service) earnings(ctx context.Context, vendorID *uuid.UUID, period DateRange) ([]models.VendorEarning, error) {
	if !period.valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from date is after to date")
	}
	rows, err := s.repo.EarningsBetween(ctx, vendorID, period.From, period.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor earnings")
	}
	return rows, nil
}

func (s *service) lockOrCreateWallet(ctx context.Context, repo Repository, vendorID uuid.UUID) (*models.VendorWallet, error) {
	wallet, err := repo.FindVendorWalletForUpdate(ctx, vendorID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock vendor wallet")
	}
	if err := repo.CreateVendorWalletIfAbsent(ctx, &models.VendorWallet{
		VendorID:         vendorID,
		AvailableBalance: decimal.Zero,
		PendingBalance:   decimal.Zero,
		TotalEarned:      decimal.Zero,
		TotalWithdrawn:   decimal.Zero,
		Currency:         s.currency,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor wallet")
	}
	wallet, err = repo.FindVendorWalletForUpdate(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock vendor wallet")
	}
	return wallet, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
