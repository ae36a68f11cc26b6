package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/internal/ledger"
	"github.com/angelmondragon/souq-backend/internal/payouts"
	product "github.com/angelmondragon/souq-backend/internal/products"
	"github.com/angelmondragon/souq-backend/pkg/db"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/metrics"
	"github.com/angelmondragon/souq-backend/pkg/money"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

const orderNumberAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service runs checkout, status progression, cancellation and payment reconciliation.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	UpdatePaymentWithHistory(ctx context.Context, input PaymentUpdateInput) (*models.Order, error)
	PayWithWallet(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter OrderFilter, params pagination.Params) (pagination.Page[models.Order], error)
	ListDeliveredSince(ctx context.Context, since time.Time) ([]models.Order, error)
	Purge(ctx context.Context, id uuid.UUID) error
}

// Options carries the optional collaborators of the order service.
type Options struct {
	Notifier OrderNotifier
	Metrics  *metrics.LedgerMetrics
	Currency enums.Currency
	Clock    func() time.Time
	// OrderNumber overrides the ORD-<millis>-<digits> generator.
	OrderNumber func(now time.Time) string
}

type service struct {
	repo     Repository
	tx       txRunner
	catalog  ProductCatalog
	wallets  WalletPoster
	earnings EarningsRecorder
	notifier OrderNotifier
	logg     *logger.Logger
	metrics  *metrics.LedgerMetrics
	validate *validator.Validate
	currency enums.Currency
	now      func() time.Time
	number   func(now time.Time) string
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, catalog ProductCatalog, wallets WalletPoster, earnings EarningsRecorder, logg *logger.Logger, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet ledger required")
	}
	if earnings == nil {
		return nil, fmt.Errorf("earnings recorder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	currency := opts.Currency
	if currency == "" {
		currency = enums.DefaultCurrency
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	number := opts.OrderNumber
	if number == nil {
		number = newOrderNumber
	}
	return &service{
		repo:     repo,
		tx:       tx,
		catalog:  catalog,
		wallets:  wallets,
		earnings: earnings,
		notifier: notifier,
		logg:     logg,
		metrics:  opts.Metrics,
		validate: validator.New(),
		currency: currency,
		now:      clock,
		number:   number,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, 0, len(input.Lines))
	for _, line := range input.Lines {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.catalog.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	now := s.now().UTC()
	items, err := priceLines(input.Lines, products, now)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:                input.UserID,
		ShippingAddress:       input.Shipping,
		TotalPrice:            money.Round(input.Totals.TotalPrice),
		ShippingFee:           money.Round(input.Totals.ShippingFee),
		Tax:                   money.Round(input.Totals.Tax),
		Discount:              money.Round(input.Totals.Discount),
		Currency:              s.currency,
		PromoCode:             trimmed(input.PromoCode),
		EstimatedDeliveryDate: input.EstimatedDeliveryDate,
		Status:                enums.OrderStatusPending,
		PaymentStatus:         enums.PaymentStatusPending,
		PaymentMethodUsed:     trimmed(input.PaymentMethod),
		ShippingMethodID:      trimmed(input.ShippingMethodID),
		CreatedAt:             now,
		Items:                 items,
	}
	order.RecomputeGrandTotal()

	logCtx := s.logg.WithUserID(ctx, input.UserID.String())
	if lineSum := sumLines(items); !lineSum.Equal(order.TotalPrice) {
		s.logg.Warn(s.logg.WithFields(logCtx, map[string]any{
			"total_price": money.Format(order.TotalPrice),
			"line_sum":    money.Format(lineSum),
		}), "order total differs from line item sum")
	}

	for attempt := 1; ; attempt++ {
		order.ID = uuid.Nil
		order.OrderNumber = s.number(s.now())
		order.StatusHistory = []models.OrderStatusHistory{{
			Sequence:  1,
			Status:    enums.OrderStatusPending,
			Note:      "Order placed",
			ChangedBy: &input.UserID,
			CreatedAt: now,
		}}
		for i := range order.Items {
			order.Items[i].ID = uuid.Nil
			order.Items[i].OrderID = uuid.Nil
		}

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
				if db.IsUniqueViolation(err, "ux_orders_order_number", "orders.order_number") {
					return errOrderNumberTaken
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}
			return nil
		})
		if err == nil {
			break
		}
		if !errors.Is(err, errOrderNumberTaken) || attempt >= orderNumberAttempts {
			if errors.Is(err, errOrderNumberTaken) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "could not allocate an order number")
			}
			return nil, err
		}
	}

	s.metrics.IncOrderCreated()
	logCtx = s.logg.WithOrderID(logCtx, order.ID.String())
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"order_number": order.OrderNumber,
		"grand_total":  money.Format(order.GrandTotal),
		"line_items":   len(order.Items),
	}), "order created")

	s.notifier.OrderPlaced(ctx, order)
	return order, nil
}

func (s *service) validateCreate(input CreateOrderInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one line")
	}
	for i, line := range input.Lines {
		if err := s.validate.Struct(line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart line").
				WithDetails(map[string]any{"line": i})
		}
	}
	if err := s.validate.Struct(input.Shipping); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}
	for name, amount := range map[string]decimal.Decimal{
		"total_price":  input.Totals.TotalPrice,
		"shipping_fee": input.Totals.ShippingFee,
		"tax":          input.Totals.Tax,
		"discount":     input.Totals.Discount,
	} {
		if amount.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must not be negative", name))
		}
	}
	t := input.Totals
	if money.Round(t.TotalPrice.Add(t.ShippingFee).Add(t.Tax).Sub(t.Discount)).IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order total")
	}
	return nil
}

// priceLines snapshots each cart line at its effective unit price.
func priceLines(lines []CartLine, products map[uuid.UUID]*models.Product, now time.Time) ([]models.OrderLineItem, error) {
	items := make([]models.OrderLineItem, 0, len(lines))
	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok || !p.IsActive {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrProductNotFound, "product not found").
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
		quote, err := product.EffectiveUnitPrice(p, line.VariationID, now)
		if err != nil {
			if errors.Is(err, product.ErrVariationNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrVariationNotFound, "product variation not found").
					WithDetails(map[string]any{"product_id": line.ProductID.String(), "variation_id": line.VariationID.String()})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "price cart line")
		}

		item := models.OrderLineItem{
			ProductID:   p.ID,
			VendorID:    p.VendorID,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			Price:       quote.UnitPrice,
			Total:       money.Round(quote.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))),
		}
		if quote.Variation != nil {
			variationID := quote.Variation.ID
			variationName := quote.Variation.Name
			item.VariationID = &variationID
			item.VariationName = &variationName
		}
		items = append(items, item)
	}
	return items, nil
}

func sumLines(items []models.OrderLineItem) decimal.Decimal {
	totals := make([]decimal.Decimal, 0, len(items))
	for _, item := range items {
		totals = append(totals, item.Total)
	}
	return money.Sum(totals...)
}

// VendorAmounts sums line totals per vendor.
func VendorAmounts(order *models.Order) map[uuid.UUID]decimal.Decimal {
	amounts := make(map[uuid.UUID]decimal.Decimal)
	for _, item := range order.Items {
		amounts[item.VendorID] = amounts[item.VendorID].Add(item.Total)
	}
	for vendorID, amount := range amounts {
		amounts[vendorID] = money.Round(amount)
	}
	return amounts
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", input.Status))
	}

	var (
		order     *models.Order
		previous  enums.OrderStatus
		delivered bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := s.lockOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		order = locked
		previous = locked.Status

		if !previous.CanTransitionTo(input.Status) {
			return transitionError(previous, input.Status)
		}
		if input.Status == enums.OrderStatusCancelled {
			return s.cancelLocked(ctx, tx, repo, locked, input.Note, input.ChangedBy)
		}

		if ref := trimmed(input.TrackingNumber); ref != nil {
			locked.TrackingNumber = ref
		}
		locked.Status = input.Status
		if input.Status == enums.OrderStatusDelivered && locked.ActualDeliveryDate == nil {
			deliveredAt := s.now().UTC()
			locked.ActualDeliveryDate = &deliveredAt
			delivered = true
		}
		note := strings.TrimSpace(input.Note)
		if note == "" {
			note = fmt.Sprintf("Status changed to %s", input.Status)
		}
		if err := s.appendStatus(ctx, repo, locked, input.Status, note, input.ChangedBy); err != nil {
			return err
		}
		if err := repo.Save(ctx, locked); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderTransition(order.Status.String())
	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"from": previous.String(),
		"to":   order.Status.String(),
	}), "order status updated")

	if delivered {
		s.recordDeliveredEarnings(ctx, order)
	}
	s.notifier.StatusChanged(ctx, order, previous)
	return order, nil
}

// recordDeliveredEarnings credits each vendor's share and the admin commission
// for a delivered order. Every failure is logged and skipped.
func (s *service) recordDeliveredEarnings(ctx context.Context, order *models.Order) {
	_ = RecordEarnings(ctx, s.earnings, order, func(vendorID uuid.UUID, err error) {
		s.metrics.IncSideEffectFailure("vendor_earning")
		s.logg.Error(s.logg.WithVendorID(s.logg.WithOrderID(ctx, order.ID.String()), vendorID.String()), "vendor earning creation failed", err)
	})
}

// RecordEarnings calls the idempotent earning creation for every vendor on the
// order, then the admin commission once. onFailure sees each vendor error; the
// first error is returned after all vendors were attempted.
func RecordEarnings(ctx context.Context, recorder EarningsRecorder, order *models.Order, onFailure func(vendorID uuid.UUID, err error)) error {
	amounts := VendorAmounts(order)
	vendorIDs := make([]uuid.UUID, 0, len(amounts))
	for vendorID := range amounts {
		vendorIDs = append(vendorIDs, vendorID)
	}
	sort.Slice(vendorIDs, func(i, j int) bool { return vendorIDs[i].String() < vendorIDs[j].String() })

	var firstErr error
	for _, vendorID := range vendorIDs {
		amount := amounts[vendorID]
		if !amount.IsPositive() {
			continue
		}
		_, err := recorder.CreateVendorEarning(ctx, payouts.EarningInput{
			VendorID:    vendorID,
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Amount:      amount,
		})
		if err != nil {
			if onFailure != nil {
				onFailure(vendorID, err)
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	recorder.CreateAdminCommission(ctx, payouts.CommissionInput{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		GrandTotal:  order.GrandTotal,
	})
	return firstErr
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var (
		order    *models.Order
		previous enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := s.lockOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		order = locked
		previous = locked.Status
		return s.cancelLocked(ctx, tx, repo, locked, input.Reason, input.ChangedBy)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderTransition(order.Status.String())
	s.logg.Info(s.logg.WithField(s.logg.WithOrderID(ctx, order.ID.String()), "from", previous.String()), "order cancelled")
	s.notifier.StatusChanged(ctx, order, previous)
	return order, nil
}

// cancelLocked refunds a wallet payment and marks the order cancelled inside tx.
func (s *service) cancelLocked(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, reason string, changedBy *uuid.UUID) error {
	switch order.Status {
	case enums.OrderStatusDelivered, enums.OrderStatusCancelled, enums.OrderStatusOutForDelivery:
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrNotCancellable, fmt.Sprintf("order is %s", order.Status)).
			WithDetails(map[string]any{"current_status": order.Status.String()})
	}

	if paidWithWallet(order) && order.GrandTotal.IsPositive() {
		orderID := order.ID
		if _, err := s.wallets.PostTx(ctx, tx, ledger.Entry{
			OwnerID:     order.UserID,
			Type:        enums.WalletTransactionTypeRefund,
			Amount:      order.GrandTotal,
			Description: fmt.Sprintf("Refund for cancelled order %s", order.OrderNumber),
			OrderID:     &orderID,
		}); err != nil {
			return err
		}
	}

	order.Status = enums.OrderStatusCancelled
	order.PaymentStatus = enums.PaymentStatusRefunded
	note := strings.TrimSpace(reason)
	if note == "" {
		note = "Order cancelled"
	}
	if err := s.appendStatus(ctx, repo, order, enums.OrderStatusCancelled, note, changedBy); err != nil {
		return err
	}
	if err := repo.Save(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
	}
	return nil
}

func paidWithWallet(order *models.Order) bool {
	for _, entry := range order.PaymentHistory {
		if entry.Gateway == enums.PaymentGatewayWallet && entry.Status == enums.PaymentStatusCompleted {
			return true
		}
	}
	return false
}

func (s *service) UpdatePaymentWithHistory(ctx context.Context, input PaymentUpdateInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", input.Status))
	}
	if !input.Entry.Gateway.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment gateway %q", input.Entry.Gateway))
	}
	if input.Entry.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must not be negative")
	}

	var (
		order     *models.Order
		confirmed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := s.lockOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		order = locked
		if paidWithWallet(locked) && input.Status != enums.PaymentStatusCompleted {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrWalletPaymentSettled, "order was paid from the wallet")
		}
		confirmed, err = s.applyPayment(ctx, repo, locked, input.Status, input.Entry, input.ChangedBy)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterPayment(ctx, order, confirmed)
	return order, nil
}

func (s *service) PayWithWallet(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil || userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and user id required")
	}

	var (
		order     *models.Order
		confirmed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := s.lockOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		order = locked
		if locked.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		if locked.Status == enums.OrderStatusCancelled {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrOrderNotPayable, "order is cancelled")
		}
		if locked.PaymentStatus == enums.PaymentStatusCompleted || paidWithWallet(locked) {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrPaymentAlreadyCompleted, "order is already paid")
		}
		if !locked.GrandTotal.IsPositive() {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrOrderNotPayable, "order total must be greater than zero")
		}

		id := locked.ID
		posting, err := s.wallets.PostTx(ctx, tx, ledger.Entry{
			OwnerID:     userID,
			Type:        enums.WalletTransactionTypeDebit,
			Amount:      locked.GrandTotal,
			Description: fmt.Sprintf("Payment for order %s", locked.OrderNumber),
			OrderID:     &id,
		})
		if err != nil {
			return err
		}
		ref := posting.Transaction.TransactionID
		confirmed, err = s.applyPayment(ctx, repo, locked, enums.PaymentStatusCompleted, PaymentEntry{
			Gateway:        enums.PaymentGatewayWallet,
			Amount:         locked.GrandTotal,
			TransactionRef: &ref,
			Note:           "Paid with wallet balance",
		}, &userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterPayment(ctx, order, confirmed)
	return order, nil
}

// applyPayment appends a payment history row and, when a completed payment
// lands on a pending order, confirms the order with its own status entry.
func (s *service) applyPayment(ctx context.Context, repo Repository, order *models.Order, status enums.PaymentStatus, entry PaymentEntry, changedBy *uuid.UUID) (bool, error) {
	if status == enums.PaymentStatusCompleted && order.PaymentStatus == enums.PaymentStatusCompleted {
		return false, pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrPaymentAlreadyCompleted, "order is already paid")
	}

	row := &models.OrderPaymentHistory{
		OrderID:        order.ID,
		Sequence:       len(order.PaymentHistory) + 1,
		Gateway:        entry.Gateway,
		Status:         status,
		Amount:         money.Round(entry.Amount),
		TransactionRef: trimmed(entry.TransactionRef),
		Note:           strings.TrimSpace(entry.Note),
		CreatedAt:      s.now().UTC(),
	}
	if err := repo.AppendPaymentHistory(ctx, row); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append payment history")
	}
	order.PaymentHistory = append(order.PaymentHistory, *row)
	order.PaymentStatus = status
	method := entry.Gateway.String()
	order.PaymentMethodUsed = &method

	confirmed := false
	if status == enums.PaymentStatusCompleted && order.Status == enums.OrderStatusPending {
		order.Status = enums.OrderStatusConfirmed
		if err := s.appendStatus(ctx, repo, order, enums.OrderStatusConfirmed, "Payment completed, order confirmed", changedBy); err != nil {
			return false, err
		}
		confirmed = true
	}
	if err := repo.Save(ctx, order); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
	}
	return confirmed, nil
}

func (s *service) afterPayment(ctx context.Context, order *models.Order, confirmed bool) {
	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(s.logg.WithField(logCtx, "payment_status", order.PaymentStatus.String()), "order payment updated")
	if confirmed {
		s.metrics.IncOrderTransition(order.Status.String())
		s.notifier.StatusChanged(ctx, order, enums.OrderStatusPending)
	}
}

func (s *service) appendStatus(ctx context.Context, repo Repository, order *models.Order, status enums.OrderStatus, note string, changedBy *uuid.UUID) error {
	row := &models.OrderStatusHistory{
		OrderID:   order.ID,
		Sequence:  len(order.StatusHistory) + 1,
		Status:    status,
		Note:      note,
		ChangedBy: changedBy,
		CreatedAt: s.now().UTC(),
	}
	if err := repo.AppendStatusHistory(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
	}
	order.StatusHistory = append(order.StatusHistory, *row)
	return nil
}

func (s *service) lockOrder(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrOrderNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrOrderNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, filter OrderFilter, params pagination.Params) (pagination.Page[models.Order], error) {
	var page pagination.Page[models.Order]
	if userID == uuid.Nil {
		return page, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return page, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *filter.Status))
	}
	if filter.PaymentStatus != nil && !filter.PaymentStatus.IsValid() {
		return page, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", *filter.PaymentStatus))
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return page, pkgerrors.New(pkgerrors.CodeValidation, "from date is after to date")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return page, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByUser(ctx, userID, filter, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return page, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return pagination.Build(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	}), nil
}

func (s *service) ListDeliveredSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	rows, err := s.repo.ListDeliveredSince(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivered orders")
	}
	return rows, nil
}

// Purge hard-deletes an order and its children.
func (s *service) Purge(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrOrderNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logg.Warn(s.logg.WithOrderID(ctx, id.String()), "order purged")
	return nil
}

func transitionError(from, to enums.OrderStatus) error {
	allowed := make([]string, 0)
	for _, next := range from.AllowedTransitions() {
		allowed = append(allowed, next.String())
	}
	return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrInvalidTransition, fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithDetails(map[string]any{
			"current_status":   from.String(),
			"requested_status": to.String(),
			"allowed":          allowed,
		})
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
