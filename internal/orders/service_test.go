package orders

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/internal/ledger"
	"github.com/angelmondragon/souq-backend/internal/payouts"
	product "github.com/angelmondragon/souq-backend/internal/products"
	"github.com/angelmondragon/souq-backend/pkg/db"
	"github.com/angelmondragon/souq-backend/pkg/db/dbtest"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func steppingClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

type recordingNotifier struct {
	mu      sync.Mutex
	placed  []string
	changes []enums.OrderStatus
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, order.OrderNumber)
}

func (n *recordingNotifier) StatusChanged(_ context.Context, order *models.Order, _ enums.OrderStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, order.Status)
}

type harness struct {
	svc      Service
	wallets  ledger.Service
	payouts  payouts.Service
	products *product.Repository
	notifier *recordingNotifier
	conn     *gorm.DB
	admin    uuid.UUID
	logs     *bytes.Buffer
}

func newHarness(t *testing.T, recorder EarningsRecorder) harness {
	t.Helper()
	client, conn := dbtest.Client(t)
	logs := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: logs})
	clock := steppingClock()

	wallets, err := ledger.NewService(ledger.NewRepository(conn), client, logg, ledger.Options{Clock: clock})
	require.NoError(t, err)
	admin := uuid.New()
	payoutSvc, err := payouts.NewService(payouts.NewRepository(conn), client, wallets, logg, payouts.Options{AdminWalletID: admin, Clock: clock})
	require.NoError(t, err)
	if recorder == nil {
		recorder = payoutSvc
	}

	products := product.NewRepository(conn)
	notifier := &recordingNotifier{}
	svc, err := NewService(NewRepository(conn), client, products, wallets, recorder, logg, Options{Notifier: notifier, Clock: clock})
	require.NoError(t, err)

	return harness{
		svc:      svc,
		wallets:  wallets,
		payouts:  payoutSvc,
		products: products,
		notifier: notifier,
		conn:     conn,
		admin:    admin,
		logs:     logs,
	}
}

func (h harness) product(t *testing.T, vendorID uuid.UUID, price string, variations ...models.ProductVariation) *models.Product {
	t.Helper()
	p := &models.Product{
		VendorID:     vendorID,
		Name:         gofakeit.ProductName(),
		PricePerUnit: dec(price),
		IsActive:     true,
		Variations:   variations,
	}
	require.NoError(t, h.products.Create(context.Background(), p))
	return p
}

func shipping() models.ShippingAddress {
	return models.ShippingAddress{
		FullName:     gofakeit.Name(),
		Phone:        "+97317000000",
		AddressLine1: gofakeit.Street(),
		City:         "Manama",
		Country:      "BH",
	}
}

func (h harness) order(t *testing.T, userID uuid.UUID, lines []CartLine, totals Totals) *models.Order {
	t.Helper()
	order, err := h.svc.Create(context.Background(), CreateOrderInput{
		UserID:   userID,
		Lines:    lines,
		Shipping: shipping(),
		Totals:   totals,
	})
	require.NoError(t, err)
	return order
}

func (h harness) advance(t *testing.T, orderID uuid.UUID, statuses ...enums.OrderStatus) *models.Order {
	t.Helper()
	var order *models.Order
	for _, status := range statuses {
		var err error
		order, err = h.svc.UpdateStatus(context.Background(), UpdateStatusInput{OrderID: orderID, Status: status})
		require.NoError(t, err)
	}
	return order
}

var toDelivered = []enums.OrderStatus{
	enums.OrderStatusConfirmed,
	enums.OrderStatusPreparingForShipment,
	enums.OrderStatusOutForDelivery,
	enums.OrderStatusDelivered,
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	logg := logger.New(logger.Options{Output: io.Discard})
	client := db.Wrap(nil)
	repo := NewRepository(nil)
	catalog := product.NewRepository(nil)
	wallets, err := ledger.NewService(ledger.NewRepository(nil), client, logg, ledger.Options{})
	require.NoError(t, err)
	recorder, err := payouts.NewService(payouts.NewRepository(nil), client, nil, logg, payouts.Options{})
	require.NoError(t, err)

	_, err = NewService(nil, client, catalog, wallets, recorder, logg, Options{})
	assert.Error(t, err)
	_, err = NewService(repo, nil, catalog, wallets, recorder, logg, Options{})
	assert.Error(t, err)
	_, err = NewService(repo, client, nil, wallets, recorder, logg, Options{})
	assert.Error(t, err)
	_, err = NewService(repo, client, catalog, nil, recorder, logg, Options{})
	assert.Error(t, err)
	_, err = NewService(repo, client, catalog, wallets, nil, logg, Options{})
	assert.Error(t, err)
	_, err = NewService(repo, client, catalog, wallets, recorder, nil, Options{})
	assert.Error(t, err)
	_, err = NewService(repo, client, catalog, wallets, recorder, logg, Options{})
	assert.NoError(t, err)
}

func TestCreateOrderSnapshotsPricesAndTotals(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product(t, uuid.New(), "10")

	order := h.order(t, uuid.New(), []CartLine{{ProductID: p.ID, Quantity: 2}}, Totals{
		TotalPrice:  dec("20"),
		ShippingFee: dec("1"),
		Tax:         dec("0.5"),
	})

	assert.Regexp(t, regexp.MustCompile(`^ORD-\d+-\d{4}$`), order.OrderNumber)
	assert.True(t, order.TotalPrice.Equal(dec("20.000")))
	assert.True(t, order.GrandTotal.Equal(dec("21.500")))
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, enums.CurrencyBHD, order.Currency)

	stored, err := h.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, stored.StatusHistory, 1)
	assert.Equal(t, enums.OrderStatusPending, stored.StatusHistory[0].Status)
	require.Len(t, stored.Items, 1)
	item := stored.Items[0]
	assert.Equal(t, p.VendorID, item.VendorID)
	assert.Equal(t, p.Name, item.ProductName)
	assert.True(t, item.Price.Equal(dec("10")))
	assert.True(t, item.Total.Equal(dec("20")))
	assert.True(t, stored.GrandTotal.Equal(dec("21.5")))

	assert.Equal(t, []string{order.OrderNumber}, h.notifier.placed)
}

func TestCreateOrderAppliesSpecialAndVariationPrices(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	vendor := uuid.New()

	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	special := &models.Product{
		VendorID:                 vendor,
		Name:                     "Dates box",
		PricePerUnit:             dec("8"),
		SpecialPrice:             decimal.NewNullDecimal(dec("6.25")),
		SpecialPriceStartingDate: &start,
		SpecialPriceEndingDate:   &end,
		IsActive:                 true,
	}
	require.NoError(t, h.products.Create(ctx, special))
	withVariation := h.product(t, vendor, "5", models.ProductVariation{Name: "Large", Price: dec("7.125")})
	variationID := withVariation.Variations[0].ID

	order := h.order(t, uuid.New(), []CartLine{
		{ProductID: special.ID, Quantity: 2},
		{ProductID: withVariation.ID, VariationID: &variationID, Quantity: 3},
	}, Totals{TotalPrice: dec("33.875")})

	require.Len(t, order.Items, 2)
	assert.True(t, order.Items[0].Price.Equal(dec("6.25")))
	assert.True(t, order.Items[0].Total.Equal(dec("12.5")))
	assert.True(t, order.Items[1].Price.Equal(dec("7.125")))
	assert.True(t, order.Items[1].Total.Equal(dec("21.375")))
	require.NotNil(t, order.Items[1].VariationName)
	assert.Equal(t, "Large", *order.Items[1].VariationName)
}

func TestCreateOrderTrustsCallerTotals(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product(t, uuid.New(), "10")

	order := h.order(t, uuid.New(), []CartLine{{ProductID: p.ID, Quantity: 1}}, Totals{TotalPrice: dec("7"), Discount: dec("2")})

	assert.True(t, order.TotalPrice.Equal(dec("7")))
	assert.True(t, order.GrandTotal.Equal(dec("5")))
	assert.Contains(t, h.logs.String(), "order total differs from line item sum")
}

func TestCreateOrderRetriesTakenOrderNumber(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p := h.product(t, uuid.New(), "10")
	existing := h.order(t, uuid.New(), []CartLine{{ProductID: p.ID, Quantity: 1}}, Totals{TotalPrice: dec("10")})

	numbers := []string{existing.OrderNumber, existing.OrderNumber, "ORD-1-0002"}
	calls := 0
	svc, err := NewService(NewRepository(h.conn), db.Wrap(h.conn), h.products, h.wallets, h.payouts,
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Options{OrderNumber: func(time.Time) string {
			n := numbers[calls]
			calls++
			return n
		}})
	require.NoError(t, err)

	input := CreateOrderInput{
		UserID:   uuid.New(),
		Lines:    []CartLine{{ProductID: p.ID, Quantity: 1}},
		Shipping: shipping(),
		Totals:   Totals{TotalPrice: dec("10")},
	}
	order, err := svc.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1-0002", order.OrderNumber)
	assert.Equal(t, 3, calls)

	numbers = []string{existing.OrderNumber, existing.OrderNumber, existing.OrderNumber}
	calls = 0
	_, err = svc.Create(ctx, input)
	assert.ErrorIs(t, err, errOrderNumberTaken)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, orderNumberAttempts, calls)

	var count int64
	require.NoError(t, h.conn.Model(&models.Order{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestCreateOrderFailures(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p := h.product(t, uuid.New(), "3")
	unknownVariation := uuid.New()

	inactive := &models.Product{VendorID: uuid.New(), Name: "Retired", PricePerUnit: dec("1"), IsActive: false}
	require.NoError(t, h.products.Create(ctx, inactive))

	cases := []struct {
		name  string
		input CreateOrderInput
		code  pkgerrors.Code
		is    error
	}{
		{
			name:  "missing product",
			input: CreateOrderInput{UserID: uuid.New(), Lines: []CartLine{{ProductID: p.ID, Quantity: 1}, {ProductID: uuid.New(), Quantity: 1}}, Shipping: shipping()},
			code:  pkgerrors.CodeNotFound,
			is:    ErrProductNotFound,
		},
		{
			name:  "inactive product",
			input: CreateOrderInput{UserID: uuid.New(), Lines: []CartLine{{ProductID: inactive.ID, Quantity: 1}}, Shipping: shipping()},
			code:  pkgerrors.CodeNotFound,
			is:    ErrProductNotFound,
		},
		{
			name:  "unknown variation",
			input: CreateOrderInput{UserID: uuid.New(), Lines: []CartLine{{ProductID: p.ID, VariationID: &unknownVariation, Quantity: 1}}, Shipping: shipping()},
			code:  pkgerrors.CodeNotFound,
			is:    ErrVariationNotFound,
		},
		{
			name:  "no lines",
			input: CreateOrderInput{UserID: uuid.New(), Shipping: shipping()},
			code:  pkgerrors.CodeValidation,
		},
		{
			name:  "zero quantity",
			input: CreateOrderInput{UserID: uuid.New(), Lines: []CartLine{{ProductID: p.ID}}, Shipping: shipping()},
			code:  pkgerrors.CodeValidation,
		},
		{
			name:  "missing address",
			input: CreateOrderInput{UserID: uuid.New(), Lines: []CartLine{{ProductID: p.ID, Quantity: 1}}},
			code:  pkgerrors.CodeValidation,
		},
		{
			name:  "negative tax",
			input: CreateOrderInput{UserID: uuid.New(), Lines: []CartLine{{ProductID: p.ID, Quantity: 1}}, Shipping: shipping(), Totals: Totals{Tax: dec("-1")}},
			code:  pkgerrors.CodeValidation,
		},
		{
			name:  "discount above total",
			input: CreateOrderInput{UserID: uuid.New(), Lines: []CartLine{{ProductID: p.ID, Quantity: 1}}, Shipping: shipping(), Totals: Totals{TotalPrice: dec("3"), Discount: dec("4")}},
			code:  pkgerrors.CodeValidation,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.Create(ctx, tc.input)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), err.Error())
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}

	var count int64
	require.NoError(t, h.conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestStatusTransitionsAreClosed(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p := h.product(t, uuid.New(), "10")
	order := h.order(t, uuid.New(), []CartLine{{ProductID: p.ID, Quantity: 1}}, Totals{TotalPrice: dec("10")})

	_, err := h.svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusDelivered})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	h.advance(t, order.ID, toDelivered...)
	before, err := h.svc.Get(ctx, order.ID)
	require.NoError(t, err)

	for _, next := range []enums.OrderStatus{enums.OrderStatusCancelled, enums.OrderStatusPending, enums.OrderStatusOutForDelivery} {
		_, err := h.svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Status: next})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}

	after, err := h.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, after.Status)
	assert.Len(t, after.StatusHistory, len(before.StatusHistory))

	_, err = h.svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: uuid.New(), Status: enums.OrderStatusConfirmed})
	assert.ErrorIs(t, err, ErrOrderNotFound)
	_, err = h.svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Status: "SHIPPED"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestHistoryIsAppendOrderedAndTotalsHold(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product(t, uuid.New(), "4")
	order := h.order(t, uuid.New(), []CartLine{{ProductID: p.ID, Quantity: 3}}, Totals{TotalPrice: dec("12"), ShippingFee: dec("1.25"), Tax: dec("0.6"), Discount: dec("0.85")})

	tracking := "TRK-99"
	_, err := h.svc.UpdateStatus(context.Background(), UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusConfirmed, Note: "vendor accepted"})
	require.NoError(t, err)
	_, err = h.svc.UpdateStatus(context.Background(), UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusPreparingForShipment, TrackingNumber: &tracking})
	require.NoError(t, err)

	stored, err := h.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, stored.StatusHistory, 3)
	for i, entry := range stored.StatusHistory {
		assert.Equal(t, i+1, entry.Sequence)
		if i > 0 {
			assert.True(t, entry.CreatedAt.After(stored.StatusHistory[i-1].CreatedAt))
		}
	}
	assert.Equal(t, "vendor accepted", stored.StatusHistory[1].Note)
	require.NotNil(t, stored.TrackingNumber)
	assert.Equal(t, tracking, *stored.TrackingNumber)
	expected := stored.TotalPrice.Add(stored.ShippingFee).Add(stored.Tax).Sub(stored.Discount)
	assert.True(t, stored.GrandTotal.Equal(expected))
	assert.True(t, stored.GrandTotal.Equal(dec("13")))
}

func TestDeliveryCreatesEarningsPerVendor(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	vendorA, vendorB := uuid.New(), uuid.New()
	a := h.product(t, vendorA, "50")
	b := h.product(t, vendorB, "12.5")

	order := h.order(t, uuid.New(), []CartLine{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 2},
	}, Totals{TotalPrice: dec("125"), ShippingFee: dec("5")})

	delivered := h.advance(t, order.ID, toDelivered...)
	require.NotNil(t, delivered.ActualDeliveryDate)

	walletA, err := h.payouts.GetVendorWallet(ctx, vendorA)
	require.NoError(t, err)
	assert.True(t, walletA.AvailableBalance.Equal(dec("90")))
	assert.True(t, walletA.TotalEarned.Equal(dec("90")))

	walletB, err := h.payouts.GetVendorWallet(ctx, vendorB)
	require.NoError(t, err)
	assert.True(t, walletB.AvailableBalance.Equal(dec("22.5")))

	page, err := h.payouts.ListEarnings(ctx, payouts.EarningFilter{VendorID: &vendorA}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	earning := page.Items[0]
	assert.True(t, earning.OrderAmount.Equal(dec("100")))
	assert.True(t, earning.VendorShare.Equal(dec("90")))
	assert.True(t, earning.PlatformCommission.Equal(dec("10")))
	assert.Equal(t, enums.EarningPayoutStatusPending, earning.PayoutStatus)
	assert.Equal(t, order.OrderNumber, earning.OrderNumber)

	admin, err := h.wallets.GetOrCreate(ctx, h.admin)
	require.NoError(t, err)
	assert.True(t, admin.Balance.Equal(dec("13")))
}

type failingRecorder struct {
	mu          sync.Mutex
	commissions int
}

func (f *failingRecorder) CreateVendorEarning(context.Context, payouts.EarningInput) (*models.VendorEarning, error) {
	return nil, errors.New("ledger unavailable")
}

func (f *failingRecorder) CreateAdminCommission(context.Context, payouts.CommissionInput) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commissions++
}

func TestDeliveryEarningFailureDoesNotBlockStatus(t *testing.T) {
	recorder := &failingRecorder{}
	h := newHarness(t, recorder)
	p := h.product(t, uuid.New(), "10")
	order := h.order(t, uuid.New(), []CartLine{{ProductID: p.ID, Quantity: 1}}, Totals{TotalPrice: dec("10")})

	delivered := h.advance(t, order.ID, toDelivered...)

	assert.Equal(t, enums.OrderStatusDelivered, delivered.Status)
	assert.Equal(t, 1, recorder.commissions)
	assert.Contains(t, h.logs.String(), "vendor earning creation failed")
}

func TestPayWithWalletConfirmsAndCancelRefunds(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	customer := uuid.New()
	_, err := h.wallets.Credit(ctx, ledger.CreditInput{OwnerID: customer, Amount: dec("60"), Method: "CARD"})
	require.NoError(t, err)

	p := h.product(t, uuid.New(), "25")
	order := h.order(t, customer, []CartLine{{ProductID: p.ID, Quantity: 2}}, Totals{TotalPrice: dec("50")})

	paid, err := h.svc.PayWithWallet(ctx, order.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, paid.PaymentStatus)
	assert.Equal(t, enums.OrderStatusConfirmed, paid.Status)
	require.Len(t, paid.PaymentHistory, 1)
	assert.Equal(t, enums.PaymentGatewayWallet, paid.PaymentHistory[0].Gateway)
	require.NotNil(t, paid.PaymentHistory[0].TransactionRef)

	wallet, err := h.wallets.GetOrCreate(ctx, customer)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("10")))

	_, err = h.svc.PayWithWallet(ctx, order.ID, customer)
	assert.ErrorIs(t, err, ErrPaymentAlreadyCompleted)

	cancelled, err := h.svc.Cancel(ctx, CancelInput{OrderID: order.ID, Reason: "changed my mind"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, enums.PaymentStatusRefunded, cancelled.PaymentStatus)

	wallet, err = h.wallets.GetOrCreate(ctx, customer)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("60")))

	refundType := enums.WalletTransactionTypeRefund
	refunds, err := h.wallets.ListTransactions(ctx, customer, ledger.TransactionFilter{Type: &refundType}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, refunds.Items, 1)
	assert.True(t, refunds.Items[0].Amount.Equal(dec("50")))
	require.NotNil(t, refunds.Items[0].OrderID)
	assert.Equal(t, order.ID, *refunds.Items[0].OrderID)

	stored, err := h.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	statuses := make([]enums.OrderStatus, 0, len(stored.StatusHistory))
	for _, entry := range stored.StatusHistory {
		statuses = append(statuses, entry.Status)
	}
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusConfirmed, enums.OrderStatusCancelled}, statuses)
	assert.Equal(t, "changed my mind", stored.StatusHistory[2].Note)
}

func TestPayWithWalletFailuresLeaveStateUntouched(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	customer := uuid.New()
	_, err := h.wallets.Credit(ctx, ledger.CreditInput{OwnerID: customer, Amount: dec("5"), Method: "CARD"})
	require.NoError(t, err)
	p := h.product(t, uuid.New(), "10")
	order := h.order(t, customer, []CartLine{{ProductID: p.ID, Quantity: 1}}, Totals{TotalPrice: dec("10")})

	_, err = h.svc.PayWithWallet(ctx, order.ID, customer)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficient))

	_, err = h.svc.PayWithWallet(ctx, order.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	stored, err := h.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, stored.PaymentStatus)
	assert.Equal(t, enums.OrderStatusPending, stored.Status)
	assert.Empty(t, stored.PaymentHistory)

	wallet, err := h.wallets.GetOrCreate(ctx, customer)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("5")))
}

func TestWalletPaymentCannotBeChargedTwice(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	customer := uuid.New()
	_, err := h.wallets.Credit(ctx, ledger.CreditInput{OwnerID: customer, Amount: dec("200"), Method: "CARD"})
	require.NoError(t, err)
	p := h.product(t, uuid.New(), "50")
	order := h.order(t, customer, []CartLine{{ProductID: p.ID, Quantity: 1}}, Totals{TotalPrice: dec("50")})

	_, err = h.svc.PayWithWallet(ctx, order.ID, customer)
	require.NoError(t, err)

	_, err = h.svc.UpdatePaymentWithHistory(ctx, PaymentUpdateInput{
		OrderID: order.ID,
		Status:  enums.PaymentStatusFailed,
		Entry:   PaymentEntry{Gateway: enums.PaymentGatewayCard, Amount: dec("50")},
	})
	assert.ErrorIs(t, err, ErrWalletPaymentSettled)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = h.svc.PayWithWallet(ctx, order.ID, customer)
	assert.ErrorIs(t, err, ErrPaymentAlreadyCompleted)

	stored, err := h.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, stored.PaymentStatus)
	assert.Len(t, stored.PaymentHistory, 1)

	wallet, err := h.wallets.GetOrCreate(ctx, customer)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("150")), wallet.Balance.String())

	_, err = h.svc.Cancel(ctx, CancelInput{OrderID: order.ID})
	require.NoError(t, err)
	wallet, err = h.wallets.GetOrCreate(ctx, customer)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("200")), wallet.Balance.String())
}

func TestCancelRules(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p := h.product(t, uuid.New(), "10")
	customer := uuid.New()

	unpaid := h.order(t, customer, []CartLine{{ProductID: p.ID, Quantity: 1}}, Totals{TotalPrice: dec("10")})
	cancelled, err := h.svc.Cancel(ctx, CancelInput{OrderID: unpaid.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, enums.PaymentStatusRefunded, cancelled.PaymentStatus)

	var refunds int64
	require.NoError(t, h.conn.Model(&models.WalletTransaction{}).Where("owner_id = ?", customer).Count(&refunds).Error)
	assert.Zero(t, refunds)

	_, err = h.svc.Cancel(ctx, CancelInput{OrderID: unpaid.ID})
	assert.ErrorIs(t, err, ErrNotCancellable)

	shipped := h.order(t, customer, []CartLine{{ProductID: p.ID, Quantity: 1}}, Totals{TotalPrice: dec("10")})
	h.advance(t, shipped.ID, enums.OrderStatusConfirmed, enums.OrderStatusPreparingForShipment, enums.OrderStatusOutForDelivery)
	_, err = h.svc.Cancel(ctx, CancelInput{OrderID: shipped.ID})
	assert.ErrorIs(t, err, ErrNotCancellable)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = h.svc.Cancel(ctx, CancelInput{OrderID: uuid.New()})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateStatusToCancelledRefundsWalletPayment(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	customer := uuid.New()
	_, err := h.wallets.Credit(ctx, ledger.CreditInput{OwnerID: customer, Amount: dec("10"), Method: "CARD"})
	require.NoError(t, err)
	p := h.product(t, uuid.New(), "10")
	order := h.order(t, customer, []CartLine{{ProductID: p.ID, Quantity: 1}}, Totals{TotalPrice: dec("10")})
	_, err = h.svc.PayWithWallet(ctx, order.ID, customer)
	require.NoError(t, err)

	updated, err := h.svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusCancelled, Note: "out of stock"})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusRefunded, updated.PaymentStatus)

	wallet, err := h.wallets.GetOrCreate(ctx, customer)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("10")))
}

func TestUpdatePaymentWithHistoryAutoConfirms(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p := h.product(t, uuid.New(), "10")
	order := h.order(t, uuid.New(), []CartLine{{ProductID: p.ID, Quantity: 1}}, Totals{TotalPrice: dec("10")})

	failed, err := h.svc.UpdatePaymentWithHistory(ctx, PaymentUpdateInput{
		OrderID: order.ID,
		Status:  enums.PaymentStatusFailed,
		Entry:   PaymentEntry{Gateway: enums.PaymentGatewayCard, Amount: dec("10"), Note: "card declined"},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, failed.Status)

	ref := "ch_123"
	updated, err := h.svc.UpdatePaymentWithHistory(ctx, PaymentUpdateInput{
		OrderID: order.ID,
		Status:  enums.PaymentStatusCompleted,
		Entry:   PaymentEntry{Gateway: enums.PaymentGatewayCard, Amount: dec("10"), TransactionRef: &ref},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)
	assert.Equal(t, enums.PaymentStatusCompleted, updated.PaymentStatus)
	require.NotNil(t, updated.PaymentMethodUsed)
	assert.Equal(t, "CARD", *updated.PaymentMethodUsed)

	stored, err := h.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.PaymentHistory, 2)
	assert.Equal(t, 1, stored.PaymentHistory[0].Sequence)
	assert.Equal(t, enums.PaymentStatusFailed, stored.PaymentHistory[0].Status)
	assert.Equal(t, enums.PaymentStatusCompleted, stored.PaymentHistory[1].Status)
	require.Len(t, stored.StatusHistory, 2)
	assert.Equal(t, enums.OrderStatusConfirmed, stored.StatusHistory[1].Status)
	assert.Contains(t, h.notifier.changes, enums.OrderStatusConfirmed)

	_, err = h.svc.UpdatePaymentWithHistory(ctx, PaymentUpdateInput{
		OrderID: order.ID,
		Status:  enums.PaymentStatusCompleted,
		Entry:   PaymentEntry{Gateway: enums.PaymentGatewayCard, Amount: dec("10")},
	})
	assert.ErrorIs(t, err, ErrPaymentAlreadyCompleted)

	_, err = h.svc.UpdatePaymentWithHistory(ctx, PaymentUpdateInput{OrderID: order.ID, Status: enums.PaymentStatusCompleted, Entry: PaymentEntry{Gateway: "CHEQUE"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCompletedPaymentOnConfirmedOrderKeepsStatus(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p := h.product(t, uuid.New(), "10")
	order := h.order(t, uuid.New(), []CartLine{{ProductID: p.ID, Quantity: 1}}, Totals{TotalPrice: dec("10")})
	h.advance(t, order.ID, enums.OrderStatusConfirmed, enums.OrderStatusPreparingForShipment)

	updated, err := h.svc.UpdatePaymentWithHistory(ctx, PaymentUpdateInput{
		OrderID: order.ID,
		Status:  enums.PaymentStatusCompleted,
		Entry:   PaymentEntry{Gateway: enums.PaymentGatewayCashOnDelivery, Amount: dec("10")},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPreparingForShipment, updated.Status)
	assert.Len(t, updated.StatusHistory, 3)
}

func TestListGetAndPurge(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p := h.product(t, uuid.New(), "1")
	customer := uuid.New()
	var created []*models.Order
	for i := 0; i < 3; i++ {
		created = append(created, h.order(t, customer, []CartLine{{ProductID: p.ID, Quantity: 1}}, Totals{TotalPrice: dec("1")}))
	}
	h.order(t, uuid.New(), []CartLine{{ProductID: p.ID, Quantity: 1}}, Totals{TotalPrice: dec("1")})

	page, err := h.svc.ListByUser(ctx, customer, OrderFilter{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, created[2].ID, page.Items[0].ID)
	require.NotEmpty(t, page.NextCursor)

	rest, err := h.svc.ListByUser(ctx, customer, OrderFilter{}, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Equal(t, created[0].ID, rest.Items[0].ID)

	pending := enums.OrderStatusConfirmed
	none, err := h.svc.ListByUser(ctx, customer, OrderFilter{Status: &pending}, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, none.Items)

	require.NoError(t, h.svc.Purge(ctx, created[0].ID))
	_, err = h.svc.Get(ctx, created[0].ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	var items int64
	require.NoError(t, h.conn.Model(&models.OrderLineItem{}).Where("order_id = ?", created[0].ID).Count(&items).Error)
	assert.Zero(t, items)

	err = h.svc.Purge(ctx, created[0].ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListDeliveredSince(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product(t, uuid.New(), "10")
	delivered := h.order(t, uuid.New(), []CartLine{{ProductID: p.ID, Quantity: 1}}, Totals{TotalPrice: dec("10")})
	h.order(t, uuid.New(), []CartLine{{ProductID: p.ID, Quantity: 1}}, Totals{TotalPrice: dec("10")})
	h.advance(t, delivered.ID, toDelivered...)

	rows, err := h.svc.ListDeliveredSince(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, delivered.ID, rows[0].ID)
	assert.Len(t, rows[0].Items, 1)

	rows, err = h.svc.ListDeliveredSince(context.Background(), time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestVendorAmounts(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	order := &models.Order{Items: []models.OrderLineItem{
		{VendorID: a, Total: dec("10.0005")},
		{VendorID: b, Total: dec("3")},
		{VendorID: a, Total: dec("2.5")},
	}}

	amounts := VendorAmounts(order)

	require.Len(t, amounts, 2)
	assert.Equal(t, "12.501", amounts[a].StringFixed(3))
	assert.Equal(t, "3.000", amounts[b].StringFixed(3))
}
