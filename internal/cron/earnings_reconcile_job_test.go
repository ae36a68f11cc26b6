package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/souq-backend/internal/ledger"
	"github.com/angelmondragon/souq-backend/internal/payouts"
	"github.com/angelmondragon/souq-backend/pkg/db/dbtest"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

type fakeDeliveredReader struct {
	orders []models.Order
	since  time.Time
	err    error
}

func (f *fakeDeliveredReader) ListDeliveredSince(_ context.Context, since time.Time) ([]models.Order, error) {
	f.since = since
	return f.orders, f.err
}

type flakyRecorder struct {
	mu          sync.Mutex
	failVendor  uuid.UUID
	failErr     error
	earnings    []payouts.EarningInput
	commissions []payouts.CommissionInput
}

func (f *flakyRecorder) CreateVendorEarning(_ context.Context, input payouts.EarningInput) (*models.VendorEarning, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if input.VendorID == f.failVendor {
		if f.failErr != nil {
			return nil, f.failErr
		}
		return nil, errors.New("db unavailable")
	}
	f.earnings = append(f.earnings, input)
	return &models.VendorEarning{VendorID: input.VendorID, OrderID: input.OrderID}, nil
}

func (f *flakyRecorder) CreateAdminCommission(_ context.Context, input payouts.CommissionInput) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commissions = append(f.commissions, input)
}

func deliveredOrder(number string, lines map[uuid.UUID]string) models.Order {
	delivered := time.Date(2026, 5, 9, 12, 0, 0, 0, time.UTC)
	order := models.Order{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		OrderNumber:        number,
		Status:             enums.OrderStatusDelivered,
		PaymentStatus:      enums.PaymentStatusCompleted,
		ActualDeliveryDate: &delivered,
		Currency:           enums.CurrencyBHD,
	}
	total := decimal.Zero
	for vendor, amount := range lines {
		value := decimal.RequireFromString(amount)
		order.Items = append(order.Items, models.OrderLineItem{
			VendorID: vendor, ProductName: "item", Quantity: 1, Price: value, Total: value,
		})
		total = total.Add(value)
	}
	order.TotalPrice = total
	order.RecomputeGrandTotal()
	return order
}

func TestNewEarningsReconcileJobValidates(t *testing.T) {
	logg, _ := testLogger()
	_, err := NewEarningsReconcileJob(EarningsReconcileJobParams{Orders: &fakeDeliveredReader{}, Earnings: &flakyRecorder{}})
	require.Error(t, err)
	_, err = NewEarningsReconcileJob(EarningsReconcileJobParams{Logger: logg, Earnings: &flakyRecorder{}})
	require.Error(t, err)
	_, err = NewEarningsReconcileJob(EarningsReconcileJobParams{Logger: logg, Orders: &fakeDeliveredReader{}})
	require.Error(t, err)

	job, err := NewEarningsReconcileJob(EarningsReconcileJobParams{Logger: logg, Orders: &fakeDeliveredReader{}, Earnings: &flakyRecorder{}})
	require.NoError(t, err)
	assert.Equal(t, "earnings-reconcile", job.Name())
	assert.Equal(t, defaultReconcileLookback, job.(*earningsReconcileJob).lookback)
}

func TestEarningsReconcileUsesLookbackWindow(t *testing.T) {
	logg, _ := testLogger()
	reader := &fakeDeliveredReader{}
	job, err := NewEarningsReconcileJob(EarningsReconcileJobParams{
		Logger: logg, Orders: reader, Earnings: &flakyRecorder{}, Lookback: 24 * time.Hour,
	})
	require.NoError(t, err)
	now := time.Date(2026, 5, 10, 6, 0, 0, 0, time.UTC)
	job.(*earningsReconcileJob).now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.Add(-24*time.Hour), reader.since)
}

func TestEarningsReconcileCombinesOrderFailures(t *testing.T) {
	logg, logs := testLogger()
	good, bad := uuid.New(), uuid.New()
	reader := &fakeDeliveredReader{orders: []models.Order{
		deliveredOrder("ORD-1-0001", map[uuid.UUID]string{good: "40", bad: "10"}),
		deliveredOrder("ORD-1-0002", map[uuid.UUID]string{bad: "5"}),
		deliveredOrder("ORD-1-0003", map[uuid.UUID]string{good: "7"}),
	}}
	recorder := &flakyRecorder{failVendor: bad}
	job, err := NewEarningsReconcileJob(EarningsReconcileJobParams{Logger: logg, Orders: reader, Earnings: recorder})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.ErrorContains(t, err, "order ORD-1-0001")
	assert.ErrorContains(t, err, "order ORD-1-0002")

	assert.Len(t, recorder.earnings, 2)
	assert.Len(t, recorder.commissions, 3)
	assert.Contains(t, logs.String(), "earning reconcile failed")
}

func TestEarningsReconcileSkipsPermanentRejections(t *testing.T) {
	logg, logs := testLogger()
	rejected := uuid.New()
	reader := &fakeDeliveredReader{orders: []models.Order{
		deliveredOrder("ORD-1-0004", map[uuid.UUID]string{rejected: "3"}),
	}}
	recorder := &flakyRecorder{
		failVendor: rejected,
		failErr:    pkgerrors.New(pkgerrors.CodeValidation, "earning amount must be greater than zero"),
	}
	job, err := NewEarningsReconcileJob(EarningsReconcileJobParams{Logger: logg, Orders: reader, Earnings: recorder})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Contains(t, logs.String(), "earning reconcile skipped order")
	assert.Contains(t, logs.String(), `"skipped":1`)
}

func TestEarningsReconcileListFailure(t *testing.T) {
	logg, _ := testLogger()
	job, err := NewEarningsReconcileJob(EarningsReconcileJobParams{
		Logger: logg, Orders: &fakeDeliveredReader{err: errors.New("timeout")}, Earnings: &flakyRecorder{},
	})
	require.NoError(t, err)
	require.ErrorContains(t, job.Run(context.Background()), "list delivered orders")
}

func TestEarningsReconcileReplayIsIdempotent(t *testing.T) {
	client, conn := dbtest.Client(t)
	logg, _ := testLogger()

	wallets, err := ledger.NewService(ledger.NewRepository(conn), client, logg, ledger.Options{})
	require.NoError(t, err)
	admin := uuid.New()
	payoutSvc, err := payouts.NewService(payouts.NewRepository(conn), client, wallets, logg, payouts.Options{AdminWalletID: admin})
	require.NoError(t, err)

	vendorA, vendorB := uuid.New(), uuid.New()
	reader := &fakeDeliveredReader{orders: []models.Order{
		deliveredOrder("ORD-2-0001", map[uuid.UUID]string{vendorA: "100", vendorB: "25"}),
	}}
	job, err := NewEarningsReconcileJob(EarningsReconcileJobParams{Logger: logg, Orders: reader, Earnings: payoutSvc})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))

	walletA, err := payoutSvc.GetVendorWallet(context.Background(), vendorA)
	require.NoError(t, err)
	assert.Equal(t, "90.000", walletA.AvailableBalance.StringFixed(3))
	walletB, err := payoutSvc.GetVendorWallet(context.Background(), vendorB)
	require.NoError(t, err)
	assert.Equal(t, "22.500", walletB.AvailableBalance.StringFixed(3))

	page, err := payoutSvc.ListEarnings(context.Background(), payouts.EarningFilter{}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	adminWallet, err := wallets.GetOrCreate(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, "12.500", adminWallet.Balance.StringFixed(3))
}
