package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/souq-backend/internal/orders"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/metrics"
)

const (
	earningsReconcileJobName = "earnings-reconcile"
	defaultReconcileLookback = 72 * time.Hour
)

type deliveredOrderReader interface {
	ListDeliveredSince(ctx context.Context, since time.Time) ([]models.Order, error)
}

// EarningsReconcileJobParams configure the earnings reconciliation job.
type EarningsReconcileJobParams struct {
	Logger   *logger.Logger
	Orders   deliveredOrderReader
	Earnings orders.EarningsRecorder
	Metrics  *metrics.LedgerMetrics
	Lookback time.Duration
}

// NewEarningsReconcileJob builds the job that replays earning creation for
// recently delivered orders. Earning creation is idempotent per vendor and
// order, so replays only fill gaps left by failed delivery-time attempts.
func NewEarningsReconcileJob(params EarningsReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if params.Earnings == nil {
		return nil, fmt.Errorf("earnings recorder required")
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultReconcileLookback
	}
	return &earningsReconcileJob{
		logg:     params.Logger,
		orders:   params.Orders,
		earnings: params.Earnings,
		metrics:  params.Metrics,
		lookback: lookback,
		now:      time.Now,
	}, nil
}

type earningsReconcileJob struct {
	logg     *logger.Logger
	orders   deliveredOrderReader
	earnings orders.EarningsRecorder
	metrics  *metrics.LedgerMetrics
	lookback time.Duration
	now      func() time.Time
}

func (j *earningsReconcileJob) Name() string { return earningsReconcileJobName }

func (j *earningsReconcileJob) Run(ctx context.Context) error {
	since := j.now().UTC().Add(-j.lookback)
	delivered, err := j.orders.ListDeliveredSince(ctx, since)
	if err != nil {
		return fmt.Errorf("list delivered orders: %w", err)
	}

	var errs error
	failed, skipped := 0, 0
	for i := range delivered {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		order := &delivered[i]
		orderCtx := j.logg.WithOrderID(ctx, order.ID.String())
		err := orders.RecordEarnings(orderCtx, j.earnings, order, func(vendorID uuid.UUID, err error) {
			j.metrics.IncSideEffectFailure("vendor_earning")
			j.logg.Error(j.logg.WithVendorID(orderCtx, vendorID.String()), "earning reconcile failed", err)
		})
		if err != nil && !pkgerrors.IsRetryable(err) {
			skipped++
			j.logg.Warn(j.logg.WithField(orderCtx, "error", err.Error()), "earning reconcile skipped order")
			continue
		}
		if err != nil {
			failed++
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.OrderNumber, err))
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"since":   since,
		"orders":  len(delivered),
		"failed":  failed,
		"skipped": skipped,
		"command": earningsReconcileJobName,
	}), "earnings reconcile pass complete")
	return errs
}
