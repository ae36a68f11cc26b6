package notifications

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/mailer"
	"github.com/angelmondragon/souq-backend/pkg/metrics"
)

const defaultSendTimeout = 15 * time.Second

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// UserDirectory resolves recipients.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

// Options tunes the dispatcher.
type Options struct {
	SendTimeout time.Duration
	Metrics     *metrics.LedgerMetrics
}

// Dispatcher emails customers and vendors about order events. Every send runs
// on its own goroutine after the triggering write has committed; failures are
// logged and never reach the caller.
type Dispatcher struct {
	sender  Sender
	users   UserDirectory
	logg    *logger.Logger
	metrics *metrics.LedgerMetrics
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher wires the dispatcher dependencies.
func NewDispatcher(sender Sender, users UserDirectory, logg *logger.Logger, opts Options) (*Dispatcher, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := opts.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Dispatcher{
		sender:  sender,
		users:   users,
		logg:    logg,
		metrics: opts.Metrics,
		timeout: timeout,
	}, nil
}

// OrderPlaced emails the customer a receipt and each vendor their lines.
func (d *Dispatcher) OrderPlaced(ctx context.Context, order *models.Order) {
	snapshot := *order
	snapshot.Items = append([]models.OrderLineItem(nil), order.Items...)
	d.goSend(ctx, snapshot.ID, func(ctx context.Context) error {
		customer, err := d.users.FindByID(ctx, snapshot.UserID)
		if err != nil {
			return fmt.Errorf("load customer: %w", err)
		}
		if err := d.sender.Send(ctx, orderPlacedMessage(customer, &snapshot)); err != nil {
			return fmt.Errorf("customer receipt: %w", err)
		}

		byVendor := itemsByVendor(snapshot.Items)
		vendorIDs := make([]uuid.UUID, 0, len(byVendor))
		for id := range byVendor {
			vendorIDs = append(vendorIDs, id)
		}
		sort.Slice(vendorIDs, func(i, j int) bool { return vendorIDs[i].String() < vendorIDs[j].String() })

		vendors, err := d.users.FindByIDs(ctx, vendorIDs)
		if err != nil {
			return fmt.Errorf("load vendors: %w", err)
		}
		var firstErr error
		for i := range vendors {
			vendor := &vendors[i]
			if err := d.sender.Send(ctx, vendorOrderMessage(vendor, &snapshot, byVendor[vendor.ID])); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("vendor %s notice: %w", vendor.ID, err)
			}
		}
		return firstErr
	})
}

// StatusChanged emails the customer the order's new status.
func (d *Dispatcher) StatusChanged(ctx context.Context, order *models.Order, previous enums.OrderStatus) {
	snapshot := *order
	d.goSend(ctx, snapshot.ID, func(ctx context.Context) error {
		customer, err := d.users.FindByID(ctx, snapshot.UserID)
		if err != nil {
			return fmt.Errorf("load customer: %w", err)
		}
		return d.sender.Send(ctx, statusChangedMessage(customer, &snapshot, previous))
	})
}

// Flush blocks until in-flight sends finish or ctx ends.
func (d *Dispatcher) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) goSend(parent context.Context, orderID uuid.UUID, send func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.timeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				d.fail(ctx, orderID, fmt.Errorf("panic: %v", r))
			}
		}()
		if err := send(ctx); err != nil {
			d.fail(ctx, orderID, err)
		}
	}()
}

func (d *Dispatcher) fail(ctx context.Context, orderID uuid.UUID, err error) {
	d.metrics.IncSideEffectFailure("notification")
	d.logg.Error(d.logg.WithOrderID(ctx, orderID.String()), "order notification failed", err)
}

func itemsByVendor(items []models.OrderLineItem) map[uuid.UUID][]models.OrderLineItem {
	grouped := make(map[uuid.UUID][]models.OrderLineItem)
	for _, item := range items {
		grouped[item.VendorID] = append(grouped[item.VendorID], item)
	}
	return grouped
}
