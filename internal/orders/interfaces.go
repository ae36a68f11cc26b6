package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/souq-backend/internal/ledger"
	"github.com/angelmondragon/souq-backend/internal/payouts"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders and their history rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	AppendStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error
	AppendPaymentHistory(ctx context.Context, entry *models.OrderPaymentHistory) error
	ListByUser(ctx context.Context, userID uuid.UUID, filter OrderFilter, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	ListDeliveredSince(ctx context.Context, since time.Time) ([]models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductCatalog resolves the products referenced by cart lines.
type ProductCatalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
}

// WalletPoster posts wallet entries inside an order transaction.
type WalletPoster interface {
	PostTx(ctx context.Context, tx *gorm.DB, entry ledger.Entry) (*ledger.Posting, error)
}

// EarningsRecorder receives delivered orders.
type EarningsRecorder interface {
	CreateVendorEarning(ctx context.Context, input payouts.EarningInput) (*models.VendorEarning, error)
	CreateAdminCommission(ctx context.Context, input payouts.CommissionInput)
}

// OrderNotifier is told about committed order changes. Implementations must
// not block and must swallow their own failures.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
	StatusChanged(ctx context.Context, order *models.Order, previous enums.OrderStatus)
}

type noopNotifier struct{}

func (noopNotifier) OrderPlaced(context.Context, *models.Order) {}

func (noopNotifier) StatusChanged(context.Context, *models.Order, enums.OrderStatus) {}
