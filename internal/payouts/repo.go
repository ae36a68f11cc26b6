package payouts

import (
	"context"
	"time"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EarningFilter narrows earning listings. Nil fields are ignored.
type EarningFilter struct {
	VendorID     *uuid.UUID
	PayoutStatus *enums.EarningPayoutStatus
	From         *time.Time
	To           *time.Time
}

// PayoutFilter narrows payout request listings. Nil fields are ignored.
type PayoutFilter struct {
	VendorID *uuid.UUID
	Status   *enums.PayoutStatus
}

// Repository manages persistence for earnings, vendor wallets and payout requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindEarning(ctx context.Context, vendorID, orderID uuid.UUID) (*models.VendorEarning, error)
	CreateEarningIfAbsent(ctx context.Context, earning *models.VendorEarning) (bool, error)
	ListPendingEarningsFIFO(ctx context.Context, vendorID uuid.UUID) ([]models.VendorEarning, error)
	MarkEarningsPaid(ctx context.Context, ids []uuid.UUID, payoutRequestID uuid.UUID) error
	ListEarnings(ctx context.Context, filter EarningFilter, cursor *pagination.Cursor, limit int) ([]models.VendorEarning, error)
	EarningsBetween(ctx context.Context, vendorID *uuid.UUID, from, to *time.Time) ([]models.VendorEarning, error)

	FindVendorWallet(ctx context.Context, vendorID uuid.UUID) (*models.VendorWallet, error)
	FindVendorWalletForUpdate(ctx context.Context, vendorID uuid.UUID) (*models.VendorWallet, error)
	CreateVendorWalletIfAbsent(ctx context.Context, wallet *models.VendorWallet) error
	UpdateVendorWallet(ctx context.Context, wallet *models.VendorWallet) error

	CountOutstandingRequests(ctx context.Context, vendorID uuid.UUID) (int64, error)
	CreatePayoutRequest(ctx context.Context, req *models.PayoutRequest) error
	FindPayoutRequest(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
	FindPayoutRequestForUpdate(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
	UpdatePayoutRequest(ctx context.Context, req *models.PayoutRequest) error
	ListPayoutRequests(ctx context.Context, filter PayoutFilter, cursor *pagination.Cursor, limit int) ([]models.PayoutRequest, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payouts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindEarning(ctx context.Context, vendorID, orderID uuid.UUID) (*models.VendorEarning, error) {
	var earning models.VendorEarning
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND order_id = ?", vendorID, orderID).
		First(&earning).Error; err != nil {
		return nil, err
	}
	return &earning, nil
}

// CreateEarningIfAbsent reports false when the (vendor, order) pair already exists.
func (r *repository) CreateEarningIfAbsent(ctx context.Context, earning *models.VendorEarning) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vendor_id"}, {Name: "order_id"}},
			DoNothing: true,
		}).
		Create(earning)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListPendingEarningsFIFO(ctx context.Context, vendorID uuid.UUID) ([]models.VendorEarning, error) {
	var rows []models.VendorEarning
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND payout_status = ?", vendorID, enums.EarningPayoutStatusPending).
		Order("earned_date ASC").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkEarningsPaid(ctx context.Context, ids []uuid.UUID, payoutRequestID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.VendorEarning{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"payout_status":     enums.EarningPayoutStatusPaid,
			"payout_request_id": payoutRequestID,
			"updated_at":        time.Now().UTC(),
		}).Error
}

func (r *repository) ListEarnings(ctx context.Context, filter EarningFilter, cursor *pagination.Cursor, limit int) ([]models.VendorEarning, error) {
	query := r.earningScope(ctx, filter.VendorID, filter.From, filter.To)
	if filter.PayoutStatus != nil {
		query = query.Where("payout_status = ?", *filter.PayoutStatus)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.VendorEarning
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) EarningsBetween(ctx context.Context, vendorID *uuid.UUID, from, to *time.Time) ([]models.VendorEarning, error) {
	var rows []models.VendorEarning
	if err := r.earningScope(ctx, vendorID, from, to).
		Order("earned_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) earningScope(ctx context.Context, vendorID *uuid.UUID, from, to *time.Time) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.VendorEarning{})
	if vendorID != nil {
		query = query.Where("vendor_id = ?", *vendorID)
	}
	if from != nil {
		query = query.Where("earned_date >= ?", from.UTC())
	}
	if to != nil {
		query = query.Where("earned_date <= ?", to.UTC())
	}
	return query
}

func (r *repository) FindVendorWallet(ctx context.Context, vendorID uuid.UUID) (*models.VendorWallet, error) {
	var wallet models.VendorWallet
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) FindVendorWalletForUpdate(ctx context.Context, vendorID uuid.UUID) (*models.VendorWallet, error) {
	var wallet models.VendorWallet
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("vendor_id = ?", vendorID).
		First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) CreateVendorWalletIfAbsent(ctx context.Context, wallet *models.VendorWallet) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "vendor_id"}}, DoNothing: true}).
		Create(wallet).Error
}

func (r *repository) UpdateVendorWallet(ctx context.Context, wallet *models.VendorWallet) error {
	return r.db.WithContext(ctx).
		Model(&models.VendorWallet{}).
		Where("id = ?", wallet.ID).
		Updates(map[string]any{
			"available_balance": wallet.AvailableBalance,
			"pending_balance":   wallet.PendingBalance,
			"total_earned":      wallet.TotalEarned,
			"total_withdrawn":   wallet.TotalWithdrawn,
			"last_payout_date":  wallet.LastPayoutDate,
			"updated_at":        time.Now().UTC(),
		}).Error
}

func (r *repository) CountOutstandingRequests(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PayoutRequest{}).
		Where("vendor_id = ? AND status IN ?", vendorID, enums.OutstandingPayoutStatuses).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CreatePayoutRequest(ctx context.Context, req *models.PayoutRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindPayoutRequest(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	var req models.PayoutRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) FindPayoutRequestForUpdate(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	var req models.PayoutRequest
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) UpdatePayoutRequest(ctx context.Context, req *models.PayoutRequest) error {
	return r.db.WithContext(ctx).
		Model(&models.PayoutRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]any{
			"status":                req.Status,
			"processed_date":        req.ProcessedDate,
			"completed_date":        req.CompletedDate,
			"rejection_reason":      req.RejectionReason,
			"processed_by":          req.ProcessedBy,
			"transaction_reference": req.TransactionReference,
			"notes":                 req.Notes,
			"updated_at":            time.Now().UTC(),
		}).Error
}

func (r *repository) ListPayoutRequests(ctx context.Context, filter PayoutFilter, cursor *pagination.Cursor, limit int) ([]models.PayoutRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.PayoutRequest{})
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.PayoutRequest
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
