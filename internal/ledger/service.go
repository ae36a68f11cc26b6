package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/metrics"
	"github.com/angelmondragon/souq-backend/pkg/money"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service maintains one non-negative balance per owner plus its journal.
type Service interface {
	GetOrCreate(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error)
	Credit(ctx context.Context, input CreditInput) (*models.Wallet, error)
	Debit(ctx context.Context, input DebitInput) (*models.Wallet, error)
	Refund(ctx context.Context, input RefundInput) (*models.Wallet, error)
	Post(ctx context.Context, entry Entry) (*Posting, error)
	PostTx(ctx context.Context, tx *gorm.DB, entry Entry) (*Posting, error)
	PostOnce(ctx context.Context, entry Entry) (*Posting, bool, error)
	ListTransactions(ctx context.Context, ownerID uuid.UUID, filter TransactionFilter, params pagination.Params) (pagination.Page[models.WalletTransaction], error)
	HasSufficientBalance(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal) (bool, error)
	HasOrderTransaction(ctx context.Context, ownerID, orderID uuid.UUID, txType enums.WalletTransactionType) (bool, error)
}

// Options carries the optional collaborators of the wallet service.
type Options struct {
	Currency enums.Currency
	Metrics  *metrics.LedgerMetrics
	Clock    func() time.Time
}

type service struct {
	repo     Repository
	tx       txRunner
	logg     *logger.Logger
	metrics  *metrics.LedgerMetrics
	currency enums.Currency
	now      func() time.Time
}

// Entry is one posting against an owner's wallet.
type Entry struct {
	OwnerID     uuid.UUID
	Type        enums.WalletTransactionType
	Amount      decimal.Decimal
	Description string
	Method      *string
	OrderID     *uuid.UUID
	GatewayRef  *string
}

// Posting is the wallet state after an entry together with its journal row.
type Posting struct {
	Wallet      *models.Wallet
	Transaction *models.WalletTransaction
}

type CreditInput struct {
	OwnerID     uuid.UUID
	Amount      decimal.Decimal
	Method      string
	Description string
	GatewayRef  *string
}

type DebitInput struct {
	OwnerID     uuid.UUID
	Amount      decimal.Decimal
	Description string
	OrderID     *uuid.UUID
}

type RefundInput struct {
	OwnerID     uuid.UUID
	Amount      decimal.Decimal
	OrderID     uuid.UUID
	Description string
}

// NewService wires a wallet service with the provided repository.
func NewService(repo Repository, tx txRunner, logg *logger.Logger, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
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
		repo:     repo,
		tx:       tx,
		logg:     logg,
		metrics:  opts.Metrics,
		currency: currency,
		now:      clock,
	}, nil
}

func (s *service) GetOrCreate(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}

	wallet, err := s.repo.FindByOwner(ctx, ownerID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.lockOrCreate(ctx, s.repo.WithTx(tx), ownerID)
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

func (s *service) Credit(ctx context.Context, input CreditInput) (*models.Wallet, error) {
	entry := Entry{
		OwnerID:     input.OwnerID,
		Type:        enums.WalletTransactionTypeCredit,
		Amount:      input.Amount,
		Description: input.Description,
		GatewayRef:  input.GatewayRef,
	}
	if method := strings.TrimSpace(input.Method); method != "" {
		entry.Method = &method
	}
	posting, err := s.Post(ctx, entry)
	if err != nil {
		return nil, err
	}
	return posting.Wallet, nil
}

func (s *service) Debit(ctx context.Context, input DebitInput) (*models.Wallet, error) {
	posting, err := s.Post(ctx, Entry{
		OwnerID:     input.OwnerID,
		Type:        enums.WalletTransactionTypeDebit,
		Amount:      input.Amount,
		Description: input.Description,
		OrderID:     input.OrderID,
	})
	if err != nil {
		return nil, err
	}
	return posting.Wallet, nil
}

func (s *service) Refund(ctx context.Context, input RefundInput) (*models.Wallet, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund requires an order id")
	}
	orderID := input.OrderID
	posting, err := s.Post(ctx, Entry{
		OwnerID:     input.OwnerID,
		Type:        enums.WalletTransactionTypeRefund,
		Amount:      input.Amount,
		Description: input.Description,
		OrderID:     &orderID,
	})
	if err != nil {
		return nil, err
	}
	return posting.Wallet, nil
}

// Post applies entry in its own transaction.
func (s *service) Post(ctx context.Context, entry Entry) (*Posting, error) {
	var posting *Posting
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		p, err := s.PostTx(ctx, tx, entry)
		if err != nil {
			return err
		}
		posting = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"owner_id":       entry.OwnerID.String(),
		"transaction_id": posting.Transaction.TransactionID,
		"type":           posting.Transaction.Type.String(),
		"amount":         money.Format(posting.Transaction.Amount),
	})
	s.logg.Info(logCtx, "wallet entry posted")
	return posting, nil
}

// PostTx applies entry inside the caller's transaction. The wallet row is
// locked and re-read before the balance is touched.
func (s *service) PostTx(ctx context.Context, tx *gorm.DB, entry Entry) (*Posting, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	amount, err := validateEntry(entry)
	if err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)
	wallet, err := s.lockOrCreate(ctx, repo, entry.OwnerID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, repo, wallet, entry, amount)
}

// PostOnce applies entry unless the owner already has a transaction of the
// same type linked to entry.OrderID. The check runs under the wallet lock.
func (s *service) PostOnce(ctx context.Context, entry Entry) (*Posting, bool, error) {
	if entry.OrderID == nil || *entry.OrderID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	amount, err := validateEntry(entry)
	if err != nil {
		return nil, false, err
	}

	var posting *Posting
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wallet, err := s.lockOrCreate(ctx, repo, entry.OwnerID)
		if err != nil {
			return err
		}
		exists, err := repo.HasOrderTransaction(ctx, entry.OwnerID, *entry.OrderID, entry.Type)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order transaction")
		}
		if exists {
			return nil
		}
		posting, err = s.apply(ctx, repo, wallet, entry, amount)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return posting, posting != nil, nil
}

func (s *service) apply(ctx context.Context, repo Repository, wallet *models.Wallet, entry Entry, amount decimal.Decimal) (*Posting, error) {
	if !wallet.IsActive {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrWalletInactive, "wallet is inactive")
	}

	before := money.Round(wallet.Balance)
	after := before.Add(amount)
	if entry.Type.IsDebit() {
		if before.LessThan(amount) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInsufficient, ErrInsufficientBalance, "wallet balance is lower than the requested amount").
				WithDetails(map[string]any{
					"balance":   money.Format(before),
					"requested": money.Format(amount),
				})
		}
		after = before.Sub(amount)
	}
	after = money.Round(after)

	now := s.now().UTC()
	sequence := wallet.EntryCount + 1
	txn := &models.WalletTransaction{
		WalletID:             wallet.ID,
		OwnerID:              wallet.OwnerID,
		Sequence:             sequence,
		TransactionID:        newTransactionID(now),
		Type:                 entry.Type,
		Amount:               amount,
		BalanceBefore:        before,
		BalanceAfter:         after,
		Description:          describe(entry),
		Status:               enums.WalletTransactionStatusCompleted,
		PaymentMethod:        entry.Method,
		OrderID:              entry.OrderID,
		GatewayTransactionID: entry.GatewayRef,
		CreatedAt:            now,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append wallet transaction")
	}
	if err := repo.UpdateBalance(ctx, wallet.ID, after, sequence); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update wallet balance")
	}

	wallet.Balance = after
	wallet.EntryCount = sequence
	s.metrics.IncWalletTransaction(entry.Type.String())
	return &Posting{Wallet: wallet, Transaction: txn}, nil
}

func (s *service) ListTransactions(ctx context.Context, ownerID uuid.UUID, filter TransactionFilter, params pagination.Params) (pagination.Page[models.WalletTransaction], error) {
	var page pagination.Page[models.WalletTransaction]
	if ownerID == uuid.Nil {
		return page, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if filter.MinAmount != nil && filter.MaxAmount != nil && filter.MinAmount.GreaterThan(*filter.MaxAmount) {
		return page, pkgerrors.New(pkgerrors.CodeValidation, "min amount exceeds max amount")
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return page, pkgerrors.New(pkgerrors.CodeValidation, "from date is after to date")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return page, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	wallet, err := s.GetOrCreate(ctx, ownerID)
	if err != nil {
		return page, err
	}
	rows, err := s.repo.ListTransactions(ctx, wallet.ID, filter, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return page, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet transactions")
	}
	return pagination.Build(rows, params.Limit, func(t models.WalletTransaction) pagination.Cursor {
		return pagination.Cursor{CreatedAt: t.CreatedAt, ID: t.ID}
	}), nil
}

func (s *service) HasSufficientBalance(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal) (bool, error) {
	if ownerID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	wallet, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return !money.Round(amount).IsPositive(), nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	return wallet.Balance.GreaterThanOrEqual(money.Round(amount)), nil
}

func (s *service) HasOrderTransaction(ctx context.Context, ownerID, orderID uuid.UUID, txType enums.WalletTransactionType) (bool, error) {
	if ownerID == uuid.Nil || orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "owner id and order id required")
	}
	found, err := s.repo.HasOrderTransaction(ctx, ownerID, orderID, txType)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order transaction")
	}
	return found, nil
}

func (s *service) lockOrCreate(ctx context.Context, repo Repository, ownerID uuid.UUID) (*models.Wallet, error) {
	wallet, err := repo.FindByOwnerForUpdate(ctx, ownerID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock wallet")
	}

	if err := repo.CreateIfAbsent(ctx, &models.Wallet{
		OwnerID:  ownerID,
		Balance:  decimal.Zero,
		Currency: s.currency,
		IsActive: true,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create wallet")
	}
	wallet, err = repo.FindByOwnerForUpdate(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock wallet")
	}
	return wallet, nil
}

func validateEntry(entry Entry) (decimal.Decimal, error) {
	if entry.OwnerID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if !entry.Type.IsValid() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", entry.Type))
	}
	if entry.Type == enums.WalletTransactionTypeRefund && (entry.OrderID == nil || *entry.OrderID == uuid.Nil) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "refund requires an order id")
	}
	amount := money.Round(entry.Amount)
	if !amount.IsPositive() {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidAmount, "amount must be greater than zero")
	}
	return amount, nil
}

func describe(entry Entry) string {
	if desc := strings.TrimSpace(entry.Description); desc != "" {
		return desc
	}
	switch entry.Type {
	case enums.WalletTransactionTypeCredit:
		return "Wallet top-up"
	case enums.WalletTransactionTypeDebit:
		return "Wallet payment"
	case enums.WalletTransactionTypeRefund:
		return "Order refund"
	default:
		return "Wallet withdrawal"
	}
}
