package orders

import (
	"errors"

	product "github.com/angelmondragon/souq-backend/internal/products"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrProductNotFound         = errors.New("product not found")
	ErrVariationNotFound       = product.ErrVariationNotFound
	ErrInvalidTransition       = errors.New("order status transition not allowed")
	ErrNotCancellable          = errors.New("order can no longer be cancelled")
	ErrPaymentAlreadyCompleted = errors.New("order payment already completed")
	ErrOrderNotPayable         = errors.New("order cannot accept payment")
	ErrWalletPaymentSettled    = errors.New("wallet payment is settled; cancel the order to reverse it")

	errOrderNumberTaken = errors.New("order number already taken")
)
