package payouts

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
)

var detailsValidator = validator.New()

// normalizeDetails trims the destination fields and checks that the ones the
// method needs are present.
func normalizeDetails(method enums.PayoutMethod, details models.PayoutDetails) (models.PayoutDetails, error) {
	details = models.PayoutDetails{
		AccountHolderName: strings.TrimSpace(details.AccountHolderName),
		BankName:          strings.TrimSpace(details.BankName),
		AccountNumber:     strings.TrimSpace(details.AccountNumber),
		IBAN:              strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(details.IBAN), " ", "")),
		SwiftCode:         strings.ToUpper(strings.TrimSpace(details.SwiftCode)),
		PayPalEmail:       strings.ToLower(strings.TrimSpace(details.PayPalEmail)),
		StripeAccountID:   strings.TrimSpace(details.StripeAccountID),
	}

	var missing []string
	switch method {
	case enums.PayoutMethodBankTransfer:
		if details.AccountHolderName == "" {
			missing = append(missing, "account_holder_name")
		}
		if details.BankName == "" {
			missing = append(missing, "bank_name")
		}
		if details.AccountNumber == "" && details.IBAN == "" {
			missing = append(missing, "account_number_or_iban")
		}
	case enums.PayoutMethodPayPal:
		if details.PayPalEmail == "" {
			missing = append(missing, "paypal_email")
		} else if err := detailsValidator.Var(details.PayPalEmail, "email"); err != nil {
			return details, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidPayoutDetails, "paypal email is not a valid address").
				WithDetails(map[string]any{"field": "paypal_email"})
		}
	case enums.PayoutMethodStripe:
		if details.StripeAccountID == "" {
			missing = append(missing, "stripe_account_id")
		}
	default:
		return details, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidPayoutDetails, fmt.Sprintf("unsupported payout method %q", method))
	}

	if len(missing) > 0 {
		return details, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidPayoutDetails, "payout details incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return details, nil
}
