package enums

import "fmt"

// PaymentGateway labels the system that produced a payment history entry.
type PaymentGateway string

const (
	PaymentGatewayWallet         PaymentGateway = "WALLET"
	PaymentGatewayCard           PaymentGateway = "CARD"
	PaymentGatewayCashOnDelivery PaymentGateway = "CASH_ON_DELIVERY"
	PaymentGatewayBenefitPay     PaymentGateway = "BENEFIT_PAY"
)

var validPaymentGateways = []PaymentGateway{
	PaymentGatewayWallet,
	PaymentGatewayCard,
	PaymentGatewayCashOnDelivery,
	PaymentGatewayBenefitPay,
}

// String implements fmt.Stringer.
func (p PaymentGateway) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentGateway.
func (p PaymentGateway) IsValid() bool {
	for _, candidate := range validPaymentGateways {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentGateway converts raw input into a PaymentGateway.
func ParsePaymentGateway(value string) (PaymentGateway, error) {
	for _, candidate := range validPaymentGateways {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment gateway %q", value)
}
