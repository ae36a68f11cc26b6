package notifications

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/mailer"
	"github.com/angelmondragon/souq-backend/pkg/money"
)

var statusLabels = map[enums.OrderStatus]string{
	enums.OrderStatusPending:              "pending",
	enums.OrderStatusConfirmed:            "confirmed",
	enums.OrderStatusPreparingForShipment: "being prepared for shipment",
	enums.OrderStatusOutForDelivery:       "out for delivery",
	enums.OrderStatusDelivered:            "delivered",
	enums.OrderStatusCancelled:            "cancelled",
}

func orderPlacedMessage(customer *models.User, order *models.Order) mailer.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nWe received your order %s.\n\n", customer.FullName, order.OrderNumber)
	writeLines(&b, order.Items, order.Currency)
	fmt.Fprintf(&b, "\nSubtotal: %s %s\n", money.Format(order.TotalPrice), order.Currency)
	fmt.Fprintf(&b, "Shipping: %s %s\n", money.Format(order.ShippingFee), order.Currency)
	fmt.Fprintf(&b, "Tax: %s %s\n", money.Format(order.Tax), order.Currency)
	if order.Discount.IsPositive() {
		fmt.Fprintf(&b, "Discount: -%s %s\n", money.Format(order.Discount), order.Currency)
	}
	fmt.Fprintf(&b, "Total: %s %s\n", money.Format(order.GrandTotal), order.Currency)

	return mailer.Message{
		To:      customer.Email,
		ToName:  customer.FullName,
		Subject: fmt.Sprintf("Order %s received", order.OrderNumber),
		Text:    b.String(),
	}
}

func vendorOrderMessage(vendor *models.User, order *models.Order, items []models.OrderLineItem) mailer.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nOrder %s includes your products:\n\n", vendor.FullName, order.OrderNumber)
	writeLines(&b, items, order.Currency)
	fmt.Fprintf(&b, "\nShip to: %s, %s, %s\n", order.ShippingAddress.FullName, order.ShippingAddress.City, order.ShippingAddress.Country)

	return mailer.Message{
		To:      vendor.Email,
		ToName:  vendor.FullName,
		Subject: fmt.Sprintf("New order %s", order.OrderNumber),
		Text:    b.String(),
	}
}

func statusChangedMessage(customer *models.User, order *models.Order, previous enums.OrderStatus) mailer.Message {
	label, ok := statusLabels[order.Status]
	if !ok {
		label = strings.ToLower(order.Status.String())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nYour order %s is now %s.\n", customer.FullName, order.OrderNumber, label)
	if order.TrackingNumber != nil {
		fmt.Fprintf(&b, "Tracking number: %s\n", *order.TrackingNumber)
	}
	if order.Status == enums.OrderStatusCancelled && order.PaymentStatus == enums.PaymentStatusRefunded && previous != enums.OrderStatusPending {
		b.WriteString("Any wallet payment has been refunded to your balance.\n")
	}

	return mailer.Message{
		To:      customer.Email,
		ToName:  customer.FullName,
		Subject: fmt.Sprintf("Order %s is %s", order.OrderNumber, label),
		Text:    b.String(),
	}
}

func writeLines(b *strings.Builder, items []models.OrderLineItem, currency enums.Currency) {
	for _, item := range items {
		name := item.ProductName
		if item.VariationName != nil {
			name = fmt.Sprintf("%s (%s)", name, *item.VariationName)
		}
		fmt.Fprintf(b, "- %d x %s @ %s = %s %s\n", item.Quantity, name, money.Format(item.Price), money.Format(item.Total), currency)
	}
}
