package enums

import "fmt"

// OrderStatus tracks fulfilment of an order.
type OrderStatus string

const (
	OrderStatusPending              OrderStatus = "PENDING"
	OrderStatusConfirmed            OrderStatus = "CONFIRMED"
	OrderStatusPreparingForShipment OrderStatus = "PREPARING_FOR_SHIPMENT"
	OrderStatusOutForDelivery       OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered            OrderStatus = "DELIVERED"
	OrderStatusCancelled            OrderStatus = "CANCELLED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparingForShipment,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// orderTransitions lists the only forward moves an order may make.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:              {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:            {OrderStatusPreparingForShipment, OrderStatusCancelled},
	OrderStatusPreparingForShipment: {OrderStatusOutForDelivery, OrderStatusCancelled},
	OrderStatusOutForDelivery:       {OrderStatusDelivered},
}

func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves this status.
func (o OrderStatus) IsTerminal() bool {
	return len(orderTransitions[o]) == 0
}

// CanTransitionTo reports whether next is an allowed successor of o.
func (o OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderTransitions[o] {
		if candidate == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the successors of o.
func (o OrderStatus) AllowedTransitions() []OrderStatus {
	return append([]OrderStatus(nil), orderTransitions[o]...)
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
