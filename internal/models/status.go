package models

// OrderStatus is the commercial state of an order. It is owned by checkout,
// the payment callbacks and cancellation; the fulfillment flow only touches
// it at accept and delivery completion.
type OrderStatus string

const (
	OrderPending       OrderStatus = "pending"
	OrderConfirmed     OrderStatus = "confirmed"
	OrderPaymentFailed OrderStatus = "payment_failed"
	OrderCancelled     OrderStatus = "cancelled"
	OrderDelivered     OrderStatus = "delivered"
)

// DeliveryStatus is the physical fulfillment state of an order, advanced by
// the lifecycle endpoints in a fixed forward order.
type DeliveryStatus string

const (
	DeliveryPending        DeliveryStatus = "pending"
	DeliveryConfirmed      DeliveryStatus = "confirmed"
	DeliveryPreparing      DeliveryStatus = "preparing"
	DeliveryOutForDelivery DeliveryStatus = "out_for_delivery"
	DeliveryDelivered      DeliveryStatus = "delivered"
)

// PaymentStatus tracks the external payment processor's outcome.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Payment methods accepted at checkout.
const (
	PaymentMethodOnline  = "online"
	PaymentMethodOffline = "offline"
)

// deliveryTransitions maps each delivery status to the only status it may
// advance to. Delivered has no successor.
var deliveryTransitions = map[DeliveryStatus]DeliveryStatus{
	DeliveryPending:        DeliveryConfirmed,
	DeliveryConfirmed:      DeliveryPreparing,
	DeliveryPreparing:      DeliveryOutForDelivery,
	DeliveryOutForDelivery: DeliveryDelivered,
}

// Next returns the successor delivery status, if any.
func (s DeliveryStatus) Next() (DeliveryStatus, bool) {
	next, ok := deliveryTransitions[s]
	return next, ok
}

// CanAdvanceTo reports whether a direct transition from s to target is part
// of the delivery lifecycle.
func (s DeliveryStatus) CanAdvanceTo(target DeliveryStatus) bool {
	next, ok := deliveryTransitions[s]
	return ok && next == target
}

// Terminal reports whether no further delivery transitions are accepted.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryDelivered
}

// Valid reports whether s is a known delivery status value.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPending, DeliveryConfirmed, DeliveryPreparing, DeliveryOutForDelivery, DeliveryDelivered:
		return true
	}
	return false
}

// compatibleOrderStatuses is the joint-validity table between the commercial
// status and the delivery status. Every write path that touches one of the
// two fields keeps the pair inside this table.
var compatibleOrderStatuses = map[DeliveryStatus]map[OrderStatus]bool{
	DeliveryPending: {
		OrderPending:       true,
		OrderConfirmed:     true,
		OrderPaymentFailed: true,
		OrderCancelled:     true,
	},
	DeliveryConfirmed: {
		OrderConfirmed: true,
	},
	DeliveryPreparing: {
		OrderConfirmed: true,
	},
	DeliveryOutForDelivery: {
		OrderConfirmed: true,
	},
	DeliveryDelivered: {
		OrderDelivered: true,
	},
}

// StatusPairValid reports whether the commercial and delivery statuses are a
// combination the system is allowed to persist.
func StatusPairValid(status OrderStatus, delivery DeliveryStatus) bool {
	return compatibleOrderStatuses[delivery][status]
}
