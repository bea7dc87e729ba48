package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderItem is one product line within an order. Name and Price are
// snapshots taken at purchase time and do not track later product edits.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// DeliveryAddress captures where and whom to deliver to.
type DeliveryAddress struct {
	Title  string `bson:"title" json:"title"`
	Detail string `bson:"detail" json:"detail"`
	Note   string `bson:"note,omitempty" json:"note,omitempty"`
	Phone  string `bson:"phone" json:"phone"`
}

// Order defines the persisted order document.
type Order struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderNumber       string              `bson:"orderNumber" json:"orderNumber"`
	CustomerID        primitive.ObjectID  `bson:"customerId" json:"customerId"`
	Items             []OrderItem         `bson:"items" json:"items"`
	TotalPrice        float64             `bson:"totalPrice" json:"totalPrice"`
	DeliveryFee       float64             `bson:"deliveryFee" json:"deliveryFee"`
	DiscountAmount    float64             `bson:"discountAmount" json:"discountAmount"`
	CouponCode        string              `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	Address           DeliveryAddress     `bson:"address" json:"address"`
	PaymentMethod     string              `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus     PaymentStatus       `bson:"paymentStatus" json:"paymentStatus"`
	Status            OrderStatus         `bson:"status" json:"status"`
	DeliveryStatus    DeliveryStatus      `bson:"deliveryStatus" json:"deliveryStatus"`
	DeliveryPartnerID *primitive.ObjectID `bson:"deliveryPartnerId" json:"deliveryPartnerId"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	DeliveredAt       *time.Time          `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
}

// Assigned reports whether a delivery partner has been bound to the order.
func (o Order) Assigned() bool {
	return o.DeliveryPartnerID != nil && !o.DeliveryPartnerID.IsZero()
}
