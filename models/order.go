package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusOutForDelivery OrderStatus = "outForDelivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// orderTransitions is the allowed forward-transition table. Cancellation is
// the only exit from the forward chain and is reachable only from confirmed
// and processing.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusConfirmed:      {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:     {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:        {OrderStatusOutForDelivery},
	OrderStatusOutForDelivery: {OrderStatusDelivered},
	OrderStatusDelivered:      {},
	OrderStatusCancelled:      {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidOrderStatus reports whether s is one of the known order statuses.
func ValidOrderStatus(s OrderStatus) bool {
	_, ok := orderTransitions[s]
	return ok
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentUPI    PaymentMethod = "upi"
	PaymentOnline PaymentMethod = "online"
)

type RefundStatus string

const (
	RefundPending     RefundStatus = "pending"
	RefundCompleted   RefundStatus = "completed"
	RefundNotRequired RefundStatus = "not_required"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFlat    DiscountType = "flat"
)

type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"` // snapshot at purchase time
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"` // snapshot at purchase time
}

type ShippingAddress struct {
	Name       string `bson:"name" json:"name"`
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Phone      string `bson:"phone" json:"phone"`
}

type Discount struct {
	Amount float64      `bson:"amount" json:"amount"`
	Type   DiscountType `bson:"type,omitempty" json:"type,omitempty"`
	Code   string       `bson:"code,omitempty" json:"code,omitempty"`
}

type Tracking struct {
	ID      string `bson:"id,omitempty" json:"id,omitempty"`
	Carrier string `bson:"carrier,omitempty" json:"carrier,omitempty"`
}

type Cancellation struct {
	Reason string    `bson:"reason" json:"reason"`
	By     string    `bson:"by" json:"by"` // "user" or "admin"
	At     time.Time `bson:"at" json:"at"`
}

type Refund struct {
	Status     RefundStatus `bson:"status,omitempty" json:"status,omitempty"`
	At         *time.Time   `bson:"at,omitempty" json:"at,omitempty"`
	By         string       `bson:"by,omitempty" json:"by,omitempty"`
	Reference  string       `bson:"reference,omitempty" json:"reference,omitempty"`
}

type Order struct {
	ID               primitive.ObjectID       `bson:"_id,omitempty" json:"id"`
	OrderCode        string                   `bson:"orderCode" json:"orderCode"`
	UserID           primitive.ObjectID       `bson:"userId" json:"userId"`
	Items            []OrderItem              `bson:"items" json:"items"`
	ShippingAddress  ShippingAddress          `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod    PaymentMethod            `bson:"paymentMethod" json:"paymentMethod"`
	PaymentReference string                   `bson:"paymentReference,omitempty" json:"paymentReference,omitempty"` // free-text UTR
	ItemsPrice       float64                  `bson:"itemsPrice" json:"itemsPrice"`
	ShippingPrice    float64                  `bson:"shippingPrice" json:"shippingPrice"`
	TotalPrice       float64                  `bson:"totalPrice" json:"totalPrice"`
	Discount         *Discount                `bson:"discount,omitempty" json:"discount,omitempty"`
	OrderStatus      OrderStatus              `bson:"orderStatus" json:"orderStatus"`
	StatusTimestamps map[OrderStatus]time.Time `bson:"statusTimestamps" json:"statusTimestamps"`
	Tracking         *Tracking                `bson:"tracking,omitempty" json:"tracking,omitempty"`
	Cancellation     *Cancellation            `bson:"cancellation,omitempty" json:"cancellation,omitempty"`
	Refund           Refund                   `bson:"refund" json:"refund"`
	DeliveredAt      *time.Time               `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt        time.Time                `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time                `bson:"updatedAt" json:"updatedAt"`
}

// TrackingView is the redacted shape served to non-owners on the public
// tracking endpoint. It must never carry items, address, or pricing.
type TrackingView struct {
	OrderCode        string                    `json:"orderCode"`
	OrderStatus      OrderStatus               `json:"orderStatus"`
	StatusTimestamps map[OrderStatus]time.Time `json:"statusTimestamps"`
	Tracking         *Tracking                 `json:"tracking,omitempty"`
	DeliveredAt      *time.Time                `json:"deliveredAt,omitempty"`
	CreatedAt        time.Time                 `json:"createdAt"`
}

// OrderStats is the admin aggregation summary.
type OrderStats struct {
	TotalOrders   int64                 `json:"totalOrders"`
	TotalRevenue  float64               `json:"totalRevenue"` // non-cancelled orders only
	CountByStatus map[OrderStatus]int64 `json:"countByStatus"`
}
