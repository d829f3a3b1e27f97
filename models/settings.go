package models

import "time"

type DiscountTier struct {
	MinAmount float64 `bson:"minAmount" json:"minAmount"`
	Percent   float64 `bson:"percent" json:"percent"`
}

type PaymentMethodOption struct {
	Key     PaymentMethod `bson:"key" json:"key"`
	Label   string        `bson:"label" json:"label"`
	Enabled bool          `bson:"enabled" json:"enabled"`
}

// Settings is a singleton document keyed by Key = "store".
type Settings struct {
	Key                    string                `bson:"key" json:"-"`
	ShippingCharge         float64               `bson:"shippingCharge" json:"shippingCharge"`
	FreeShippingThreshold  float64               `bson:"freeShippingThreshold" json:"freeShippingThreshold"`
	DiscountTiers          []DiscountTier        `bson:"discountTiers" json:"discountTiers"`
	ExpressDeliveryCharge  float64               `bson:"expressDeliveryCharge" json:"expressDeliveryCharge"`
	ExpressDeliveryEnabled bool                  `bson:"expressDeliveryEnabled" json:"expressDeliveryEnabled"`
	PaymentMethods         []PaymentMethodOption `bson:"paymentMethods" json:"paymentMethods"`
	UpdatedAt              time.Time             `bson:"updatedAt" json:"updatedAt"`
}

const SettingsKey = "store"
