package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CouponTarget string

const (
	TargetAll           CouponTarget = "all"
	TargetNewUsers      CouponTarget = "newUsers"
	TargetSpecificUsers CouponTarget = "specificUsers"
)

type Coupon struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Code        string               `bson:"code" json:"code"` // stored upper-cased, unique
	Type        DiscountType         `bson:"type" json:"type"`
	Value       float64              `bson:"value" json:"value"`
	MinOrder    float64              `bson:"minOrder" json:"minOrder"`
	MaxDiscount float64              `bson:"maxDiscount" json:"maxDiscount"` // cap for percent type, 0 = no cap
	Target      CouponTarget         `bson:"target" json:"target"`
	TargetUsers []primitive.ObjectID `bson:"targetUsers,omitempty" json:"targetUsers,omitempty"`
	ExpiresAt   time.Time            `bson:"expiresAt" json:"expiresAt"`
	UsageLimit  int                  `bson:"usageLimit" json:"usageLimit"` // 0 = unlimited
	UsedCount   int                  `bson:"usedCount" json:"usedCount"`
	Active      bool                 `bson:"active" json:"active"`
	CreatedBy   primitive.ObjectID   `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// PublicCoupon is the client-facing shape for coupon listings, with internal
// targeting and usage bookkeeping stripped.
type PublicCoupon struct {
	Code        string       `json:"code"`
	Type        DiscountType `json:"type"`
	Value       float64      `json:"value"`
	MinOrder    float64      `json:"minOrder"`
	MaxDiscount float64      `json:"maxDiscount,omitempty"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	Label       string       `json:"label"`
}
