package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductCategory string

const (
	CategoryVegetables ProductCategory = "vegetables"
	CategoryFruits     ProductCategory = "fruits"
	CategoryGrains     ProductCategory = "grains"
	CategoryPulses     ProductCategory = "pulses"
	CategorySpices     ProductCategory = "spices"
	CategoryDairy      ProductCategory = "dairy"
	CategoryOther      ProductCategory = "other"
)

// ValidCategory reports whether c is one of the known product categories.
func ValidCategory(c ProductCategory) bool {
	switch c {
	case CategoryVegetables, CategoryFruits, CategoryGrains, CategoryPulses,
		CategorySpices, CategoryDairy, CategoryOther:
		return true
	}
	return false
}

type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description" json:"description"`
	Price         float64            `bson:"price" json:"price"` // price per base unit, in rupees
	Category      ProductCategory    `bson:"category" json:"category"`
	Stock         int                `bson:"stock" json:"stock"`
	Rating        float64            `bson:"rating" json:"rating"`     // derived from reviews
	NumReviews    int                `bson:"numReviews" json:"numReviews"` // derived from reviews
	Images        []string           `bson:"images" json:"images"`
	IsFeatured    bool               `bson:"isFeatured" json:"isFeatured"`
	Weight        string             `bson:"weight" json:"weight"` // display-only unit string, e.g. "500g"
	WeightOptions []string           `bson:"weightOptions,omitempty" json:"weightOptions,omitempty"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
