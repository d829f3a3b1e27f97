package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/urbankisan/backend-go/database"
	"github.com/urbankisan/backend-go/models"
)

func GetProducts(c echo.Context) error {
	filter := bson.M{"isActive": true}
	if category := c.QueryParam("category"); category != "" {
		if !models.ValidCategory(models.ProductCategory(category)) {
			return message(c, http.StatusBadRequest, "Invalid category")
		}
		filter["category"] = category
	}
	if c.QueryParam("featured") == "true" {
		filter["isFeatured"] = true
	}
	if search := c.QueryParam("search"); search != "" {
		filter["name"] = bson.M{"$regex": search, "$options": "i"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("products").Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to fetch products")
	}

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return message(c, http.StatusInternalServerError, "Failed to fetch products")
	}
	return c.JSON(http.StatusOK, products)
}

func GetProduct(c echo.Context) error {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid product ID")
	}

	var product models.Product
	err = database.DB.Collection("products").FindOne(c.Request().Context(), bson.M{"_id": objID}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return message(c, http.StatusNotFound, "Product not found")
		}
		return message(c, http.StatusInternalServerError, "Failed to fetch product")
	}
	return c.JSON(http.StatusOK, product)
}

type productRequest struct {
	Name          string                 `json:"name" validate:"required"`
	Description   string                 `json:"description"`
	Price         float64                `json:"price" validate:"required,gt=0"`
	Category      models.ProductCategory `json:"category" validate:"required"`
	Stock         int                    `json:"stock" validate:"gte=0"`
	Images        []string               `json:"images"`
	IsFeatured    bool                   `json:"isFeatured"`
	Weight        string                 `json:"weight"`
	WeightOptions []string               `json:"weightOptions"`
	IsActive      *bool                  `json:"isActive"`
}

func CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if !models.ValidCategory(req.Category) {
		return message(c, http.StatusBadRequest, "Invalid category")
	}

	product := models.Product{
		ID:            primitive.NewObjectID(),
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Category:      req.Category,
		Stock:         req.Stock,
		Images:        req.Images,
		IsFeatured:    req.IsFeatured,
		Weight:        req.Weight,
		WeightOptions: req.WeightOptions,
		IsActive:      true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := database.DB.Collection("products").InsertOne(ctx, product); err != nil {
		return message(c, http.StatusInternalServerError, "Failed to create product")
	}
	return c.JSON(http.StatusCreated, product)
}

func UpdateProduct(c echo.Context) error {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid product ID")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if !models.ValidCategory(req.Category) {
		return message(c, http.StatusBadRequest, "Invalid category")
	}

	// Rating and numReviews are derived fields; admin edits never touch them.
	update := bson.M{
		"name":          req.Name,
		"description":   req.Description,
		"price":         req.Price,
		"category":      req.Category,
		"stock":         req.Stock,
		"images":        req.Images,
		"isFeatured":    req.IsFeatured,
		"weight":        req.Weight,
		"weightOptions": req.WeightOptions,
		"updatedAt":     time.Now(),
	}
	if req.IsActive != nil {
		update["isActive"] = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var product models.Product
	err = database.DB.Collection("products").FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return message(c, http.StatusNotFound, "Product not found")
		}
		return message(c, http.StatusInternalServerError, "Failed to update product")
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct deactivates rather than removes so existing orders keep a
// resolvable product reference.
func DeleteProduct(c echo.Context) error {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid product ID")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := database.DB.Collection("products").UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}},
	)
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to delete product")
	}
	if res.MatchedCount == 0 {
		return message(c, http.StatusNotFound, "Product not found")
	}
	return message(c, http.StatusOK, "Product deactivated")
}
