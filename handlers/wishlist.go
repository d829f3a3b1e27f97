package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/urbankisan/backend-go/database"
	"github.com/urbankisan/backend-go/middleware"
)

func GetWishlist(c echo.Context) error {
	userID := middleware.UserID(c)

	productIDs, err := database.Carts.GetWishlist(c.Request().Context(), userID.Hex())
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to fetch wishlist")
	}
	if productIDs == nil {
		productIDs = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"productIds": productIDs})
}

func AddToWishlist(c echo.Context) error {
	userID := middleware.UserID(c)

	var req struct {
		ProductID string `json:"productId" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if _, err := primitive.ObjectIDFromHex(req.ProductID); err != nil {
		return message(c, http.StatusBadRequest, "Invalid product ID")
	}

	if err := database.Carts.AddToWishlist(c.Request().Context(), userID.Hex(), req.ProductID); err != nil {
		return message(c, http.StatusInternalServerError, "Failed to update wishlist")
	}
	return message(c, http.StatusOK, "Added to wishlist")
}

func RemoveFromWishlist(c echo.Context) error {
	userID := middleware.UserID(c)

	if err := database.Carts.RemoveFromWishlist(c.Request().Context(), userID.Hex(), c.Param("productId")); err != nil {
		return message(c, http.StatusInternalServerError, "Failed to update wishlist")
	}
	return message(c, http.StatusOK, "Removed from wishlist")
}
