package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/urbankisan/backend-go/database"
	"github.com/urbankisan/backend-go/middleware"
	"github.com/urbankisan/backend-go/models"
)

func GetCart(c echo.Context) error {
	userID := middleware.UserID(c)

	cart, err := database.Carts.GetCart(c.Request().Context(), userID.Hex())
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to fetch cart")
	}
	return c.JSON(http.StatusOK, cart)
}

type addToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

func AddToCart(c echo.Context) error {
	userID := middleware.UserID(c)

	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid product ID")
	}

	ctx := c.Request().Context()

	var product models.Product
	err = database.DB.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return message(c, http.StatusNotFound, "Product not found")
	}
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to fetch product")
	}
	if !product.IsActive {
		return message(c, http.StatusBadRequest, "Product is no longer available")
	}
	if product.Stock < 1 {
		return message(c, http.StatusBadRequest, "Product is out of stock")
	}

	cart, err := database.Carts.GetCart(ctx, userID.Hex())
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to fetch cart")
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == req.ProductID {
			cart.Items[i].Quantity += req.Quantity
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		})
	}

	if err := database.Carts.SaveCart(ctx, cart); err != nil {
		return message(c, http.StatusInternalServerError, "Failed to save cart")
	}
	return c.JSON(http.StatusOK, cart)
}

func UpdateCartQuantity(c echo.Context) error {
	userID := middleware.UserID(c)

	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	cart, err := database.Carts.GetCart(ctx, userID.Hex())
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to fetch cart")
	}

	for i := range cart.Items {
		if cart.Items[i].ProductID == req.ProductID {
			cart.Items[i].Quantity = req.Quantity
			if err := database.Carts.SaveCart(ctx, cart); err != nil {
				return message(c, http.StatusInternalServerError, "Failed to save cart")
			}
			return c.JSON(http.StatusOK, cart)
		}
	}
	return message(c, http.StatusNotFound, "Item not found in cart")
}

func RemoveFromCart(c echo.Context) error {
	userID := middleware.UserID(c)
	productID := c.Param("productId")

	ctx := c.Request().Context()
	cart, err := database.Carts.GetCart(ctx, userID.Hex())
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to fetch cart")
	}

	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			if err := database.Carts.SaveCart(ctx, cart); err != nil {
				return message(c, http.StatusInternalServerError, "Failed to save cart")
			}
			return c.JSON(http.StatusOK, cart)
		}
	}
	return message(c, http.StatusNotFound, "Item not found in cart")
}

func ClearCart(c echo.Context) error {
	userID := middleware.UserID(c)

	if err := database.Carts.DeleteCart(c.Request().Context(), userID.Hex()); err != nil {
		return message(c, http.StatusInternalServerError, "Failed to clear cart")
	}
	return message(c, http.StatusOK, "Cart cleared")
}
