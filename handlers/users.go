package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/urbankisan/backend-go/database"
	"github.com/urbankisan/backend-go/middleware"
	"github.com/urbankisan/backend-go/models"
)

func GetProfile(c echo.Context) error {
	userID := middleware.UserID(c)

	var user models.User
	err := database.DB.Collection("users").FindOne(
		c.Request().Context(),
		bson.M{"_id": userID},
	).Decode(&user)
	if err != nil {
		return message(c, http.StatusNotFound, "User not found")
	}

	user.Password = ""
	return c.JSON(http.StatusOK, user)
}

func UpdateProfile(c echo.Context) error {
	userID := middleware.UserID(c)

	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}

	update := bson.M{"updatedAt": time.Now()}
	if req.Name != "" {
		update["name"] = req.Name
	}
	if req.Phone != "" {
		update["phone"] = req.Phone
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := database.DB.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": update},
	)
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to update profile")
	}
	return GetProfile(c)
}

func GetAddresses(c echo.Context) error {
	userID := middleware.UserID(c)

	var user models.User
	err := database.DB.Collection("users").FindOne(
		c.Request().Context(),
		bson.M{"_id": userID},
	).Decode(&user)
	if err != nil {
		return message(c, http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusOK, user.Addresses)
}

func AddAddress(c echo.Context) error {
	userID := middleware.UserID(c)

	var address models.Address
	if err := c.Bind(&address); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if address.Street == "" || address.City == "" || address.PostalCode == "" {
		return message(c, http.StatusBadRequest, "Street, city and postal code are required")
	}
	address.ID = primitive.NewObjectID()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.M{
		"$push": bson.M{"addresses": address},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	res, err := database.DB.Collection("users").UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to add address")
	}
	if res.MatchedCount == 0 {
		return message(c, http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusCreated, address)
}

func UpdateAddress(c echo.Context) error {
	userID := middleware.UserID(c)
	addressID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid address ID")
	}

	var address models.Address
	if err := c.Bind(&address); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	address.ID = addressID

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := database.DB.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userID, "addresses._id": addressID},
		bson.M{"$set": bson.M{
			"addresses.$": address,
			"updatedAt":   time.Now(),
		}},
	)
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to update address")
	}
	if res.MatchedCount == 0 {
		return message(c, http.StatusNotFound, "Address not found")
	}
	return c.JSON(http.StatusOK, address)
}

func DeleteAddress(c echo.Context) error {
	userID := middleware.UserID(c)
	addressID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid address ID")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := database.DB.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$pull": bson.M{"addresses": bson.M{"_id": addressID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to delete address")
	}
	if res.ModifiedCount == 0 {
		return message(c, http.StatusNotFound, "Address not found")
	}
	return message(c, http.StatusOK, "Address deleted")
}
