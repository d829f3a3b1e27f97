package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/urbankisan/backend-go/database"
	"github.com/urbankisan/backend-go/models"
)

// defaultSettings is served until an admin writes the singleton.
func defaultSettings() models.Settings {
	return models.Settings{
		Key:                   models.SettingsKey,
		ShippingCharge:        40,
		FreeShippingThreshold: 500,
		PaymentMethods: []models.PaymentMethodOption{
			{Key: models.PaymentCOD, Label: "Cash on Delivery", Enabled: true},
			{Key: models.PaymentUPI, Label: "UPI", Enabled: true},
			{Key: models.PaymentOnline, Label: "Online Payment", Enabled: false},
		},
	}
}

func GetSettings(c echo.Context) error {
	var settings models.Settings
	err := database.DB.Collection("settings").FindOne(
		c.Request().Context(),
		bson.M{"key": models.SettingsKey},
	).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		return c.JSON(http.StatusOK, defaultSettings())
	}
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to fetch settings")
	}
	return c.JSON(http.StatusOK, settings)
}

func UpdateSettings(c echo.Context) error {
	var settings models.Settings
	if err := c.Bind(&settings); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if settings.ShippingCharge < 0 || settings.FreeShippingThreshold < 0 || settings.ExpressDeliveryCharge < 0 {
		return message(c, http.StatusBadRequest, "Charges cannot be negative")
	}

	settings.Key = models.SettingsKey
	settings.UpdatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := database.DB.Collection("settings").ReplaceOne(ctx,
		bson.M{"key": models.SettingsKey},
		settings,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to update settings")
	}
	return c.JSON(http.StatusOK, settings)
}
