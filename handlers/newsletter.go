package handlers

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/urbankisan/backend-go/database"
	"github.com/urbankisan/backend-go/models"
)

func SubscribeNewsletter(c echo.Context) error {
	var req struct {
		Email string `json:"email" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return message(c, http.StatusBadRequest, "Invalid email format")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := database.DB.Collection("newsletter")

	// Re-subscribing is idempotent: an existing subscriber is reactivated.
	var existing models.NewsletterSubscriber
	err := collection.FindOne(ctx, bson.M{"email": email}).Decode(&existing)
	if err == nil {
		if !existing.Active {
			_, err = collection.UpdateOne(ctx,
				bson.M{"_id": existing.ID},
				bson.M{"$set": bson.M{"active": true, "subscribedAt": time.Now()}},
			)
			if err != nil {
				return message(c, http.StatusInternalServerError, "Failed to subscribe")
			}
		}
		return message(c, http.StatusOK, "Subscribed to newsletter")
	}
	if err != mongo.ErrNoDocuments {
		return message(c, http.StatusInternalServerError, "Failed to subscribe")
	}

	subscriber := models.NewsletterSubscriber{
		ID:               primitive.NewObjectID(),
		Email:            email,
		UnsubscribeToken: uuid.NewString(),
		Active:           true,
		SubscribedAt:     time.Now(),
	}
	if _, err := collection.InsertOne(ctx, subscriber); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return message(c, http.StatusOK, "Subscribed to newsletter")
		}
		return message(c, http.StatusInternalServerError, "Failed to subscribe")
	}
	return message(c, http.StatusCreated, "Subscribed to newsletter")
}

func UnsubscribeNewsletter(c echo.Context) error {
	token := c.Param("token")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := database.DB.Collection("newsletter").UpdateOne(ctx,
		bson.M{"unsubscribeToken": token},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to unsubscribe")
	}
	if res.MatchedCount == 0 {
		return message(c, http.StatusNotFound, "Invalid unsubscribe link")
	}
	return message(c, http.StatusOK, "Unsubscribed from newsletter")
}

func ListNewsletterSubscribers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("newsletter").Find(ctx,
		bson.M{"active": true},
		options.Find().SetSort(bson.D{{Key: "subscribedAt", Value: -1}}),
	)
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to fetch subscribers")
	}

	subscribers := []models.NewsletterSubscriber{}
	if err := cursor.All(ctx, &subscribers); err != nil {
		return message(c, http.StatusInternalServerError, "Failed to fetch subscribers")
	}
	return c.JSON(http.StatusOK, subscribers)
}
