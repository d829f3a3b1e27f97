package handlers

import (
	"context"
	"net/http"
	"net/mail"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/urbankisan/backend-go/database"
	"github.com/urbankisan/backend-go/models"
)

func CreateContactQuery(c echo.Context) error {
	var req struct {
		Name    string `json:"name" validate:"required"`
		Email   string `json:"email" validate:"required"`
		Subject string `json:"subject" validate:"required"`
		Message string `json:"message" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return message(c, http.StatusBadRequest, "Invalid email format")
	}

	query := models.ContactQuery{
		ID:        primitive.NewObjectID(),
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		Status:    models.ContactNew,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := database.DB.Collection("contacts").InsertOne(ctx, query); err != nil {
		return message(c, http.StatusInternalServerError, "Failed to submit query")
	}
	return c.JSON(http.StatusCreated, query)
}

func ListContactQueries(c echo.Context) error {
	filter := bson.M{}
	if status := c.QueryParam("status"); status != "" {
		filter["status"] = status
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("contacts").Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to fetch queries")
	}

	queries := []models.ContactQuery{}
	if err := cursor.All(ctx, &queries); err != nil {
		return message(c, http.StatusInternalServerError, "Failed to fetch queries")
	}
	return c.JSON(http.StatusOK, queries)
}

func RespondContactQuery(c echo.Context) error {
	queryID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid query ID")
	}

	var req struct {
		Response string `json:"response" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var query models.ContactQuery
	err = database.DB.Collection("contacts").FindOneAndUpdate(ctx,
		bson.M{"_id": queryID},
		bson.M{"$set": bson.M{
			"status":    models.ContactResponded,
			"response":  req.Response,
			"updatedAt": time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&query)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return message(c, http.StatusNotFound, "Query not found")
		}
		return message(c, http.StatusInternalServerError, "Failed to respond to query")
	}
	return c.JSON(http.StatusOK, query)
}

func DeleteContactQuery(c echo.Context) error {
	queryID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid query ID")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := database.DB.Collection("contacts").DeleteOne(ctx, bson.M{"_id": queryID})
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to delete query")
	}
	if res.DeletedCount == 0 {
		return message(c, http.StatusNotFound, "Query not found")
	}
	return message(c, http.StatusOK, "Query deleted")
}
