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

func GetTeam(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("team").Find(ctx,
		bson.M{"isActive": true},
		options.Find().SetSort(bson.D{{Key: "displayOrder", Value: 1}}),
	)
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to fetch team")
	}

	members := []models.TeamMember{}
	if err := cursor.All(ctx, &members); err != nil {
		return message(c, http.StatusInternalServerError, "Failed to fetch team")
	}
	return c.JSON(http.StatusOK, members)
}

type teamMemberRequest struct {
	Name         string `json:"name" validate:"required"`
	Role         string `json:"role" validate:"required"`
	Photo        string `json:"photo"`
	DisplayOrder int    `json:"displayOrder"`
	IsActive     *bool  `json:"isActive"`
}

func CreateTeamMember(c echo.Context) error {
	var req teamMemberRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	member := models.TeamMember{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		Role:         req.Role,
		Photo:        req.Photo,
		DisplayOrder: req.DisplayOrder,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if req.IsActive != nil {
		member.IsActive = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := database.DB.Collection("team").InsertOne(ctx, member); err != nil {
		return message(c, http.StatusInternalServerError, "Failed to create team member")
	}
	return c.JSON(http.StatusCreated, member)
}

func UpdateTeamMember(c echo.Context) error {
	memberID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid member ID")
	}

	var req teamMemberRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	update := bson.M{
		"name":         req.Name,
		"role":         req.Role,
		"photo":        req.Photo,
		"displayOrder": req.DisplayOrder,
		"updatedAt":    time.Now(),
	}
	if req.IsActive != nil {
		update["isActive"] = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var member models.TeamMember
	err = database.DB.Collection("team").FindOneAndUpdate(ctx,
		bson.M{"_id": memberID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return message(c, http.StatusNotFound, "Team member not found")
		}
		return message(c, http.StatusInternalServerError, "Failed to update team member")
	}
	return c.JSON(http.StatusOK, member)
}

func DeleteTeamMember(c echo.Context) error {
	memberID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid member ID")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := database.DB.Collection("team").DeleteOne(ctx, bson.M{"_id": memberID})
	if err != nil {
		return message(c, http.StatusInternalServerError, "Failed to delete team member")
	}
	if res.DeletedCount == 0 {
		return message(c, http.StatusNotFound, "Team member not found")
	}
	return message(c, http.StatusOK, "Team member deleted")
}
