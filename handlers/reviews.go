package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/urbankisan/backend-go/database"
	"github.com/urbankisan/backend-go/middleware"
	"github.com/urbankisan/backend-go/models"
	"github.com/urbankisan/backend-go/services"
)

type ReviewHandler struct {
	svc services.ReviewService
}

func NewReviewHandler(svc services.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

func (h *ReviewHandler) Create(c echo.Context) error {
	var req struct {
		ProductID string `json:"productId" validate:"required"`
		OrderID   string `json:"orderId" validate:"required"`
		Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
		Comment   string `json:"comment"`
	}
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
	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid order ID")
	}

	userID := middleware.UserID(c)

	// Snapshot the reviewer's display name so listing reviews needs no join.
	var user models.User
	_ = database.DB.Collection("users").FindOne(c.Request().Context(), bson.M{"_id": userID}).Decode(&user)

	review, svcErr := h.svc.Create(c.Request().Context(), services.CreateReviewInput{
		UserID:    userID,
		UserName:  user.Name,
		ProductID: productID,
		OrderID:   orderID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) ListByProduct(c echo.Context) error {
	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid product ID")
	}

	reviews, svcErr := h.svc.ListByProduct(c.Request().Context(), productID, middleware.UserID(c))
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) CanReview(c echo.Context) error {
	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid product ID")
	}

	result, svcErr := h.svc.CanReview(c.Request().Context(), middleware.UserID(c), productID)
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *ReviewHandler) Update(c echo.Context) error {
	reviewID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid review ID")
	}

	var req struct {
		Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	review, svcErr := h.svc.Update(c.Request().Context(), reviewID, middleware.UserID(c), req.Rating, req.Comment)
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) Upvote(c echo.Context) error {
	return h.vote(c, true)
}

func (h *ReviewHandler) Downvote(c echo.Context) error {
	return h.vote(c, false)
}

func (h *ReviewHandler) vote(c echo.Context, up bool) error {
	reviewID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid review ID")
	}

	state, svcErr := h.svc.Vote(c.Request().Context(), reviewID, middleware.UserID(c), up)
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *ReviewHandler) List(c echo.Context) error {
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)

	reviews, total, svcErr := h.svc.List(c.Request().Context(), page, limit)
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"total":   total,
	})
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	reviewID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid review ID")
	}

	if svcErr := h.svc.Delete(c.Request().Context(), reviewID); svcErr != nil {
		return serviceError(c, svcErr)
	}
	return message(c, http.StatusOK, "Review deleted")
}

func (h *ReviewHandler) Votes(c echo.Context) error {
	reviewID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid review ID")
	}

	review, svcErr := h.svc.Votes(c.Request().Context(), reviewID)
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"upvotes":   review.Upvotes,
		"downvotes": review.Downvotes,
	})
}
