package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/urbankisan/backend-go/middleware"
	"github.com/urbankisan/backend-go/models"
	"github.com/urbankisan/backend-go/services"
)

type NotificationHandler struct {
	svc services.NotificationService
}

func NewNotificationHandler(svc services.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) ListForUser(c echo.Context) error {
	notifications, svcErr := h.svc.ListForUser(c.Request().Context(), middleware.UserID(c))
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	count, svcErr := h.svc.UnreadCount(c.Request().Context(), middleware.UserID(c))
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, map[string]int64{"count": count})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	notificationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid notification ID")
	}

	if svcErr := h.svc.MarkRead(c.Request().Context(), notificationID, middleware.UserID(c)); svcErr != nil {
		return serviceError(c, svcErr)
	}
	return message(c, http.StatusOK, "Notification marked as read")
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	if svcErr := h.svc.MarkAllRead(c.Request().Context(), middleware.UserID(c)); svcErr != nil {
		return serviceError(c, svcErr)
	}
	return message(c, http.StatusOK, "All notifications marked as read")
}

func (h *NotificationHandler) Create(c echo.Context) error {
	var req struct {
		Title   string                    `json:"title" validate:"required"`
		Message string                    `json:"message" validate:"required"`
		Type    models.NotificationType   `json:"type"`
		Target  models.NotificationTarget `json:"target" validate:"required"`
		UserIDs []string                  `json:"userIds"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	userIDs := make([]primitive.ObjectID, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return message(c, http.StatusBadRequest, "Invalid user ID")
		}
		userIDs = append(userIDs, id)
	}

	notification, svcErr := h.svc.Create(c.Request().Context(), &models.Notification{
		Title:    req.Title,
		Message:  req.Message,
		Type:     req.Type,
		Target:   req.Target,
		UserIDs:  userIDs,
		SenderID: middleware.UserID(c),
	})
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusCreated, notification)
}

func (h *NotificationHandler) List(c echo.Context) error {
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)

	notifications, total, svcErr := h.svc.ListAll(c.Request().Context(), page, limit)
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"total":         total,
	})
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	notificationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid notification ID")
	}

	if svcErr := h.svc.Delete(c.Request().Context(), notificationID); svcErr != nil {
		return serviceError(c, svcErr)
	}
	return message(c, http.StatusOK, "Notification deleted")
}
