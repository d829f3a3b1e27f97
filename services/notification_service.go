package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/urbankisan/backend-go/models"
	"github.com/urbankisan/backend-go/repository"
)

// userNotificationLimit caps the notification listing; the client polls the
// unread count and fetches this page on demand.
const userNotificationLimit = 50

// Notifier is the best-effort side channel order events publish through.
// Implementations must never fail the caller.
type Notifier interface {
	NotifyUser(ctx context.Context, userID primitive.ObjectID, title, message string, typ models.NotificationType)
}

type NotificationService interface {
	Notifier
	Create(ctx context.Context, n *models.Notification) (*models.Notification, *ServiceError)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.UserNotification, *ServiceError)
	UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, *ServiceError)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) *ServiceError
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) *ServiceError
	ListAll(ctx context.Context, page, limit int64) ([]models.Notification, int64, *ServiceError)
	Delete(ctx context.Context, id primitive.ObjectID) *ServiceError
}

type notificationService struct {
	repo   repository.NotificationRepository
	logger *zap.Logger
}

func NewNotificationService(repo repository.NotificationRepository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) Create(ctx context.Context, n *models.Notification) (*models.Notification, *ServiceError) {
	if n.Title == "" || n.Message == "" {
		return nil, errBadRequest("Title and message are required")
	}
	if n.Target != models.NotifyAll && n.Target != models.NotifySpecificUsers {
		return nil, errBadRequest("Invalid notification target")
	}
	if n.Target == models.NotifySpecificUsers && len(n.UserIDs) == 0 {
		return nil, errBadRequest("Target users are required for a targeted notification")
	}
	if n.Type == "" {
		n.Type = models.NotificationSystem
	}

	n.ID = primitive.NewObjectID()
	n.ReadBy = []primitive.ObjectID{}
	n.CreatedAt = time.Now()

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("failed to create notification", zap.Error(err))
		return nil, errInternal("Failed to create notification")
	}
	return n, nil
}

// NotifyUser emits a targeted notification and swallows any failure: order
// writes must succeed even when the side channel is down.
func (s *notificationService) NotifyUser(ctx context.Context, userID primitive.ObjectID, title, message string, typ models.NotificationType) {
	n := &models.Notification{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Message:   message,
		Type:      typ,
		Target:    models.NotifySpecificUsers,
		UserIDs:   []primitive.ObjectID{userID},
		ReadBy:    []primitive.ObjectID{},
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("notification emission failed",
			zap.String("userId", userID.Hex()),
			zap.String("title", title),
			zap.Error(err))
	}
}

func (s *notificationService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.UserNotification, *ServiceError) {
	notifications, err := s.repo.ListForUser(ctx, userID, userNotificationLimit)
	if err != nil {
		s.logger.Error("failed to list notifications", zap.Error(err))
		return nil, errInternal("Failed to fetch notifications")
	}

	result := make([]models.UserNotification, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, models.UserNotification{
			Notification: n,
			IsRead:       containsID(n.ReadBy, userID),
		})
	}
	return result, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, *ServiceError) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("failed to count unread notifications", zap.Error(err))
		return 0, errInternal("Failed to fetch unread count")
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID primitive.ObjectID) *ServiceError {
	err := s.repo.MarkRead(ctx, id, userID)
	if err == repository.ErrNotFound {
		return errNotFound("Notification not found")
	}
	if err != nil {
		s.logger.Error("failed to mark notification read", zap.Error(err))
		return errInternal("Failed to mark notification as read")
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) *ServiceError {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		s.logger.Error("failed to mark all notifications read", zap.Error(err))
		return errInternal("Failed to mark notifications as read")
	}
	return nil
}

func (s *notificationService) ListAll(ctx context.Context, page, limit int64) ([]models.Notification, int64, *ServiceError) {
	notifications, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		s.logger.Error("failed to list notifications", zap.Error(err))
		return nil, 0, errInternal("Failed to fetch notifications")
	}
	return notifications, total, nil
}

func (s *notificationService) Delete(ctx context.Context, id primitive.ObjectID) *ServiceError {
	err := s.repo.Delete(ctx, id)
	if err == repository.ErrNotFound {
		return errNotFound("Notification not found")
	}
	if err != nil {
		s.logger.Error("failed to delete notification", zap.Error(err))
		return errInternal("Failed to delete notification")
	}
	return nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
