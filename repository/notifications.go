package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/urbankisan/backend-go/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	// ListForUser returns broadcasts plus notifications targeted at the
	// user, newest first, capped at limit.
	ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	// MarkRead is idempotent: readBy is a set.
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) error
	List(ctx context.Context, page, limit int64) ([]models.Notification, int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type mongoNotificationRepository struct {
	db *mongo.Database
}

func NewNotificationRepository(db *mongo.Database) NotificationRepository {
	return &mongoNotificationRepository{db: db}
}

func forUserFilter(userID primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"target": models.NotifyAll},
		bson.M{"userIds": userID},
	}}
}

func (r *mongoNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	_, err := r.db.Collection("notifications").InsertOne(ctx, n)
	return err
}

func (r *mongoNotificationRepository) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Notification, error) {
	cursor, err := r.db.Collection("notifications").Find(ctx,
		forUserFilter(userID),
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *mongoNotificationRepository) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	filter := forUserFilter(userID)
	filter["readBy"] = bson.M{"$ne": userID}
	return r.db.Collection("notifications").CountDocuments(ctx, filter)
}

func (r *mongoNotificationRepository) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := r.db.Collection("notifications").UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"readBy": userID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoNotificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	filter := forUserFilter(userID)
	filter["readBy"] = bson.M{"$ne": userID}
	_, err := r.db.Collection("notifications").UpdateMany(ctx, filter,
		bson.M{"$addToSet": bson.M{"readBy": userID}},
	)
	return err
}

func (r *mongoNotificationRepository) List(ctx context.Context, page, limit int64) ([]models.Notification, int64, error) {
	coll := r.db.Collection("notifications")
	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	cursor, err := coll.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page-1)*limit).
		SetLimit(limit),
	)
	if err != nil {
		return nil, 0, err
	}
	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *mongoNotificationRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.db.Collection("notifications").DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
