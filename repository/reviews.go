package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/urbankisan/backend-go/models"
)

type ReviewRepository interface {
	// Create returns ErrDuplicate when the (user, product, order) unique
	// index rejects the insert.
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
	Exists(ctx context.Context, userID, productID, orderID primitive.ObjectID) (bool, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, page, limit int64) ([]models.Review, int64, error)
	// Vote applies one vote mutation as a single update: addField gains the
	// user (when non-empty) and removeField loses them (when non-empty).
	// Returns the review after the update.
	Vote(ctx context.Context, id, userID primitive.ObjectID, addField, removeField string) (*models.Review, error)
	// Aggregate computes the average rating and review count for a product.
	Aggregate(ctx context.Context, productID primitive.ObjectID) (float64, int, error)
}

type mongoReviewRepository struct {
	db *mongo.Database
}

func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &mongoReviewRepository{db: db}
}

func (r *mongoReviewRepository) Create(ctx context.Context, review *models.Review) error {
	_, err := r.db.Collection("reviews").InsertOne(ctx, review)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *mongoReviewRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var review models.Review
	err := r.db.Collection("reviews").FindOne(ctx, bson.M{"_id": id}).Decode(&review)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *mongoReviewRepository) FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	cursor, err := r.db.Collection("reviews").Find(ctx,
		bson.M{"productId": productID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *mongoReviewRepository) Exists(ctx context.Context, userID, productID, orderID primitive.ObjectID) (bool, error) {
	count, err := r.db.Collection("reviews").CountDocuments(ctx, bson.M{
		"userId":    userID,
		"productId": productID,
		"orderId":   orderID,
	})
	return count > 0, err
}

func (r *mongoReviewRepository) Update(ctx context.Context, review *models.Review) error {
	review.UpdatedAt = time.Now()
	res, err := r.db.Collection("reviews").ReplaceOne(ctx, bson.M{"_id": review.ID}, review)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.db.Collection("reviews").DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoReviewRepository) List(ctx context.Context, page, limit int64) ([]models.Review, int64, error) {
	coll := r.db.Collection("reviews")
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
	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *mongoReviewRepository) Vote(ctx context.Context, id, userID primitive.ObjectID, addField, removeField string) (*models.Review, error) {
	update := bson.M{}
	if addField != "" {
		update["$addToSet"] = bson.M{addField: userID}
	}
	if removeField != "" {
		update["$pull"] = bson.M{removeField: userID}
	}

	var review models.Review
	err := r.db.Collection("reviews").FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&review)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *mongoReviewRepository) Aggregate(ctx context.Context, productID primitive.ObjectID) (float64, int, error) {
	cursor, err := r.db.Collection("reviews").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":    nil,
			"avg":    bson.M{"$avg": "$rating"},
			"count":  bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return 0, 0, err
	}

	var rows []struct {
		Avg   float64 `bson:"avg"`
		Count int     `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Avg, rows[0].Count, nil
}
