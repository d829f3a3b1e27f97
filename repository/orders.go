package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/urbankisan/backend-go/models"
)

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status models.OrderStatus
	Page   int64
	Limit  int64
}

type OrderRepository interface {
	// NextOrderCode reserves the next human-readable order code from the
	// atomic counter document.
	NextOrderCode(ctx context.Context) (string, error)
	// Create persists the order, decrements stock for every line item and
	// bumps the coupon usage counter, all in one transaction. A conditional
	// decrement that matches nothing aborts the whole transaction with
	// ErrInsufficientStock.
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByCode(ctx context.Context, code string) (*models.Order, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	// Update writes the order's mutable fields. Stock is untouched; use
	// Cancel for the cancellation path.
	Update(ctx context.Context, order *models.Order) error
	// Cancel writes the cancelled order and restores stock in one
	// transaction. The status write is guarded on the cancellable states so
	// a racing double-cancel restores stock at most once; a lost race
	// returns ErrConflict.
	Cancel(ctx context.Context, order *models.Order) error
	CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	FindDeliveredWithProduct(ctx context.Context, userID, productID primitive.ObjectID) (*models.Order, error)
	Stats(ctx context.Context) (*models.OrderStats, error)
}

type mongoOrderRepository struct {
	db *mongo.Database
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{db: db}
}

const orderCodePrefix = "UK"

func (r *mongoOrderRepository) NextOrderCode(ctx context.Context) (string, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.db.Collection("counters").FindOneAndUpdate(ctx,
		bson.M{"_id": "orderCode"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s%04d", orderCodePrefix, time.Now().Format("0601"), counter.Seq), nil
}

func (r *mongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		products := r.db.Collection("products")
		for _, item := range order.Items {
			res, err := products.UpdateOne(sc,
				bson.M{"_id": item.ProductID, "stock": bson.M{"$gte": item.Quantity}},
				bson.M{"$inc": bson.M{"stock": -item.Quantity}},
			)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, item.Name)
			}
		}

		if order.Discount != nil && order.Discount.Code != "" {
			_, err := r.db.Collection("coupons").UpdateOne(sc,
				bson.M{"code": order.Discount.Code},
				bson.M{"$inc": bson.M{"usedCount": 1}},
			)
			if err != nil {
				return nil, err
			}
		}

		if _, err := r.db.Collection("orders").InsertOne(sc, order); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

func (r *mongoOrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := r.db.Collection("orders").FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *mongoOrderRepository) FindByCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	err := r.db.Collection("orders").FindOne(ctx, bson.M{"orderCode": code}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *mongoOrderRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	cursor, err := r.db.Collection("orders").Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *mongoOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["orderStatus"] = filter.Status
	}

	coll := r.db.Collection("orders")
	total, err := coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	cursor, err := coll.Find(ctx, query, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page-1)*limit).
		SetLimit(limit),
	)
	if err != nil {
		return nil, 0, err
	}
	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *mongoOrderRepository) Update(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now()
	res, err := r.db.Collection("orders").ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoOrderRepository) Cancel(ctx context.Context, order *models.Order) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := r.db.Collection("orders").UpdateOne(sc,
			bson.M{
				"_id": order.ID,
				"orderStatus": bson.M{"$in": []models.OrderStatus{
					models.OrderStatusConfirmed,
					models.OrderStatusProcessing,
				}},
			},
			bson.M{"$set": bson.M{
				"orderStatus":      models.OrderStatusCancelled,
				"statusTimestamps": order.StatusTimestamps,
				"cancellation":     order.Cancellation,
				"refund":           order.Refund,
				"updatedAt":        time.Now(),
			}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, ErrConflict
		}

		products := r.db.Collection("products")
		for _, item := range order.Items {
			_, err := products.UpdateOne(sc,
				bson.M{"_id": item.ProductID},
				bson.M{"$inc": bson.M{"stock": item.Quantity}},
			)
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (r *mongoOrderRepository) CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.db.Collection("orders").CountDocuments(ctx, bson.M{"userId": userID})
}

func (r *mongoOrderRepository) FindDeliveredWithProduct(ctx context.Context, userID, productID primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := r.db.Collection("orders").FindOne(ctx, bson.M{
		"userId":          userID,
		"orderStatus":     models.OrderStatusDelivered,
		"items.productId": productID,
	}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *mongoOrderRepository) Stats(ctx context.Context) (*models.OrderStats, error) {
	cursor, err := r.db.Collection("orders").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":     "$orderStatus",
			"count":   bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$totalPrice"},
		}}},
	})
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Status  models.OrderStatus `bson:"_id"`
		Count   int64              `bson:"count"`
		Revenue float64            `bson:"revenue"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	stats := &models.OrderStats{CountByStatus: make(map[models.OrderStatus]int64)}
	for _, row := range rows {
		stats.CountByStatus[row.Status] = row.Count
		stats.TotalOrders += row.Count
		if row.Status != models.OrderStatusCancelled {
			stats.TotalRevenue += row.Revenue
		}
	}
	return stats, nil
}
