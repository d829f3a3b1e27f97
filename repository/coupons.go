package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/urbankisan/backend-go/models"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error)
	// FindByCode normalizes the code (trim + upper-case) before lookup.
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	// ListActive returns active coupons that have not expired as of now.
	ListActive(ctx context.Context, now time.Time) ([]models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// NormalizeCouponCode is the canonical form coupon codes are stored and
// looked up in.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type mongoCouponRepository struct {
	db *mongo.Database
}

func NewCouponRepository(db *mongo.Database) CouponRepository {
	return &mongoCouponRepository{db: db}
}

func (r *mongoCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	coupon.Code = NormalizeCouponCode(coupon.Code)
	_, err := r.db.Collection("coupons").InsertOne(ctx, coupon)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *mongoCouponRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.Collection("coupons").FindOne(ctx, bson.M{"_id": id}).Decode(&coupon)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *mongoCouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.Collection("coupons").FindOne(ctx, bson.M{"code": NormalizeCouponCode(code)}).Decode(&coupon)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *mongoCouponRepository) List(ctx context.Context) ([]models.Coupon, error) {
	cursor, err := r.db.Collection("coupons").Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var coupons []models.Coupon
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *mongoCouponRepository) ListActive(ctx context.Context, now time.Time) ([]models.Coupon, error) {
	cursor, err := r.db.Collection("coupons").Find(ctx, bson.M{
		"active":    true,
		"expiresAt": bson.M{"$gt": now},
	})
	if err != nil {
		return nil, err
	}
	var coupons []models.Coupon
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *mongoCouponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	coupon.Code = NormalizeCouponCode(coupon.Code)
	coupon.UpdatedAt = time.Now()
	res, err := r.db.Collection("coupons").ReplaceOne(ctx, bson.M{"_id": coupon.ID}, coupon)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoCouponRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.db.Collection("coupons").DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
