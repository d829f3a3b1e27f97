package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/urbankisan/backend-go/models"
	"github.com/urbankisan/backend-go/services"
)

type couponFixture struct {
	svc     services.CouponService
	coupons *mockCouponRepo
	orders  *mockOrderRepo
}

func newCouponFixture() *couponFixture {
	products := newMockProductRepo()
	coupons := newMockCouponRepo()
	orders := newMockOrderRepo(products, coupons)
	return &couponFixture{
		svc:     services.NewCouponService(coupons, orders, zap.NewNop()),
		coupons: coupons,
		orders:  orders,
	}
}

func (f *couponFixture) seed(c models.Coupon) *models.Coupon {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Target == "" {
		c.Target = models.TargetAll
	}
	if c.ExpiresAt.IsZero() {
		c.ExpiresAt = time.Now().Add(24 * time.Hour)
	}
	_ = f.coupons.Create(context.Background(), &c)
	return f.coupons.coupons[c.Code]
}

func TestValidatePercentCouponCapsAtMaxDiscount(t *testing.T) {
	f := newCouponFixture()
	f.seed(models.Coupon{Code: "SAVE10", Type: models.DiscountPercent, Value: 10, MaxDiscount: 100, Active: true})

	result, svcErr := f.svc.Validate(context.Background(), "SAVE10", 2000, primitive.NewObjectID())
	require.Nil(t, svcErr)
	assert.Equal(t, 100.0, result.Discount) // 200 uncapped, clamped to 100
	assert.Equal(t, "10% off", result.Label)

	result, svcErr = f.svc.Validate(context.Background(), "SAVE10", 500, primitive.NewObjectID())
	require.Nil(t, svcErr)
	assert.Equal(t, 50.0, result.Discount)
}

func TestValidatePercentCouponRoundsToNearestRupee(t *testing.T) {
	f := newCouponFixture()
	f.seed(models.Coupon{Code: "SAVE10", Type: models.DiscountPercent, Value: 10, Active: true})

	result, svcErr := f.svc.Validate(context.Background(), "SAVE10", 255, primitive.NewObjectID())
	require.Nil(t, svcErr)
	assert.Equal(t, 26.0, result.Discount) // 25.5 rounds up
}

func TestValidateFlatCoupon(t *testing.T) {
	f := newCouponFixture()
	f.seed(models.Coupon{Code: "FLAT50", Type: models.DiscountFlat, Value: 50, MinOrder: 300, Active: true})

	result, svcErr := f.svc.Validate(context.Background(), "FLAT50", 350, primitive.NewObjectID())
	require.Nil(t, svcErr)
	assert.Equal(t, 50.0, result.Discount)
	assert.Equal(t, "₹50 off", result.Label)
}

func TestValidateNormalizesCode(t *testing.T) {
	f := newCouponFixture()
	f.seed(models.Coupon{Code: "SAVE10", Type: models.DiscountPercent, Value: 10, Active: true})

	result, svcErr := f.svc.Validate(context.Background(), "  save10 ", 1000, primitive.NewObjectID())
	require.Nil(t, svcErr)
	assert.Equal(t, "SAVE10", result.Code)
}

func TestValidateRejections(t *testing.T) {
	f := newCouponFixture()
	userID := primitive.NewObjectID()

	f.seed(models.Coupon{Code: "INACTIVE", Type: models.DiscountFlat, Value: 50, Active: false})
	f.seed(models.Coupon{Code: "EXPIRED", Type: models.DiscountFlat, Value: 50, Active: true,
		ExpiresAt: time.Now().Add(-time.Hour)})
	f.seed(models.Coupon{Code: "EXHAUSTED", Type: models.DiscountFlat, Value: 50, Active: true,
		UsageLimit: 5, UsedCount: 5})
	f.seed(models.Coupon{Code: "BIGCART", Type: models.DiscountFlat, Value: 50, MinOrder: 500, Active: true})

	cases := []struct {
		code    string
		message string
	}{
		{"MISSING", "Invalid coupon code"},
		{"INACTIVE", "This coupon is no longer active"},
		{"EXPIRED", "This coupon has expired"},
		{"EXHAUSTED", "This coupon has reached its usage limit"},
		{"BIGCART", "Minimum order of ₹500 required for this coupon"},
	}
	for _, tc := range cases {
		_, svcErr := f.svc.Validate(context.Background(), tc.code, 400, userID)
		require.NotNil(t, svcErr, tc.code)
		assert.Equal(t, 400, svcErr.StatusCode, tc.code)
		assert.Equal(t, tc.message, svcErr.Message, tc.code)
	}
}

func TestValidateNewUserTargeting(t *testing.T) {
	f := newCouponFixture()
	f.seed(models.Coupon{Code: "WELCOME", Type: models.DiscountPercent, Value: 20, Active: true,
		Target: models.TargetNewUsers})

	newUser := primitive.NewObjectID()
	_, svcErr := f.svc.Validate(context.Background(), "WELCOME", 1000, newUser)
	require.Nil(t, svcErr)

	returning := primitive.NewObjectID()
	prior := models.Order{
		ID: primitive.NewObjectID(), UserID: returning,
		OrderStatus: models.OrderStatusDelivered,
	}
	f.orders.orders[prior.ID] = prior
	_, svcErr = f.svc.Validate(context.Background(), "WELCOME", 1000, returning)
	require.NotNil(t, svcErr)
	assert.Equal(t, "This coupon is not available for your account", svcErr.Message)
}

func TestValidateSpecificUserTargeting(t *testing.T) {
	f := newCouponFixture()
	invited := primitive.NewObjectID()
	f.seed(models.Coupon{Code: "VIP", Type: models.DiscountFlat, Value: 100, Active: true,
		Target: models.TargetSpecificUsers, TargetUsers: []primitive.ObjectID{invited}})

	_, svcErr := f.svc.Validate(context.Background(), "VIP", 1000, invited)
	require.Nil(t, svcErr)

	_, svcErr = f.svc.Validate(context.Background(), "VIP", 1000, primitive.NewObjectID())
	require.NotNil(t, svcErr)
	assert.Equal(t, "This coupon is not available for your account", svcErr.Message)
}

func TestCreateCouponValidation(t *testing.T) {
	f := newCouponFixture()
	future := time.Now().Add(24 * time.Hour)

	cases := []struct {
		name    string
		coupon  models.Coupon
		message string
	}{
		{"blank code", models.Coupon{Code: " ", Type: models.DiscountFlat, Value: 50, ExpiresAt: future},
			"Coupon code is required"},
		{"bad type", models.Coupon{Code: "X", Type: "bogo", Value: 50, ExpiresAt: future},
			"Coupon type must be percent or flat"},
		{"zero value", models.Coupon{Code: "X", Type: models.DiscountFlat, Value: 0, ExpiresAt: future},
			"Coupon value must be positive"},
		{"percent over 100", models.Coupon{Code: "X", Type: models.DiscountPercent, Value: 150, ExpiresAt: future},
			"Percentage discount cannot exceed 100"},
		{"specific without users", models.Coupon{Code: "X", Type: models.DiscountFlat, Value: 50,
			Target: models.TargetSpecificUsers, ExpiresAt: future},
			"Target users are required for a user-specific coupon"},
		{"past expiry", models.Coupon{Code: "X", Type: models.DiscountFlat, Value: 50,
			ExpiresAt: time.Now().Add(-time.Hour)},
			"Expiry date must be in the future"},
	}
	for _, tc := range cases {
		coupon := tc.coupon
		_, svcErr := f.svc.Create(context.Background(), &coupon)
		require.NotNil(t, svcErr, tc.name)
		assert.Equal(t, tc.message, svcErr.Message, tc.name)
	}
}

func TestCreateCouponDuplicateCode(t *testing.T) {
	f := newCouponFixture()
	future := time.Now().Add(24 * time.Hour)

	first := &models.Coupon{Code: "SAVE10", Type: models.DiscountPercent, Value: 10, ExpiresAt: future, Active: true}
	_, svcErr := f.svc.Create(context.Background(), first)
	require.Nil(t, svcErr)

	second := &models.Coupon{Code: "save10", Type: models.DiscountFlat, Value: 25, ExpiresAt: future, Active: true}
	_, svcErr = f.svc.Create(context.Background(), second)
	require.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
	assert.Equal(t, "Coupon code already exists", svcErr.Message)
}

func TestCreateCouponResetsUsage(t *testing.T) {
	f := newCouponFixture()

	coupon := &models.Coupon{Code: "FRESH", Type: models.DiscountFlat, Value: 25,
		ExpiresAt: time.Now().Add(24 * time.Hour), Active: true, UsedCount: 7}
	created, svcErr := f.svc.Create(context.Background(), coupon)
	require.Nil(t, svcErr)
	assert.Equal(t, 0, created.UsedCount)
	assert.Equal(t, models.TargetAll, created.Target)
}

func TestListActiveForSkipsExhaustedAndIneligible(t *testing.T) {
	f := newCouponFixture()
	invited := primitive.NewObjectID()

	f.seed(models.Coupon{Code: "OPEN", Type: models.DiscountPercent, Value: 10, Active: true})
	f.seed(models.Coupon{Code: "USEDUP", Type: models.DiscountFlat, Value: 50, Active: true,
		UsageLimit: 1, UsedCount: 1})
	f.seed(models.Coupon{Code: "VIP", Type: models.DiscountFlat, Value: 100, Active: true,
		Target: models.TargetSpecificUsers, TargetUsers: []primitive.ObjectID{invited}})
	f.seed(models.Coupon{Code: "GONE", Type: models.DiscountFlat, Value: 50, Active: true,
		ExpiresAt: time.Now().Add(-time.Hour)})

	visible, svcErr := f.svc.ListActiveFor(context.Background(), primitive.NewObjectID())
	require.Nil(t, svcErr)
	require.Len(t, visible, 1)
	assert.Equal(t, "OPEN", visible[0].Code)
	assert.Equal(t, "10% off", visible[0].Label)

	visible, svcErr = f.svc.ListActiveFor(context.Background(), invited)
	require.Nil(t, svcErr)
	codes := make([]string, 0, len(visible))
	for _, c := range visible {
		codes = append(codes, c.Code)
	}
	assert.ElementsMatch(t, []string{"OPEN", "VIP"}, codes)
}

func TestDeleteCoupon(t *testing.T) {
	f := newCouponFixture()
	seeded := f.seed(models.Coupon{Code: "SAVE10", Type: models.DiscountPercent, Value: 10, Active: true})

	require.Nil(t, f.svc.Delete(context.Background(), seeded.ID))

	svcErr := f.svc.Delete(context.Background(), seeded.ID)
	require.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}
