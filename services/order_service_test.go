package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/urbankisan/backend-go/models"
	"github.com/urbankisan/backend-go/repository"
	"github.com/urbankisan/backend-go/services"
)

type orderFixture struct {
	svc      services.OrderService
	products *mockProductRepo
	orders   *mockOrderRepo
	coupons  *mockCouponRepo
	notifier *mockNotifier
}

func newOrderFixture() *orderFixture {
	products := newMockProductRepo()
	coupons := newMockCouponRepo()
	orders := newMockOrderRepo(products, coupons)
	notifier := &mockNotifier{}
	logger := zap.NewNop()
	couponSvc := services.NewCouponService(coupons, orders, logger)
	return &orderFixture{
		svc:      services.NewOrderService(orders, products, couponSvc, notifier, logger),
		products: products,
		orders:   orders,
		coupons:  coupons,
		notifier: notifier,
	}
}

func (f *orderFixture) seedProduct(name string, price float64, stock int) *models.Product {
	return f.products.add(&models.Product{
		Name:     name,
		Price:    price,
		Stock:    stock,
		IsActive: true,
		Category: models.CategoryVegetables,
	})
}

func basicInput(product *models.Product, qty int) services.CreateOrderInput {
	itemsPrice := product.Price * float64(qty)
	return services.CreateOrderInput{
		Items:         []services.OrderItemInput{{ProductID: product.ID, Quantity: qty}},
		PaymentMethod: models.PaymentCOD,
		ItemsPrice:    itemsPrice,
		ShippingPrice: 40,
		TotalPrice:    itemsPrice + 40,
		ShippingAddress: models.ShippingAddress{
			Name: "Asha", Street: "12 MG Road", City: "Pune",
			State: "MH", PostalCode: "411001", Phone: "9876543210",
		},
	}
}

func TestCreateOrderDecrementsStock(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Tomatoes", 40, 10)
	userID := primitive.NewObjectID()

	order, svcErr := f.svc.Create(context.Background(), userID, basicInput(product, 2))
	require.Nil(t, svcErr)

	assert.Equal(t, models.OrderStatusConfirmed, order.OrderStatus)
	assert.NotEmpty(t, order.OrderCode)
	assert.Equal(t, 8, f.products.products[product.ID].Stock)
	assert.Equal(t, "Tomatoes", order.Items[0].Name)
	assert.Equal(t, 40.0, order.Items[0].Price)
	assert.Contains(t, order.StatusTimestamps, models.OrderStatusConfirmed)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "Order Confirmed", f.notifier.sent[0].Title)
	assert.Equal(t, userID, f.notifier.sent[0].UserID)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Paneer", 120, 1)

	_, svcErr := f.svc.Create(context.Background(), primitive.NewObjectID(), basicInput(product, 2))
	require.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Equal(t, "Insufficient stock for Paneer", svcErr.Message)
	assert.Equal(t, 1, f.products.products[product.ID].Stock)
	assert.Empty(t, f.orders.orders)
}

func TestCreateOrderPartialFailureLeavesStockUntouched(t *testing.T) {
	f := newOrderFixture()
	first := f.seedProduct("Rice", 80, 10)
	second := f.seedProduct("Ghee", 500, 0)

	in := basicInput(first, 3)
	in.Items = append(in.Items, services.OrderItemInput{ProductID: second.ID, Quantity: 1})

	_, svcErr := f.svc.Create(context.Background(), primitive.NewObjectID(), in)
	require.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Equal(t, 10, f.products.products[first.ID].Stock)
	assert.Equal(t, 0, f.products.products[second.ID].Stock)
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	f := newOrderFixture()

	_, svcErr := f.svc.Create(context.Background(), primitive.NewObjectID(), services.CreateOrderInput{
		PaymentMethod: models.PaymentCOD,
	})
	require.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Equal(t, "Order must contain at least one item", svcErr.Message)
}

func TestCreateOrderRejectsInvalidPaymentMethod(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Onions", 30, 5)

	in := basicInput(product, 1)
	in.PaymentMethod = "cheque"
	_, svcErr := f.svc.Create(context.Background(), primitive.NewObjectID(), in)
	require.NotNil(t, svcErr)
	assert.Equal(t, "Invalid payment method", svcErr.Message)
}

func TestCreateOrderRejectsInactiveProduct(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Jaggery", 60, 5)
	f.products.products[product.ID].IsActive = false

	_, svcErr := f.svc.Create(context.Background(), primitive.NewObjectID(), basicInput(product, 1))
	require.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Contains(t, svcErr.Message, "no longer available")
}

func TestCreateOrderAppliesCouponAndIncrementsUsage(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Basmati Rice", 200, 20)
	userID := primitive.NewObjectID()

	coupon := &models.Coupon{
		ID:          primitive.NewObjectID(),
		Code:        "SAVE10",
		Type:        models.DiscountPercent,
		Value:       10,
		MaxDiscount: 100,
		Target:      models.TargetAll,
		Active:      true,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, f.coupons.Create(context.Background(), coupon))

	in := basicInput(product, 10) // itemsPrice 2000
	in.CouponCode = "save10"
	order, svcErr := f.svc.Create(context.Background(), userID, in)
	require.Nil(t, svcErr)

	require.NotNil(t, order.Discount)
	assert.Equal(t, 100.0, order.Discount.Amount) // 10% of 2000 capped at 100
	assert.Equal(t, "SAVE10", order.Discount.Code)
	assert.Equal(t, 1, f.coupons.coupons["SAVE10"].UsedCount)
}

func TestCancelRestoresStockAndSetsRefund(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Tomatoes", 40, 10)
	userID := primitive.NewObjectID()

	order, svcErr := f.svc.Create(context.Background(), userID, basicInput(product, 2))
	require.Nil(t, svcErr)
	require.Equal(t, 8, f.products.products[product.ID].Stock)

	cancelled, svcErr := f.svc.Cancel(context.Background(), order.ID, userID, "Ordered by mistake")
	require.Nil(t, svcErr)

	assert.Equal(t, models.OrderStatusCancelled, cancelled.OrderStatus)
	assert.Equal(t, 10, f.products.products[product.ID].Stock)
	assert.Equal(t, models.RefundNotRequired, cancelled.Refund.Status) // COD, nothing to refund
	require.NotNil(t, cancelled.Cancellation)
	assert.Equal(t, "user", cancelled.Cancellation.By)
	assert.Equal(t, "Ordered by mistake", cancelled.Cancellation.Reason)
}

func TestCancelPrepaidOrderMarksRefundPending(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Ghee", 500, 5)
	userID := primitive.NewObjectID()

	in := basicInput(product, 1)
	in.PaymentMethod = models.PaymentUPI
	in.PaymentReference = "UTR12345"
	order, svcErr := f.svc.Create(context.Background(), userID, in)
	require.Nil(t, svcErr)

	cancelled, svcErr := f.svc.Cancel(context.Background(), order.ID, userID, "Changed my mind")
	require.Nil(t, svcErr)
	assert.Equal(t, models.RefundPending, cancelled.Refund.Status)
}

func TestCancelRequiresReason(t *testing.T) {
	f := newOrderFixture()

	_, svcErr := f.svc.Cancel(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "  ")
	require.NotNil(t, svcErr)
	assert.Equal(t, "Cancellation reason is required", svcErr.Message)
}

func TestCancelByNonOwnerForbidden(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Onions", 30, 5)
	owner := primitive.NewObjectID()

	order, svcErr := f.svc.Create(context.Background(), owner, basicInput(product, 1))
	require.Nil(t, svcErr)

	_, svcErr = f.svc.Cancel(context.Background(), order.ID, primitive.NewObjectID(), "Not mine")
	require.NotNil(t, svcErr)
	assert.Equal(t, 403, svcErr.StatusCode)
	assert.Equal(t, 4, f.products.products[product.ID].Stock) // untouched
}

func TestCancelShippedOrderRejected(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Rice", 80, 10)
	userID := primitive.NewObjectID()

	order, svcErr := f.svc.Create(context.Background(), userID, basicInput(product, 2))
	require.Nil(t, svcErr)

	_, svcErr = f.svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusProcessing, "", "", "")
	require.Nil(t, svcErr)
	_, svcErr = f.svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusShipped, "TRK1", "BlueDart", "")
	require.Nil(t, svcErr)

	_, svcErr = f.svc.Cancel(context.Background(), order.ID, userID, "Too late")
	require.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Equal(t, "Order cannot be cancelled while shipped", svcErr.Message)
	assert.Equal(t, 8, f.products.products[product.ID].Stock)
}

func TestDoubleCancelRestoresStockOnce(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Tomatoes", 40, 10)
	userID := primitive.NewObjectID()

	order, svcErr := f.svc.Create(context.Background(), userID, basicInput(product, 3))
	require.Nil(t, svcErr)

	_, svcErr = f.svc.Cancel(context.Background(), order.ID, userID, "First")
	require.Nil(t, svcErr)
	assert.Equal(t, 10, f.products.products[product.ID].Stock)

	_, svcErr = f.svc.Cancel(context.Background(), order.ID, userID, "Second")
	require.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Equal(t, 10, f.products.products[product.ID].Stock)
}

func TestConcurrentCancelLosesGuardedWrite(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Tomatoes", 40, 10)
	userID := primitive.NewObjectID()

	order, svcErr := f.svc.Create(context.Background(), userID, basicInput(product, 3))
	require.Nil(t, svcErr)

	// Another writer ships the order between our read and the guarded write.
	stored := f.orders.orders[order.ID]
	stored.OrderStatus = models.OrderStatusShipped
	f.orders.orders[order.ID] = stored

	fetched, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	fetched.OrderStatus = models.OrderStatusCancelled
	require.Equal(t, repository.ErrConflict, f.orders.Cancel(context.Background(), fetched))
	assert.Equal(t, 7, f.products.products[product.ID].Stock)
}

func TestUpdateStatusFollowsTransitionTable(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Rice", 80, 10)
	userID := primitive.NewObjectID()

	order, svcErr := f.svc.Create(context.Background(), userID, basicInput(product, 1))
	require.Nil(t, svcErr)

	_, svcErr = f.svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusDelivered, "", "", "")
	require.NotNil(t, svcErr)
	assert.Equal(t, "Cannot move order from confirmed to delivered", svcErr.Message)

	for _, status := range []models.OrderStatus{
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusOutForDelivery,
		models.OrderStatusDelivered,
	} {
		updated, svcErr := f.svc.UpdateStatus(context.Background(), order.ID, status, "", "", "")
		require.Nil(t, svcErr, "transition to %s", status)
		assert.Equal(t, status, updated.OrderStatus)
		assert.Contains(t, updated.StatusTimestamps, status)
	}

	delivered, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.NotNil(t, delivered.DeliveredAt)

	// Delivered is terminal.
	_, svcErr = f.svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled, "", "", "")
	require.NotNil(t, svcErr)
	assert.Equal(t, "Cannot move order from delivered to cancelled", svcErr.Message)
}

func TestUpdateStatusShippedAttachesTracking(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Rice", 80, 10)
	userID := primitive.NewObjectID()

	order, svcErr := f.svc.Create(context.Background(), userID, basicInput(product, 1))
	require.Nil(t, svcErr)
	_, svcErr = f.svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusProcessing, "", "", "")
	require.Nil(t, svcErr)

	updated, svcErr := f.svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusShipped, "TRK987", "Delhivery", "")
	require.Nil(t, svcErr)
	require.NotNil(t, updated.Tracking)
	assert.Equal(t, "TRK987", updated.Tracking.ID)
	assert.Equal(t, "Delhivery", updated.Tracking.Carrier)

	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, "Order Shipped", last.Title)
	assert.Contains(t, last.Message, "TRK987")
	assert.Contains(t, last.Message, "Delhivery")
}

func TestAdminCancelViaStatusUpdate(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Paneer", 120, 10)
	userID := primitive.NewObjectID()

	order, svcErr := f.svc.Create(context.Background(), userID, basicInput(product, 2))
	require.Nil(t, svcErr)

	cancelled, svcErr := f.svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled, "", "", "")
	require.Nil(t, svcErr)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.OrderStatus)
	require.NotNil(t, cancelled.Cancellation)
	assert.Equal(t, "admin", cancelled.Cancellation.By)
	assert.Equal(t, "Cancelled by admin", cancelled.Cancellation.Reason)
	assert.Equal(t, 10, f.products.products[product.ID].Stock)
}

func TestRefundLifecycle(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Ghee", 500, 5)
	userID := primitive.NewObjectID()
	adminID := primitive.NewObjectID()

	in := basicInput(product, 1)
	in.PaymentMethod = models.PaymentOnline
	order, svcErr := f.svc.Create(context.Background(), userID, in)
	require.Nil(t, svcErr)

	// Refund before cancellation is rejected.
	_, svcErr = f.svc.Refund(context.Background(), order.ID, "REF1", adminID)
	require.NotNil(t, svcErr)
	assert.Equal(t, "Refunds apply only to cancelled orders", svcErr.Message)

	_, svcErr = f.svc.Cancel(context.Background(), order.ID, userID, "Changed my mind")
	require.Nil(t, svcErr)

	_, svcErr = f.svc.Refund(context.Background(), order.ID, "  ", adminID)
	require.NotNil(t, svcErr)
	assert.Equal(t, "Settlement reference is required", svcErr.Message)

	refunded, svcErr := f.svc.Refund(context.Background(), order.ID, "REF1", adminID)
	require.Nil(t, svcErr)
	assert.Equal(t, models.RefundCompleted, refunded.Refund.Status)
	assert.Equal(t, "REF1", refunded.Refund.Reference)
	assert.Equal(t, adminID.Hex(), refunded.Refund.By)
	assert.NotNil(t, refunded.Refund.At)

	// A completed refund cannot be settled twice.
	_, svcErr = f.svc.Refund(context.Background(), order.ID, "REF2", adminID)
	require.NotNil(t, svcErr)
	assert.Equal(t, "No pending refund on this order", svcErr.Message)
}

func TestTrackRedactsForNonOwners(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Rice", 80, 10)
	userID := primitive.NewObjectID()

	order, svcErr := f.svc.Create(context.Background(), userID, basicInput(product, 2))
	require.Nil(t, svcErr)

	// Anonymous lookup by code gets the redacted view.
	result, svcErr := f.svc.Track(context.Background(), order.OrderCode, primitive.NilObjectID, false)
	require.Nil(t, svcErr)
	view, ok := result.(*models.TrackingView)
	require.True(t, ok)
	assert.Equal(t, order.OrderCode, view.OrderCode)
	assert.Equal(t, models.OrderStatusConfirmed, view.OrderStatus)

	// Lower-cased codes resolve too.
	_, svcErr = f.svc.Track(context.Background(), " "+strings.ToLower(order.OrderCode)+" ", primitive.NilObjectID, false)
	require.Nil(t, svcErr)

	// The owner gets the full order by id.
	result, svcErr = f.svc.Track(context.Background(), order.ID.Hex(), userID, false)
	require.Nil(t, svcErr)
	full, ok := result.(*models.Order)
	require.True(t, ok)
	assert.Len(t, full.Items, 1)

	// So does an admin who is not the owner.
	result, svcErr = f.svc.Track(context.Background(), order.ID.Hex(), primitive.NewObjectID(), true)
	require.Nil(t, svcErr)
	_, ok = result.(*models.Order)
	assert.True(t, ok)

	_, svcErr = f.svc.Track(context.Background(), "UK26010042", primitive.NilObjectID, false)
	require.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}

func TestGetEnforcesOwnership(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Onions", 30, 5)
	owner := primitive.NewObjectID()

	order, svcErr := f.svc.Create(context.Background(), owner, basicInput(product, 1))
	require.Nil(t, svcErr)

	_, svcErr = f.svc.Get(context.Background(), order.ID, primitive.NewObjectID(), false)
	require.NotNil(t, svcErr)
	assert.Equal(t, 403, svcErr.StatusCode)

	got, svcErr := f.svc.Get(context.Background(), order.ID, primitive.NewObjectID(), true)
	require.Nil(t, svcErr)
	assert.Equal(t, order.ID, got.ID)
}

func TestStatsExcludeCancelledRevenue(t *testing.T) {
	f := newOrderFixture()
	product := f.seedProduct("Rice", 100, 50)
	userID := primitive.NewObjectID()

	first, svcErr := f.svc.Create(context.Background(), userID, basicInput(product, 1)) // total 140
	require.Nil(t, svcErr)
	_, svcErr = f.svc.Create(context.Background(), userID, basicInput(product, 2)) // total 240
	require.Nil(t, svcErr)
	_, svcErr = f.svc.Cancel(context.Background(), first.ID, userID, "Mistake")
	require.Nil(t, svcErr)

	stats, svcErr := f.svc.Stats(context.Background())
	require.Nil(t, svcErr)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, 240.0, stats.TotalRevenue)
	assert.Equal(t, int64(1), stats.CountByStatus[models.OrderStatusCancelled])
	assert.Equal(t, int64(1), stats.CountByStatus[models.OrderStatusConfirmed])
}
