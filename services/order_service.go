package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/urbankisan/backend-go/models"
	"github.com/urbankisan/backend-go/repository"
)

type OrderItemInput struct {
	ProductID primitive.ObjectID
	Quantity  int
}

type CreateOrderInput struct {
	Items            []OrderItemInput
	ShippingAddress  models.ShippingAddress
	PaymentMethod    models.PaymentMethod
	PaymentReference string
	ItemsPrice       float64
	ShippingPrice    float64
	TotalPrice       float64
	CouponCode       string
}

type OrderService interface {
	Create(ctx context.Context, userID primitive.ObjectID, in CreateOrderInput) (*models.Order, *ServiceError)
	MyOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, *ServiceError)
	Get(ctx context.Context, id, requesterID primitive.ObjectID, isAdmin bool) (*models.Order, *ServiceError)
	List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, *ServiceError)
	Stats(ctx context.Context) (*models.OrderStats, *ServiceError)
	Cancel(ctx context.Context, id, userID primitive.ObjectID, reason string) (*models.Order, *ServiceError)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus, trackingID, carrier, reason string) (*models.Order, *ServiceError)
	Refund(ctx context.Context, id primitive.ObjectID, reference string, adminID primitive.ObjectID) (*models.Order, *ServiceError)
	// Track resolves an order by code or id. The requester may be the zero
	// ObjectID (anonymous); non-owners get the redacted tracking view.
	Track(ctx context.Context, idOrCode string, requesterID primitive.ObjectID, isAdmin bool) (interface{}, *ServiceError)
}

type orderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	coupons  CouponService
	notifier Notifier
	logger   *zap.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	coupons CouponService,
	notifier Notifier,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orders:   orders,
		products: products,
		coupons:  coupons,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *orderService) Create(ctx context.Context, userID primitive.ObjectID, in CreateOrderInput) (*models.Order, *ServiceError) {
	if len(in.Items) == 0 {
		return nil, errBadRequest("Order must contain at least one item")
	}
	switch in.PaymentMethod {
	case models.PaymentCOD, models.PaymentUPI, models.PaymentOnline:
	default:
		return nil, errBadRequest("Invalid payment method")
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, errBadRequest("Item quantity must be at least 1")
		}
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err == repository.ErrNotFound {
			return nil, errNotFound(fmt.Sprintf("Product %s not found", item.ProductID.Hex()))
		}
		if err != nil {
			s.logger.Error("product lookup failed", zap.Error(err))
			return nil, errInternal("Failed to create order")
		}
		if !product.IsActive {
			return nil, errBadRequest(fmt.Sprintf("%s is no longer available", product.Name))
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			Price:     product.Price, // snapshot, decoupled from later price edits
		})
	}

	var discount *models.Discount
	if in.CouponCode != "" {
		result, svcErr := s.coupons.Validate(ctx, in.CouponCode, in.ItemsPrice, userID)
		if svcErr != nil {
			return nil, svcErr
		}
		discount = &models.Discount{
			Amount: result.Discount,
			Type:   result.Type,
			Code:   result.Code,
		}
	}

	code, err := s.orders.NextOrderCode(ctx)
	if err != nil {
		s.logger.Error("order code allocation failed", zap.Error(err))
		return nil, errInternal("Failed to create order")
	}

	now := time.Now()
	order := &models.Order{
		ID:               primitive.NewObjectID(),
		OrderCode:        code,
		UserID:           userID,
		Items:            items,
		ShippingAddress:  in.ShippingAddress,
		PaymentMethod:    in.PaymentMethod,
		PaymentReference: in.PaymentReference,
		ItemsPrice:       in.ItemsPrice,
		ShippingPrice:    in.ShippingPrice,
		TotalPrice:       in.TotalPrice,
		Discount:         discount,
		OrderStatus:      models.OrderStatusConfirmed,
		StatusTimestamps: map[models.OrderStatus]time.Time{models.OrderStatusConfirmed: now},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, errBadRequest(capitalizeStockError(err))
		}
		s.logger.Error("order creation failed", zap.String("orderCode", code), zap.Error(err))
		return nil, errInternal("Failed to create order")
	}

	s.logger.Info("order created",
		zap.String("orderCode", order.OrderCode),
		zap.String("userId", userID.Hex()),
		zap.Float64("total", order.TotalPrice))

	s.notifier.NotifyUser(ctx, userID, "Order Confirmed",
		fmt.Sprintf("Your order %s has been placed successfully.", order.OrderCode),
		models.NotificationOrder)

	return order, nil
}

func capitalizeStockError(err error) string {
	name := strings.TrimPrefix(err.Error(), repository.ErrInsufficientStock.Error())
	name = strings.TrimPrefix(name, ": ")
	if name == "" {
		return "Insufficient stock"
	}
	return fmt.Sprintf("Insufficient stock for %s", name)
}

func (s *orderService) MyOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, *ServiceError) {
	orders, err := s.orders.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list user orders", zap.Error(err))
		return nil, errInternal("Failed to fetch orders")
	}
	return orders, nil
}

func (s *orderService) Get(ctx context.Context, id, requesterID primitive.ObjectID, isAdmin bool) (*models.Order, *ServiceError) {
	order, err := s.orders.FindByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errNotFound("Order not found")
	}
	if err != nil {
		s.logger.Error("failed to fetch order", zap.Error(err))
		return nil, errInternal("Failed to fetch order")
	}
	if !isAdmin && order.UserID != requesterID {
		return nil, errForbidden("Not authorized to view this order")
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, *ServiceError) {
	if filter.Status != "" && !models.ValidOrderStatus(filter.Status) {
		return nil, 0, errBadRequest("Invalid order status filter")
	}
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list orders", zap.Error(err))
		return nil, 0, errInternal("Failed to fetch orders")
	}
	return orders, total, nil
}

func (s *orderService) Stats(ctx context.Context) (*models.OrderStats, *ServiceError) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		s.logger.Error("failed to aggregate order stats", zap.Error(err))
		return nil, errInternal("Failed to fetch order stats")
	}
	return stats, nil
}

func (s *orderService) Cancel(ctx context.Context, id, userID primitive.ObjectID, reason string) (*models.Order, *ServiceError) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errBadRequest("Cancellation reason is required")
	}

	order, err := s.orders.FindByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errNotFound("Order not found")
	}
	if err != nil {
		s.logger.Error("failed to fetch order", zap.Error(err))
		return nil, errInternal("Failed to cancel order")
	}
	if order.UserID != userID {
		return nil, errForbidden("Not authorized to cancel this order")
	}

	return s.cancel(ctx, order, reason, "user")
}

// cancel applies the shared cancellation logic for both the owner and admin
// paths: status guard, refund bookkeeping, stock restoration, notification.
func (s *orderService) cancel(ctx context.Context, order *models.Order, reason, actor string) (*models.Order, *ServiceError) {
	if order.OrderStatus != models.OrderStatusConfirmed && order.OrderStatus != models.OrderStatusProcessing {
		return nil, errBadRequest(fmt.Sprintf("Order cannot be cancelled while %s", order.OrderStatus))
	}

	now := time.Now()
	order.OrderStatus = models.OrderStatusCancelled
	order.StatusTimestamps[models.OrderStatusCancelled] = now
	order.Cancellation = &models.Cancellation{Reason: reason, By: actor, At: now}
	if order.PaymentMethod == models.PaymentCOD {
		order.Refund.Status = models.RefundNotRequired
	} else {
		order.Refund.Status = models.RefundPending
	}

	err := s.orders.Cancel(ctx, order)
	if err == repository.ErrConflict {
		// Lost a race: the order left the cancellable states between our
		// read and the guarded write. Stock was not touched.
		return nil, errBadRequest("Order can no longer be cancelled")
	}
	if err != nil {
		s.logger.Error("order cancellation failed", zap.String("orderCode", order.OrderCode), zap.Error(err))
		return nil, errInternal("Failed to cancel order")
	}

	s.logger.Info("order cancelled",
		zap.String("orderCode", order.OrderCode),
		zap.String("by", actor))

	message := fmt.Sprintf("Your order %s has been cancelled.", order.OrderCode)
	if reason != "" {
		message += fmt.Sprintf(" Reason: %s", reason)
	}
	s.notifier.NotifyUser(ctx, order.UserID, "Order Cancelled", message, models.NotificationOrder)

	return order, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus, trackingID, carrier, reason string) (*models.Order, *ServiceError) {
	if !models.ValidOrderStatus(status) {
		return nil, errBadRequest("Invalid order status")
	}

	order, err := s.orders.FindByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errNotFound("Order not found")
	}
	if err != nil {
		s.logger.Error("failed to fetch order", zap.Error(err))
		return nil, errInternal("Failed to update order")
	}

	if !models.CanTransition(order.OrderStatus, status) {
		return nil, errBadRequest(fmt.Sprintf("Cannot move order from %s to %s", order.OrderStatus, status))
	}

	if status == models.OrderStatusCancelled {
		if strings.TrimSpace(reason) == "" {
			reason = "Cancelled by admin"
		}
		return s.cancel(ctx, order, reason, "admin")
	}

	now := time.Now()
	order.OrderStatus = status
	order.StatusTimestamps[status] = now
	if trackingID != "" {
		order.Tracking = &models.Tracking{ID: trackingID, Carrier: carrier}
	}
	if status == models.OrderStatusDelivered {
		order.DeliveredAt = &now
	}

	if err := s.orders.Update(ctx, order); err != nil {
		s.logger.Error("order status update failed", zap.String("orderCode", order.OrderCode), zap.Error(err))
		return nil, errInternal("Failed to update order")
	}

	title, message := statusNotification(order)
	s.notifier.NotifyUser(ctx, order.UserID, title, message, models.NotificationOrder)

	return order, nil
}

// statusNotification builds the per-status notification text, interpolating
// tracking info when present.
func statusNotification(order *models.Order) (string, string) {
	code := order.OrderCode
	switch order.OrderStatus {
	case models.OrderStatusProcessing:
		return "Order Update", fmt.Sprintf("Your order %s is being processed.", code)
	case models.OrderStatusShipped:
		message := fmt.Sprintf("Your order %s has been shipped.", code)
		if order.Tracking != nil && order.Tracking.ID != "" {
			message += fmt.Sprintf(" Tracking ID: %s", order.Tracking.ID)
			if order.Tracking.Carrier != "" {
				message += fmt.Sprintf(" (%s)", order.Tracking.Carrier)
			}
			message += "."
		}
		return "Order Shipped", message
	case models.OrderStatusOutForDelivery:
		return "Out for Delivery", fmt.Sprintf("Your order %s is out for delivery.", code)
	case models.OrderStatusDelivered:
		return "Order Delivered", fmt.Sprintf("Your order %s has been delivered. Thank you for shopping with UrbanKisan!", code)
	default:
		return "Order Update", fmt.Sprintf("Your order %s has been updated.", code)
	}
}

func (s *orderService) Refund(ctx context.Context, id primitive.ObjectID, reference string, adminID primitive.ObjectID) (*models.Order, *ServiceError) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, errBadRequest("Settlement reference is required")
	}

	order, err := s.orders.FindByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errNotFound("Order not found")
	}
	if err != nil {
		s.logger.Error("failed to fetch order", zap.Error(err))
		return nil, errInternal("Failed to process refund")
	}

	if order.OrderStatus != models.OrderStatusCancelled {
		return nil, errBadRequest("Refunds apply only to cancelled orders")
	}
	if order.Refund.Status != models.RefundPending {
		return nil, errBadRequest("No pending refund on this order")
	}

	now := time.Now()
	order.Refund.Status = models.RefundCompleted
	order.Refund.At = &now
	order.Refund.By = adminID.Hex()
	order.Refund.Reference = reference

	if err := s.orders.Update(ctx, order); err != nil {
		s.logger.Error("refund update failed", zap.String("orderCode", order.OrderCode), zap.Error(err))
		return nil, errInternal("Failed to process refund")
	}

	s.notifier.NotifyUser(ctx, order.UserID, "Refund Processed",
		fmt.Sprintf("Refund for order %s has been processed. Reference: %s", order.OrderCode, reference),
		models.NotificationOrder)

	return order, nil
}

func (s *orderService) Track(ctx context.Context, idOrCode string, requesterID primitive.ObjectID, isAdmin bool) (interface{}, *ServiceError) {
	var order *models.Order
	var err error
	if oid, parseErr := primitive.ObjectIDFromHex(idOrCode); parseErr == nil {
		order, err = s.orders.FindByID(ctx, oid)
	} else {
		order, err = s.orders.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(idOrCode)))
	}
	if err == repository.ErrNotFound {
		return nil, errNotFound("Order not found")
	}
	if err != nil {
		s.logger.Error("failed to fetch order", zap.Error(err))
		return nil, errInternal("Failed to track order")
	}

	if isAdmin || (!requesterID.IsZero() && order.UserID == requesterID) {
		return order, nil
	}

	// Public view: status and tracking only, never items, address or pricing.
	return &models.TrackingView{
		OrderCode:        order.OrderCode,
		OrderStatus:      order.OrderStatus,
		StatusTimestamps: order.StatusTimestamps,
		Tracking:         order.Tracking,
		DeliveredAt:      order.DeliveredAt,
		CreatedAt:        order.CreatedAt,
	}, nil
}
