package services_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/urbankisan/backend-go/models"
	"github.com/urbankisan/backend-go/repository"
)

// --- Product repository ---

type mockProductRepo struct {
	products map[primitive.ObjectID]*models.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[primitive.ObjectID]*models.Product)}
}

func (m *mockProductRepo) add(p *models.Product) *models.Product {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.products[p.ID] = p
	return p
}

func (m *mockProductRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) UpdateRating(_ context.Context, id primitive.ObjectID, rating float64, numReviews int) error {
	p, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Rating = rating
	p.NumReviews = numReviews
	return nil
}

// --- Coupon repository ---

type mockCouponRepo struct {
	coupons map[string]*models.Coupon
}

func newMockCouponRepo() *mockCouponRepo {
	return &mockCouponRepo{coupons: make(map[string]*models.Coupon)}
}

func (m *mockCouponRepo) Create(_ context.Context, c *models.Coupon) error {
	c.Code = repository.NormalizeCouponCode(c.Code)
	if _, ok := m.coupons[c.Code]; ok {
		return repository.ErrDuplicate
	}
	m.coupons[c.Code] = c
	return nil
}

func (m *mockCouponRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	for _, c := range m.coupons {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	c, ok := m.coupons[repository.NormalizeCouponCode(code)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCouponRepo) List(_ context.Context) ([]models.Coupon, error) {
	var result []models.Coupon
	for _, c := range m.coupons {
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockCouponRepo) ListActive(_ context.Context, now time.Time) ([]models.Coupon, error) {
	var result []models.Coupon
	for _, c := range m.coupons {
		if c.Active && c.ExpiresAt.After(now) {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockCouponRepo) Update(_ context.Context, c *models.Coupon) error {
	for code, existing := range m.coupons {
		if existing.ID == c.ID {
			delete(m.coupons, code)
			m.coupons[c.Code] = c
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockCouponRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for code, c := range m.coupons {
		if c.ID == id {
			delete(m.coupons, code)
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- Order repository ---

// mockOrderRepo emulates the transactional semantics of the Mongo
// implementation: order creation is all-or-nothing against the product
// store, and cancellation restores stock only when the stored order is
// still in a cancellable state.
type mockOrderRepo struct {
	orders   map[primitive.ObjectID]models.Order
	products *mockProductRepo
	coupons  *mockCouponRepo
	seq      int64
}

func newMockOrderRepo(products *mockProductRepo, coupons *mockCouponRepo) *mockOrderRepo {
	return &mockOrderRepo{
		orders:   make(map[primitive.ObjectID]models.Order),
		products: products,
		coupons:  coupons,
	}
}

func (m *mockOrderRepo) NextOrderCode(_ context.Context) (string, error) {
	m.seq++
	return fmt.Sprintf("UK%s%04d", time.Now().Format("0601"), m.seq), nil
}

func (m *mockOrderRepo) Create(_ context.Context, order *models.Order) error {
	for _, item := range order.Items {
		p, ok := m.products.products[item.ProductID]
		if !ok || p.Stock < item.Quantity {
			return fmt.Errorf("%w: %s", repository.ErrInsufficientStock, item.Name)
		}
	}
	for _, item := range order.Items {
		m.products.products[item.ProductID].Stock -= item.Quantity
	}
	if order.Discount != nil && order.Discount.Code != "" {
		if c, ok := m.coupons.coupons[order.Discount.Code]; ok {
			c.UsedCount++
		}
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := o
	cp.StatusTimestamps = copyTimestamps(o.StatusTimestamps)
	return &cp, nil
}

func (m *mockOrderRepo) FindByCode(_ context.Context, code string) (*models.Order, error) {
	for _, o := range m.orders {
		if o.OrderCode == code {
			cp := o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockOrderRepo) FindByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	var result []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *mockOrderRepo) List(_ context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	var result []models.Order
	for _, o := range m.orders {
		if filter.Status == "" || o.OrderStatus == filter.Status {
			result = append(result, o)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockOrderRepo) Update(_ context.Context, order *models.Order) error {
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrNotFound
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *mockOrderRepo) Cancel(_ context.Context, order *models.Order) error {
	stored, ok := m.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.OrderStatus != models.OrderStatusConfirmed && stored.OrderStatus != models.OrderStatusProcessing {
		return repository.ErrConflict
	}
	m.orders[order.ID] = *order
	for _, item := range order.Items {
		if p, ok := m.products.products[item.ProductID]; ok {
			p.Stock += item.Quantity
		}
	}
	return nil
}

func (m *mockOrderRepo) CountByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	var count int64
	for _, o := range m.orders {
		if o.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *mockOrderRepo) FindDeliveredWithProduct(_ context.Context, userID, productID primitive.ObjectID) (*models.Order, error) {
	for _, o := range m.orders {
		if o.UserID != userID || o.OrderStatus != models.OrderStatusDelivered {
			continue
		}
		for _, item := range o.Items {
			if item.ProductID == productID {
				cp := o
				return &cp, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockOrderRepo) Stats(_ context.Context) (*models.OrderStats, error) {
	stats := &models.OrderStats{CountByStatus: make(map[models.OrderStatus]int64)}
	for _, o := range m.orders {
		stats.CountByStatus[o.OrderStatus]++
		stats.TotalOrders++
		if o.OrderStatus != models.OrderStatusCancelled {
			stats.TotalRevenue += o.TotalPrice
		}
	}
	return stats, nil
}

func copyTimestamps(in map[models.OrderStatus]time.Time) map[models.OrderStatus]time.Time {
	out := make(map[models.OrderStatus]time.Time, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// --- Review repository ---

type mockReviewRepo struct {
	reviews map[primitive.ObjectID]*models.Review
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{reviews: make(map[primitive.ObjectID]*models.Review)}
}

func (m *mockReviewRepo) Create(_ context.Context, review *models.Review) error {
	for _, r := range m.reviews {
		if r.UserID == review.UserID && r.ProductID == review.ProductID && r.OrderID == review.OrderID {
			return repository.ErrDuplicate
		}
	}
	m.reviews[review.ID] = review
	return nil
}

func (m *mockReviewRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	r, ok := m.reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockReviewRepo) FindByProduct(_ context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	var result []models.Review
	for _, r := range m.reviews {
		if r.ProductID == productID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReviewRepo) Exists(_ context.Context, userID, productID, orderID primitive.ObjectID) (bool, error) {
	for _, r := range m.reviews {
		if r.UserID == userID && r.ProductID == productID && r.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockReviewRepo) Update(_ context.Context, review *models.Review) error {
	if _, ok := m.reviews[review.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *review
	m.reviews[review.ID] = &cp
	return nil
}

func (m *mockReviewRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.reviews, id)
	return nil
}

func (m *mockReviewRepo) List(_ context.Context, _, _ int64) ([]models.Review, int64, error) {
	var result []models.Review
	for _, r := range m.reviews {
		result = append(result, *r)
	}
	return result, int64(len(result)), nil
}

func (m *mockReviewRepo) Vote(_ context.Context, id, userID primitive.ObjectID, addField, removeField string) (*models.Review, error) {
	r, ok := m.reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	apply := func(field string, add bool) {
		set := &r.Upvotes
		if field == "downvotes" {
			set = &r.Downvotes
		}
		filtered := (*set)[:0]
		for _, v := range *set {
			if v != userID {
				filtered = append(filtered, v)
			}
		}
		*set = filtered
		if add {
			*set = append(*set, userID)
		}
	}
	if removeField != "" {
		apply(removeField, false)
	}
	if addField != "" {
		apply(addField, true)
	}
	cp := *r
	return &cp, nil
}

func (m *mockReviewRepo) Aggregate(_ context.Context, productID primitive.ObjectID) (float64, int, error) {
	var sum, count int
	for _, r := range m.reviews {
		if r.ProductID == productID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

// --- Notification repository ---

type mockNotificationRepo struct {
	notifications []*models.Notification
	failCreate    bool
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	if m.failCreate {
		return fmt.Errorf("store unavailable")
	}
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockNotificationRepo) forUser(userID primitive.ObjectID) []*models.Notification {
	var result []*models.Notification
	for _, n := range m.notifications {
		if n.Target == models.NotifyAll {
			result = append(result, n)
			continue
		}
		for _, id := range n.UserIDs {
			if id == userID {
				result = append(result, n)
				break
			}
		}
	}
	return result
}

func (m *mockNotificationRepo) ListForUser(_ context.Context, userID primitive.ObjectID, limit int64) ([]models.Notification, error) {
	var result []models.Notification
	for _, n := range m.forUser(userID) {
		if int64(len(result)) >= limit {
			break
		}
		result = append(result, *n)
	}
	return result, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID primitive.ObjectID) (int64, error) {
	var count int64
	for _, n := range m.forUser(userID) {
		read := false
		for _, id := range n.ReadBy {
			if id == userID {
				read = true
				break
			}
		}
		if !read {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID primitive.ObjectID) error {
	for _, n := range m.notifications {
		if n.ID == id {
			for _, existing := range n.ReadBy {
				if existing == userID {
					return nil
				}
			}
			n.ReadBy = append(n.ReadBy, userID)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	for _, n := range m.forUser(userID) {
		_ = m.MarkRead(ctx, n.ID, userID)
	}
	return nil
}

func (m *mockNotificationRepo) List(_ context.Context, _, _ int64) ([]models.Notification, int64, error) {
	var result []models.Notification
	for _, n := range m.notifications {
		result = append(result, *n)
	}
	return result, int64(len(result)), nil
}

func (m *mockNotificationRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for i, n := range m.notifications {
		if n.ID == id {
			m.notifications = append(m.notifications[:i], m.notifications[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- Notifier spy ---

type sentNotification struct {
	UserID  primitive.ObjectID
	Title   string
	Message string
	Type    models.NotificationType
}

type mockNotifier struct {
	sent []sentNotification
}

func (m *mockNotifier) NotifyUser(_ context.Context, userID primitive.ObjectID, title, message string, typ models.NotificationType) {
	m.sent = append(m.sent, sentNotification{UserID: userID, Title: title, Message: message, Type: typ})
}
