package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/urbankisan/backend-go/models"
	"github.com/urbankisan/backend-go/repository"
)

// CouponResult is the discount descriptor returned by a successful validation.
type CouponResult struct {
	Code     string              `json:"code"`
	Type     models.DiscountType `json:"type"`
	Discount float64             `json:"discount"`
	Label    string              `json:"label"`
}

type CouponService interface {
	// Validate checks a code against the targeting, expiry, usage and
	// minimum-order rules and computes the discount. It never mutates
	// usedCount; that happens inside the order-creation transaction.
	Validate(ctx context.Context, code string, cartTotal float64, userID primitive.ObjectID) (*CouponResult, *ServiceError)
	ListActiveFor(ctx context.Context, userID primitive.ObjectID) ([]models.PublicCoupon, *ServiceError)
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, *ServiceError)
	Update(ctx context.Context, coupon *models.Coupon) (*models.Coupon, *ServiceError)
	Delete(ctx context.Context, id primitive.ObjectID) *ServiceError
	List(ctx context.Context) ([]models.Coupon, *ServiceError)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Coupon, *ServiceError)
}

type couponService struct {
	repo   repository.CouponRepository
	orders repository.OrderRepository
	logger *zap.Logger
}

func NewCouponService(repo repository.CouponRepository, orders repository.OrderRepository, logger *zap.Logger) CouponService {
	return &couponService{repo: repo, orders: orders, logger: logger}
}

func (s *couponService) Validate(ctx context.Context, code string, cartTotal float64, userID primitive.ObjectID) (*CouponResult, *ServiceError) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err == repository.ErrNotFound {
		return nil, errBadRequest("Invalid coupon code")
	}
	if err != nil {
		s.logger.Error("coupon lookup failed", zap.Error(err))
		return nil, errInternal("Failed to validate coupon")
	}

	if !coupon.Active {
		return nil, errBadRequest("This coupon is no longer active")
	}
	if time.Now().After(coupon.ExpiresAt) {
		return nil, errBadRequest("This coupon has expired")
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return nil, errBadRequest("This coupon has reached its usage limit")
	}
	if cartTotal < coupon.MinOrder {
		return nil, errBadRequest(fmt.Sprintf("Minimum order of ₹%s required for this coupon", formatAmount(coupon.MinOrder)))
	}

	eligible, svcErr := s.admits(ctx, coupon, userID)
	if svcErr != nil {
		return nil, svcErr
	}
	if !eligible {
		return nil, errBadRequest("This coupon is not available for your account")
	}

	discount := ComputeDiscount(coupon, cartTotal)
	return &CouponResult{
		Code:     coupon.Code,
		Type:     coupon.Type,
		Discount: discount,
		Label:    couponLabel(coupon),
	}, nil
}

// ComputeDiscount applies the coupon's rule to the cart total. Percent
// discounts round to the nearest rupee and clamp to maxDiscount when set;
// flat discounts are the coupon value verbatim.
func ComputeDiscount(coupon *models.Coupon, cartTotal float64) float64 {
	if coupon.Type == models.DiscountPercent {
		discount := math.Round(cartTotal * coupon.Value / 100)
		if coupon.MaxDiscount > 0 && discount > coupon.MaxDiscount {
			discount = coupon.MaxDiscount
		}
		return discount
	}
	return coupon.Value
}

func couponLabel(coupon *models.Coupon) string {
	if coupon.Type == models.DiscountPercent {
		return fmt.Sprintf("%s%% off", formatAmount(coupon.Value))
	}
	return fmt.Sprintf("₹%s off", formatAmount(coupon.Value))
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// admits applies the three-way targeting rule: all, newUsers (zero prior
// orders) or specificUsers (explicit list membership).
func (s *couponService) admits(ctx context.Context, coupon *models.Coupon, userID primitive.ObjectID) (bool, *ServiceError) {
	switch coupon.Target {
	case models.TargetNewUsers:
		count, err := s.orders.CountByUser(ctx, userID)
		if err != nil {
			s.logger.Error("failed to count user orders", zap.Error(err))
			return false, errInternal("Failed to validate coupon")
		}
		return count == 0, nil
	case models.TargetSpecificUsers:
		return containsID(coupon.TargetUsers, userID), nil
	default:
		return true, nil
	}
}

func (s *couponService) ListActiveFor(ctx context.Context, userID primitive.ObjectID) ([]models.PublicCoupon, *ServiceError) {
	coupons, err := s.repo.ListActive(ctx, time.Now())
	if err != nil {
		s.logger.Error("failed to list coupons", zap.Error(err))
		return nil, errInternal("Failed to fetch coupons")
	}

	result := make([]models.PublicCoupon, 0, len(coupons))
	for i := range coupons {
		coupon := &coupons[i]
		if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
			continue
		}
		eligible, svcErr := s.admits(ctx, coupon, userID)
		if svcErr != nil {
			return nil, svcErr
		}
		if !eligible {
			continue
		}
		result = append(result, models.PublicCoupon{
			Code:        coupon.Code,
			Type:        coupon.Type,
			Value:       coupon.Value,
			MinOrder:    coupon.MinOrder,
			MaxDiscount: coupon.MaxDiscount,
			ExpiresAt:   coupon.ExpiresAt,
			Label:       couponLabel(coupon),
		})
	}
	return result, nil
}

func (s *couponService) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, *ServiceError) {
	if svcErr := validateCoupon(coupon); svcErr != nil {
		return nil, svcErr
	}

	coupon.ID = primitive.NewObjectID()
	coupon.UsedCount = 0
	coupon.CreatedAt = time.Now()
	coupon.UpdatedAt = coupon.CreatedAt

	err := s.repo.Create(ctx, coupon)
	if err == repository.ErrDuplicate {
		return nil, &ServiceError{StatusCode: 409, Message: "Coupon code already exists"}
	}
	if err != nil {
		s.logger.Error("failed to create coupon", zap.Error(err))
		return nil, errInternal("Failed to create coupon")
	}

	s.logger.Info("coupon created", zap.String("code", coupon.Code))
	return coupon, nil
}

func (s *couponService) Update(ctx context.Context, coupon *models.Coupon) (*models.Coupon, *ServiceError) {
	if svcErr := validateCoupon(coupon); svcErr != nil {
		return nil, svcErr
	}

	err := s.repo.Update(ctx, coupon)
	if err == repository.ErrNotFound {
		return nil, errNotFound("Coupon not found")
	}
	if err == repository.ErrDuplicate {
		return nil, &ServiceError{StatusCode: 409, Message: "Coupon code already exists"}
	}
	if err != nil {
		s.logger.Error("failed to update coupon", zap.Error(err))
		return nil, errInternal("Failed to update coupon")
	}
	return coupon, nil
}

func validateCoupon(coupon *models.Coupon) *ServiceError {
	if strings.TrimSpace(coupon.Code) == "" {
		return errBadRequest("Coupon code is required")
	}
	if coupon.Type != models.DiscountPercent && coupon.Type != models.DiscountFlat {
		return errBadRequest("Coupon type must be percent or flat")
	}
	if coupon.Value <= 0 {
		return errBadRequest("Coupon value must be positive")
	}
	if coupon.Type == models.DiscountPercent && coupon.Value > 100 {
		return errBadRequest("Percentage discount cannot exceed 100")
	}
	if coupon.Target == "" {
		coupon.Target = models.TargetAll
	}
	if coupon.Target != models.TargetAll && coupon.Target != models.TargetNewUsers && coupon.Target != models.TargetSpecificUsers {
		return errBadRequest("Invalid coupon target")
	}
	if coupon.Target == models.TargetSpecificUsers && len(coupon.TargetUsers) == 0 {
		return errBadRequest("Target users are required for a user-specific coupon")
	}
	if coupon.ExpiresAt.Before(time.Now()) {
		return errBadRequest("Expiry date must be in the future")
	}
	return nil
}

func (s *couponService) Delete(ctx context.Context, id primitive.ObjectID) *ServiceError {
	err := s.repo.Delete(ctx, id)
	if err == repository.ErrNotFound {
		return errNotFound("Coupon not found")
	}
	if err != nil {
		s.logger.Error("failed to delete coupon", zap.Error(err))
		return errInternal("Failed to delete coupon")
	}
	return nil
}

func (s *couponService) List(ctx context.Context) ([]models.Coupon, *ServiceError) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list coupons", zap.Error(err))
		return nil, errInternal("Failed to fetch coupons")
	}
	return coupons, nil
}

func (s *couponService) Get(ctx context.Context, id primitive.ObjectID) (*models.Coupon, *ServiceError) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errNotFound("Coupon not found")
	}
	if err != nil {
		s.logger.Error("failed to fetch coupon", zap.Error(err))
		return nil, errInternal("Failed to fetch coupon")
	}
	return coupon, nil
}
