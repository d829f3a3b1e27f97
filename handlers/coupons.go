package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/urbankisan/backend-go/middleware"
	"github.com/urbankisan/backend-go/models"
	"github.com/urbankisan/backend-go/services"
)

type CouponHandler struct {
	svc services.CouponService
}

func NewCouponHandler(svc services.CouponService) *CouponHandler {
	return &CouponHandler{svc: svc}
}

func (h *CouponHandler) Validate(c echo.Context) error {
	var req struct {
		Code      string  `json:"code" validate:"required"`
		CartTotal float64 `json:"cartTotal" validate:"required,gt=0"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, svcErr := h.svc.Validate(c.Request().Context(), req.Code, req.CartTotal, middleware.UserID(c))
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *CouponHandler) ListActive(c echo.Context) error {
	coupons, svcErr := h.svc.ListActiveFor(c.Request().Context(), middleware.UserID(c))
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, coupons)
}

type couponRequest struct {
	Code        string              `json:"code" validate:"required,min=3,max=32"`
	Type        models.DiscountType `json:"type" validate:"required"`
	Value       float64             `json:"value" validate:"required,gt=0"`
	MinOrder    float64             `json:"minOrder" validate:"gte=0"`
	MaxDiscount float64             `json:"maxDiscount" validate:"gte=0"`
	Target      models.CouponTarget `json:"target"`
	TargetUsers []string            `json:"targetUsers"`
	ExpiresAt   time.Time           `json:"expiresAt" validate:"required"`
	UsageLimit  int                 `json:"usageLimit" validate:"gte=0"`
	Active      *bool               `json:"active"`
}

func (h *CouponHandler) couponFromRequest(c echo.Context, req *couponRequest) (*models.Coupon, error) {
	targetUsers := make([]primitive.ObjectID, 0, len(req.TargetUsers))
	for _, raw := range req.TargetUsers {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, message(c, http.StatusBadRequest, "Invalid target user ID")
		}
		targetUsers = append(targetUsers, id)
	}

	coupon := &models.Coupon{
		Code:        req.Code,
		Type:        req.Type,
		Value:       req.Value,
		MinOrder:    req.MinOrder,
		MaxDiscount: req.MaxDiscount,
		Target:      req.Target,
		TargetUsers: targetUsers,
		ExpiresAt:   req.ExpiresAt,
		UsageLimit:  req.UsageLimit,
		Active:      true,
		CreatedBy:   middleware.UserID(c),
	}
	if req.Active != nil {
		coupon.Active = *req.Active
	}
	return coupon, nil
}

func (h *CouponHandler) Create(c echo.Context) error {
	var req couponRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	coupon, err := h.couponFromRequest(c, &req)
	if err != nil {
		return err
	}

	created, svcErr := h.svc.Create(c.Request().Context(), coupon)
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *CouponHandler) Update(c echo.Context) error {
	couponID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid coupon ID")
	}

	var req couponRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	existing, svcErr := h.svc.Get(c.Request().Context(), couponID)
	if svcErr != nil {
		return serviceError(c, svcErr)
	}

	coupon, reqErr := h.couponFromRequest(c, &req)
	if reqErr != nil {
		return reqErr
	}
	coupon.ID = couponID
	coupon.UsedCount = existing.UsedCount
	coupon.CreatedBy = existing.CreatedBy
	coupon.CreatedAt = existing.CreatedAt

	updated, svcErr := h.svc.Update(c.Request().Context(), coupon)
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *CouponHandler) Delete(c echo.Context) error {
	couponID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid coupon ID")
	}

	if svcErr := h.svc.Delete(c.Request().Context(), couponID); svcErr != nil {
		return serviceError(c, svcErr)
	}
	return message(c, http.StatusOK, "Coupon deleted")
}

func (h *CouponHandler) List(c echo.Context) error {
	coupons, svcErr := h.svc.List(c.Request().Context())
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, coupons)
}
