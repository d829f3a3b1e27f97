package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/urbankisan/backend-go/middleware"
	"github.com/urbankisan/backend-go/models"
	"github.com/urbankisan/backend-go/repository"
	"github.com/urbankisan/backend-go/services"
)

type OrderHandler struct {
	svc services.OrderService
}

func NewOrderHandler(svc services.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type orderItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

type createOrderRequest struct {
	Items            []orderItemRequest     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress  models.ShippingAddress `json:"shippingAddress" validate:"required"`
	PaymentMethod    models.PaymentMethod   `json:"paymentMethod" validate:"required"`
	PaymentReference string                 `json:"paymentReference"`
	ItemsPrice       float64                `json:"itemsPrice" validate:"gte=0"`
	ShippingPrice    float64                `json:"shippingPrice" validate:"gte=0"`
	TotalPrice       float64                `json:"totalPrice" validate:"gte=0"`
	CouponCode       string                 `json:"couponCode"`
}

func (h *OrderHandler) Create(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	items := make([]services.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return message(c, http.StatusBadRequest, "Invalid product ID")
		}
		items = append(items, services.OrderItemInput{ProductID: productID, Quantity: item.Quantity})
	}

	order, svcErr := h.svc.Create(c.Request().Context(), middleware.UserID(c), services.CreateOrderInput{
		Items:            items,
		ShippingAddress:  req.ShippingAddress,
		PaymentMethod:    req.PaymentMethod,
		PaymentReference: req.PaymentReference,
		ItemsPrice:       req.ItemsPrice,
		ShippingPrice:    req.ShippingPrice,
		TotalPrice:       req.TotalPrice,
		CouponCode:       req.CouponCode,
	})
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) MyOrders(c echo.Context) error {
	orders, svcErr := h.svc.MyOrders(c.Request().Context(), middleware.UserID(c))
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) Get(c echo.Context) error {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid order ID")
	}

	order, svcErr := h.svc.Get(c.Request().Context(), orderID, middleware.UserID(c), middleware.IsAdmin(c))
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) List(c echo.Context) error {
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)

	orders, total, svcErr := h.svc.List(c.Request().Context(), repository.OrderFilter{
		Status: models.OrderStatus(c.QueryParam("status")),
		Page:   page,
		Limit:  limit,
	})
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
	})
}

func (h *OrderHandler) Stats(c echo.Context) error {
	stats, svcErr := h.svc.Stats(c.Request().Context())
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid order ID")
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}

	order, svcErr := h.svc.Cancel(c.Request().Context(), orderID, middleware.UserID(c), req.Reason)
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid order ID")
	}

	var req struct {
		Status     models.OrderStatus `json:"status" validate:"required"`
		TrackingID string             `json:"trackingId"`
		Carrier    string             `json:"carrier"`
		Reason     string             `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order, svcErr := h.svc.UpdateStatus(c.Request().Context(), orderID, req.Status, req.TrackingID, req.Carrier, req.Reason)
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Refund(c echo.Context) error {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid order ID")
	}

	var req struct {
		Reference string `json:"reference"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request format")
	}

	order, svcErr := h.svc.Refund(c.Request().Context(), orderID, req.Reference, middleware.UserID(c))
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, order)
}

// Track is public: behind OptionalAuth the requester may be anonymous, in
// which case only the redacted view is returned.
func (h *OrderHandler) Track(c echo.Context) error {
	view, svcErr := h.svc.Track(c.Request().Context(), c.Param("id"), middleware.UserID(c), middleware.IsAdmin(c))
	if svcErr != nil {
		return serviceError(c, svcErr)
	}
	return c.JSON(http.StatusOK, view)
}
