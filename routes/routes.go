package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/urbankisan/backend-go/handlers"
	customMiddleware "github.com/urbankisan/backend-go/middleware"
)

// Handlers bundles the service-backed handlers built in main.
type Handlers struct {
	Orders        *handlers.OrderHandler
	Coupons       *handlers.CouponHandler
	Reviews       *handlers.ReviewHandler
	Notifications *handlers.NotificationHandler
}

func SetupRoutes(e *echo.Echo, h Handlers) {
	// Public routes
	e.POST("/api/auth/register", handlers.Register)
	e.POST("/api/auth/login", handlers.Login)
	e.GET("/api/products", handlers.GetProducts)
	e.GET("/api/products/:id", handlers.GetProduct)
	e.GET("/api/reviews/product/:productId", h.Reviews.ListByProduct, customMiddleware.OptionalAuth)
	e.GET("/api/orders/track/:id", h.Orders.Track, customMiddleware.OptionalAuth)
	e.GET("/api/settings", handlers.GetSettings)
	e.GET("/api/team", handlers.GetTeam)
	e.POST("/api/newsletter/subscribe", handlers.SubscribeNewsletter)
	e.GET("/api/newsletter/unsubscribe/:token", handlers.UnsubscribeNewsletter)
	e.POST("/api/contact", handlers.CreateContactQuery)

	// Authenticated routes
	api := e.Group("/api", customMiddleware.Auth)

	api.GET("/users/me", handlers.GetProfile)
	api.PUT("/users/me", handlers.UpdateProfile)
	api.GET("/users/me/addresses", handlers.GetAddresses)
	api.POST("/users/me/addresses", handlers.AddAddress)
	api.PUT("/users/me/addresses/:id", handlers.UpdateAddress)
	api.DELETE("/users/me/addresses/:id", handlers.DeleteAddress)

	api.GET("/cart", handlers.GetCart)
	api.POST("/cart", handlers.AddToCart)
	api.PUT("/cart/quantity", handlers.UpdateCartQuantity)
	api.DELETE("/cart/:productId", handlers.RemoveFromCart)
	api.DELETE("/cart", handlers.ClearCart)

	api.GET("/wishlist", handlers.GetWishlist)
	api.POST("/wishlist", handlers.AddToWishlist)
	api.DELETE("/wishlist/:productId", handlers.RemoveFromWishlist)

	api.POST("/orders", h.Orders.Create)
	api.GET("/orders/myorders", h.Orders.MyOrders)
	api.GET("/orders/:id", h.Orders.Get)
	api.PUT("/orders/:id/cancel", h.Orders.Cancel)

	api.POST("/coupons/validate", h.Coupons.Validate)
	api.GET("/coupons/active", h.Coupons.ListActive)

	api.POST("/reviews", h.Reviews.Create)
	api.GET("/reviews/can-review/:productId", h.Reviews.CanReview)
	api.PUT("/reviews/:id", h.Reviews.Update)
	api.POST("/reviews/:id/upvote", h.Reviews.Upvote)
	api.POST("/reviews/:id/downvote", h.Reviews.Downvote)

	api.GET("/notifications", h.Notifications.ListForUser)
	api.GET("/notifications/unread-count", h.Notifications.UnreadCount)
	api.PUT("/notifications/read-all", h.Notifications.MarkAllRead)
	api.PUT("/notifications/:id/read", h.Notifications.MarkRead)

	// Admin routes
	admin := e.Group("/api", customMiddleware.Auth, customMiddleware.RequireAdmin)

	admin.POST("/products", handlers.CreateProduct)
	admin.PUT("/products/:id", handlers.UpdateProduct)
	admin.DELETE("/products/:id", handlers.DeleteProduct)

	admin.GET("/orders", h.Orders.List)
	admin.GET("/orders/stats", h.Orders.Stats)
	admin.PUT("/orders/:id/status", h.Orders.UpdateStatus)
	admin.PUT("/orders/:id/refund", h.Orders.Refund)

	admin.POST("/admin/coupons", h.Coupons.Create)
	admin.GET("/admin/coupons", h.Coupons.List)
	admin.PUT("/admin/coupons/:id", h.Coupons.Update)
	admin.DELETE("/admin/coupons/:id", h.Coupons.Delete)

	admin.GET("/admin/reviews", h.Reviews.List)
	admin.DELETE("/admin/reviews/:id", h.Reviews.Delete)
	admin.GET("/admin/reviews/:id/votes", h.Reviews.Votes)

	admin.POST("/admin/notifications", h.Notifications.Create)
	admin.GET("/admin/notifications", h.Notifications.List)
	admin.DELETE("/admin/notifications/:id", h.Notifications.Delete)

	admin.PUT("/admin/settings", handlers.UpdateSettings)

	admin.POST("/admin/team", handlers.CreateTeamMember)
	admin.PUT("/admin/team/:id", handlers.UpdateTeamMember)
	admin.DELETE("/admin/team/:id", handlers.DeleteTeamMember)

	admin.GET("/admin/newsletter", handlers.ListNewsletterSubscribers)

	admin.GET("/admin/contact", handlers.ListContactQueries)
	admin.PUT("/admin/contact/:id/respond", handlers.RespondContactQuery)
	admin.DELETE("/admin/contact/:id", handlers.DeleteContactQuery)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}
