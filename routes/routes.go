package routes

import (
	"marketplace-service/controllers"
	"marketplace-service/middleware"

	"github.com/gin-gonic/gin"
)

// Controllers groups the HTTP handlers mounted by RegisterRoutes.
type Controllers struct {
	Orders   *controllers.OrderController
	Checkout *controllers.CheckoutController
	Cart     *controllers.CartController
	Reviews  *controllers.ReviewController
}

// RegisterRoutes mounts every authenticated endpoint. Checkout endpoints are
// additionally rate limited per user.
func RegisterRoutes(r *gin.Engine, c Controllers, auth gin.HandlerFunc, checkoutLimiter *middleware.RateLimiter) {
	api := r.Group("")
	api.Use(auth)

	orderRoutes := api.Group("/orders")
	orderRoutes.GET("/my-orders", c.Orders.GetMyOrders)
	orderRoutes.GET("/seller", c.Orders.GetSellerOrders)
	orderRoutes.GET("/:id", c.Orders.GetOrder)
	orderRoutes.PUT("/:id/status", c.Orders.UpdateStatus)
	orderRoutes.DELETE("/:id", c.Orders.DeleteOrder)
	orderRoutes.POST("/:id/review", c.Reviews.CreateReview)

	checkoutRoutes := orderRoutes.Group("")
	if checkoutLimiter != nil {
		checkoutRoutes.Use(checkoutLimiter.Middleware())
	}
	checkoutRoutes.POST("/checkout-selected", c.Checkout.CheckoutSelected)
	checkoutRoutes.POST("/buy-now", c.Checkout.BuyNow)

	cartRoutes := api.Group("/cart")
	cartRoutes.GET("", c.Cart.GetCart)
	cartRoutes.DELETE("", c.Cart.ClearCart)
	cartRoutes.POST("/items", c.Cart.AddItem)
	cartRoutes.PUT("/items/:foodItemId", c.Cart.UpdateItem)
	cartRoutes.DELETE("/items/:foodItemId", c.Cart.RemoveItem)
	cartRoutes.DELETE("/seller/:sellerId", c.Cart.ClearSellerCart)
	cartRoutes.POST("/validate", c.Cart.ValidateCart)
	cartRoutes.POST("/validate/seller/:sellerId", c.Cart.ValidateSellerCart)
	cartRoutes.POST("/validate-lines", c.Cart.ValidateLines)

	api.GET("/seller/statistics", c.Orders.GetMyStatistics)
	api.GET("/seller/top-items", c.Orders.GetTopItems)
	api.GET("/seller/dashboard", c.Orders.GetDashboard)
	api.GET("/reviews/low-rated", c.Reviews.ListLowRated)

	sellerRoutes := api.Group("/sellers")
	sellerRoutes.GET("/:id/statistics", c.Orders.GetSellerStatistics)
	sellerRoutes.GET("/:id/reviews", c.Reviews.ListSellerReviews)
}
