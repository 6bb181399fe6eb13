package api

import (
	"net/http"

	"farmcon/internal/api/middleware"
	"farmcon/internal/models"
	"farmcon/internal/modules/cart"
	"farmcon/internal/modules/catalog"
	"farmcon/internal/modules/checkout"
	"farmcon/internal/modules/delivery"
	"farmcon/internal/modules/orders"
	"farmcon/internal/modules/users"
	"farmcon/internal/realtime"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(
	e *echo.Echo,
	userHandler *users.Handler,
	catalogHandler *catalog.Handler,
	cartHandler *cart.Handler,
	checkoutHandler *checkout.Handler,
	orderHandler *orders.Handler,
	deliveryHandler *delivery.Handler,
	realtimeHandler *realtime.Handler,
	jwtSecret string,
) {
	authMiddleware := middleware.JWTAuth(jwtSecret)
	sellerRequired := middleware.RoleRequired(models.RoleFarmer, models.RoleSupplier)
	farmerRequired := middleware.RoleRequired(models.RoleFarmer)
	driverRequired := middleware.RoleRequired(models.RoleDriver)
	adminRequired := middleware.AdminRequired()

	// --- Public Routes ---
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signup", userHandler.Signup)
		authGroup.POST("/login", userHandler.Login)
		authGroup.GET("/google/login", userHandler.GoogleLogin)
		authGroup.GET("/google/callback", userHandler.GoogleCallback)
	}

	// Catalog reads are public so the storefront works without an account.
	e.GET("/products/:productId", catalogHandler.GetProduct)
	e.GET("/listings/:listingId", catalogHandler.GetListing)

	// Public tracking; the tracking number is the capability.
	e.GET("/track/:trackingNumber", deliveryHandler.Track)

	// --- Profile Routes ---
	profileGroup := e.Group("/profile", authMiddleware)
	{
		profileGroup.GET("", userHandler.GetProfile)
		profileGroup.PUT("", userHandler.UpdateProfile)
	}

	// --- Seller Catalog Routes ---
	sellerGroup := e.Group("/seller", authMiddleware)
	{
		sellerGroup.POST("/products", catalogHandler.CreateProduct, sellerRequired)
		sellerGroup.GET("/products", catalogHandler.ListMyProducts, sellerRequired)
		sellerGroup.POST("/crops", catalogHandler.CreateCrop, farmerRequired)
		sellerGroup.POST("/listings", catalogHandler.CreateListing, farmerRequired)
		sellerGroup.GET("/listings", catalogHandler.ListMyListings, farmerRequired)
		sellerGroup.GET("/orders", orderHandler.ListSellerOrders, sellerRequired)
		sellerGroup.PATCH("/orders/:orderId/status", orderHandler.UpdateOrderStatus, sellerRequired)
	}

	// --- Cart Routes ---
	cartGroup := e.Group("/cart", authMiddleware)
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.POST("/items", cartHandler.AddItem)
		cartGroup.PATCH("/items/:itemId", cartHandler.UpdateItem)
		cartGroup.DELETE("/items/:itemId", cartHandler.RemoveItem)
		cartGroup.DELETE("", cartHandler.ClearCart)
	}

	// --- Checkout Routes ---
	checkoutGroup := e.Group("/checkout", authMiddleware)
	{
		checkoutGroup.POST("/session", checkoutHandler.CreateSession)
		checkoutGroup.POST("/confirm", checkoutHandler.ConfirmPayment)
	}

	// --- Order Routes ---
	orderGroup := e.Group("/orders", authMiddleware)
	{
		orderGroup.GET("", orderHandler.ListMyOrders)
		orderGroup.GET("/:orderId", orderHandler.GetOrderDetails)
	}

	// --- Delivery Routes ---
	deliveryGroup := e.Group("/deliveries", authMiddleware)
	{
		deliveryGroup.POST("", deliveryHandler.CreateDelivery, sellerRequired)
		deliveryGroup.GET("/my", deliveryHandler.ListMyDeliveries, driverRequired)
		deliveryGroup.GET("/:deliveryId", deliveryHandler.GetDelivery)
		deliveryGroup.GET("/:deliveryId/locations", deliveryHandler.ListLocations)
		deliveryGroup.POST("/:deliveryId/locations", deliveryHandler.RecordLocation, driverRequired)
		deliveryGroup.PATCH("/:deliveryId/status", deliveryHandler.UpdateStatus, driverRequired)
		deliveryGroup.PATCH("/:deliveryId/assign", deliveryHandler.AssignDriver, adminRequired)
	}

	// --- Realtime ---
	e.GET("/ws/track", realtimeHandler.HandleSocket, authMiddleware)
}
