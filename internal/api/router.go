// Package api contains the HTTP handlers and routing for the payment service.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures the Gin router with all routes and middleware.
func SetupRouter(handler *Handler, ginMode string) *gin.Engine {
	// Set Gin mode
	gin.SetMode(ginMode)

	// Create router with default middleware (logger and recovery)
	router := gin.New()

	// Apply middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())
	router.Use(RequestIDMiddleware())

	// Health check and metrics (no auth required)
	router.GET("/health", handler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes, called by the storefront core (server-to-server)
	v1 := router.Group("/api/v1")
	{
		payments := v1.Group("/payments")
		{
			payments.POST("/checkout", handler.CreateCheckout)
			payments.POST("/refund", handler.Refund)
		}
	}

	// Gateway-facing endpoints. These are reachable from the open internet:
	// the success/cancel routes only redirect the shopper, and the callback
	// route trusts nothing until re-verified with the gateway.
	plugin := router.Group("/plugins/oxipay")
	{
		plugin.GET("/success", handler.Success)
		plugin.POST("/success", handler.Success)
		plugin.POST("/callback", handler.Callback)
		plugin.GET("/cancel", handler.CancelOrder)
	}

	return router
}
