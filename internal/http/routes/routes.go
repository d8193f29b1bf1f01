package routes

import (
	"github.com/sirsiprashanth/trigr-payments/internal/app"
	"github.com/sirsiprashanth/trigr-payments/internal/http/handlers"
	"github.com/sirsiprashanth/trigr-payments/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers all API routes on the gin router.
func SetupRoutes(router *gin.Engine, application *app.App, registry *prometheus.Registry, log *logger.Logger) {
	api := router.Group("/api/v1")
	{
		// Machine-to-machine endpoint; authenticated by signature, not tokens.
		api.POST("/webhooks/razorpay", application.WebhookHandler.HandleRazorpayWebhook)

		api.GET("/health", handlers.HealthCheck)
	}

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	log.Infow("API routes successfully configured")
}
