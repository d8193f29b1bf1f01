package app

import (
	"github.com/sirsiprashanth/trigr-payments/internal/config"
	"github.com/sirsiprashanth/trigr-payments/internal/http/handlers"
	"github.com/sirsiprashanth/trigr-payments/internal/metrics"
	"github.com/sirsiprashanth/trigr-payments/internal/middleware"
	"github.com/sirsiprashanth/trigr-payments/internal/razorpay"
	"github.com/sirsiprashanth/trigr-payments/internal/repository"
	"github.com/sirsiprashanth/trigr-payments/internal/services"
	"github.com/sirsiprashanth/trigr-payments/pkg/logger"

	"github.com/gin-gonic/gin"
)

// App is the container wiring all HTTP-facing components together.
type App struct {
	Config           *config.Config
	ReconcileService *services.ReconcileService
	WebhookHandler   *handlers.WebhookHandler
	LoggerMiddleware gin.HandlerFunc
	Logger           *logger.Logger
}

// NewApp builds the application container. The audit repository and metrics
// may be nil when those subsystems are disabled.
func NewApp(cfg *config.Config, reconcileService *services.ReconcileService, events repository.WebhookEventRepository, m metrics.WebhookMetrics, log *logger.Logger) *App {
	verifier := razorpay.NewSignatureVerifier(cfg.Razorpay.WebhookSecret, cfg.Razorpay.StrictSignature, log)
	webhookHandler := handlers.NewWebhookHandler(verifier, reconcileService, events, m, log)

	return &App{
		Config:           cfg,
		ReconcileService: reconcileService,
		WebhookHandler:   webhookHandler,
		LoggerMiddleware: middleware.RequestLogger(log),
		Logger:           log,
	}
}
