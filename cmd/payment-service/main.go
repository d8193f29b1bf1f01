package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirsiprashanth/trigr-payments/internal/app"
	"github.com/sirsiprashanth/trigr-payments/internal/config"
	"github.com/sirsiprashanth/trigr-payments/internal/db"
	"github.com/sirsiprashanth/trigr-payments/internal/firestore"
	"github.com/sirsiprashanth/trigr-payments/internal/http/routes"
	"github.com/sirsiprashanth/trigr-payments/internal/kafka"
	"github.com/sirsiprashanth/trigr-payments/internal/kafka/producer"
	"github.com/sirsiprashanth/trigr-payments/internal/metrics"
	"github.com/sirsiprashanth/trigr-payments/internal/repository"
	"github.com/sirsiprashanth/trigr-payments/internal/services"
	"github.com/sirsiprashanth/trigr-payments/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	log := initLogger()

	log.Infow("Payment webhook service starting up...")

	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalw("Failed to load configuration", "error", err)
	}

	if cfg.Razorpay.WebhookSecret == "" {
		log.Warnw("Razorpay webhook secret is not set", "strictSignature", cfg.Razorpay.StrictSignature)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	webhookMetrics := metrics.NewWebhookMetrics(registry, log)

	// The document store client is the only hard dependency.
	store, err := firestore.NewRESTClient(cfg, webhookMetrics, log)
	if err != nil {
		log.Fatalw("Failed to initialize Firestore client", "error", err)
	}
	log.Infow("Firestore client initialized", "projectID", cfg.Firebase.ProjectID)

	// Webhook delivery audit log, enabled when a DSN is configured.
	var eventRepo repository.WebhookEventRepository
	if cfg.Database.DSN != "" {
		dbClient, err := db.NewDBClient(cfg.Database.DSN, log)
		if err != nil {
			log.Fatalw("Failed to connect to database", "error", err)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				log.Errorw("Error closing database connection", "error", err)
			}
		}()
		eventRepo = repository.NewPostgresWebhookEventRepository(dbClient.DB(), log)
		log.Infow("Webhook event audit log enabled")
	} else {
		log.Infow("No database DSN configured, webhook audit log disabled")
	}

	// Subscription event publishing, enabled when brokers are configured.
	var subscriptionProducer producer.SubscriptionProducer
	if len(cfg.Kafka.Brokers) > 0 {
		if err := kafka.EnsureTopics(cfg.Kafka.Brokers, log); err != nil {
			log.Errorw("Failed to ensure Kafka topics, continuing", "error", err)
		}
		syncProducer, err := kafka.NewSyncProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.Errorw("Failed to initialize Kafka producer, continuing without event publishing", "error", err)
		} else {
			subscriptionProducer = producer.NewKafkaSubscriptionProducer(syncProducer, log)
			log.Infow("Kafka producer initialized", "brokers", cfg.Kafka.Brokers)
			defer func() {
				if err := subscriptionProducer.Close(); err != nil {
					log.Errorw("Error closing Kafka producer", "error", err)
				}
			}()
		}
	}

	reconcileService := services.NewReconcileService(store, subscriptionProducer, webhookMetrics, log)
	application := app.NewApp(cfg, reconcileService, eventRepo, webhookMetrics, log)

	router := gin.New()
	router.Use(application.LoggerMiddleware)
	router.Use(gin.Recovery())
	routes.SetupRoutes(router, application, registry, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("Starting HTTP server", "port", cfg.App.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("Failed to start HTTP server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	} else {
		log.Infow("HTTP server gracefully stopped")
	}

	log.Infow("Cleanup finished. Goodbye!")
}

func initLogger() *logger.Logger {
	logLevel := logger.INFO
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = logger.DEBUG
	}
	return logger.New(logLevel)
}
