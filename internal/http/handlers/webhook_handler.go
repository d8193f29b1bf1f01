package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sirsiprashanth/trigr-payments/internal/domain"
	"github.com/sirsiprashanth/trigr-payments/internal/metrics"
	"github.com/sirsiprashanth/trigr-payments/internal/razorpay"
	"github.com/sirsiprashanth/trigr-payments/internal/repository"
	"github.com/sirsiprashanth/trigr-payments/internal/services"
	"github.com/sirsiprashanth/trigr-payments/pkg/logger"
	"github.com/sirsiprashanth/trigr-payments/pkg/res"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Webhook bodies are small; 64kb leaves generous headroom.
const maxRequestBodySize = int64(65536)

// Reconciler is the part of the reconciliation service the handler needs.
type Reconciler interface {
	ProcessPayment(ctx context.Context, paymentID, explicitDocID, paymentStatus string, info domain.CustomerInfo) (services.Outcome, string, error)
}

// WebhookHandler processes inbound Razorpay webhooks. Stateless per request:
// received, signature-checked, dispatched, resolved, updated, acknowledged.
type WebhookHandler struct {
	verifier   *razorpay.SignatureVerifier
	reconciler Reconciler
	events     repository.WebhookEventRepository
	metrics    metrics.WebhookMetrics
	log        *logger.Logger
}

// NewWebhookHandler creates the webhook handler. The audit repository and
// metrics may be nil when those subsystems are disabled.
func NewWebhookHandler(verifier *razorpay.SignatureVerifier, reconciler Reconciler, events repository.WebhookEventRepository, m metrics.WebhookMetrics, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		reconciler: reconciler,
		events:     events,
		metrics:    m,
		log:        log,
	}
}

// HandleRazorpayWebhook is the gin handler for POST /webhooks/razorpay.
// Signature failure is the only propagated error (400); every other terminal
// outcome acknowledges with 200 so the gateway does not retry what a retry
// cannot fix.
func (h *WebhookHandler) HandleRazorpayWebhook(c *gin.Context) {
	start := time.Now()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBodySize)
	payload, err := io.ReadAll(c.Request.Body)
	defer c.Request.Body.Close()
	if err != nil {
		h.log.Errorw("Failed to read webhook request body", "error", err)
		res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Cannot read request body"}, http.StatusBadRequest)
		c.Abort()
		return
	}

	eventType := c.GetHeader(razorpay.HeaderEvent)
	eventID := c.GetHeader(razorpay.HeaderEventID)

	if !h.verifier.Verify(payload, c.GetHeader(razorpay.HeaderSignature)) {
		h.log.Warnw("Invalid webhook signature", "eventID", eventID, "eventType", eventType, "clientIP", c.ClientIP())
		h.incOutcome(services.OutcomeInvalidSignature)
		h.record(c.Request.Context(), eventID, eventType, "", "", services.OutcomeInvalidSignature)
		res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Invalid signature"}, http.StatusBadRequest)
		c.Abort()
		return
	}

	if h.metrics != nil {
		h.metrics.IncDelivery(eventType)
	}
	h.log.Infow("Received Razorpay webhook", "eventID", eventID, "eventType", eventType)

	// The payload is parsed defensively: a missing or malformed body is
	// acknowledged, never an error back to the gateway.
	var event razorpay.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		h.log.Warnw("Failed to parse webhook payload", "error", err, "eventID", eventID, "eventType", eventType)
	}

	switch eventType {
	case razorpay.EventPaymentAuthorized, razorpay.EventPaymentCaptured:
		h.processPayment(c, &event, domain.PaymentStatusCompleted, eventID, eventType)
	case razorpay.EventPaymentFailed:
		h.processPayment(c, &event, domain.PaymentStatusFailed, eventID, eventType)
	default:
		h.record(c.Request.Context(), eventID, eventType, "", "", services.OutcomeIgnored)
		c.JSON(http.StatusOK, gin.H{"status": "received"})
	}

	if h.metrics != nil {
		h.metrics.ObserveProcessing(eventType, time.Since(start).Seconds())
	}
}

// processPayment runs one recognized payment event through the reconciler.
func (h *WebhookHandler) processPayment(c *gin.Context, event *razorpay.Event, paymentStatus string, eventID, eventType string) {
	payment := event.PaymentEntity()
	if payment == nil || payment.ID == "" {
		h.log.Warnw("Webhook payload carries no payment ID", "eventID", eventID, "eventType", eventType)
		h.record(c.Request.Context(), eventID, eventType, "", "", services.OutcomeIgnored)
		c.JSON(http.StatusOK, gin.H{"status": "received"})
		return
	}

	// Failed payments carry no customer info worth merging.
	var info domain.CustomerInfo
	if paymentStatus == domain.PaymentStatusCompleted {
		info = razorpay.ExtractCustomerInfo(event)
		h.log.Debugw("Extracted customer info",
			"paymentID", payment.ID,
			"hasEmail", info.Email != "",
			"hasPhone", info.Phone != "",
			"hasName", info.FullName != "",
		)
	}

	outcome, docID, err := h.reconciler.ProcessPayment(c.Request.Context(), payment.ID, event.SubscriptionDocID(), paymentStatus, info)
	if err != nil {
		// Acknowledged anyway: a gateway retry would only repeat the failure
		// or double-apply side effects.
		h.log.Errorw("Webhook reconciliation failed", "error", err, "eventID", eventID, "paymentID", payment.ID, "outcome", outcome)
	}

	h.record(c.Request.Context(), eventID, eventType, payment.ID, docID, outcome)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// record writes the delivery to the audit log when one is configured.
func (h *WebhookHandler) record(ctx context.Context, eventID, eventType, paymentID, docID string, outcome services.Outcome) {
	if h.events == nil {
		return
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}
	// Best effort only; audit failures are logged by the repository.
	_ = h.events.Record(ctx, &repository.WebhookEvent{
		DeliveryID: eventID,
		EventType:  eventType,
		PaymentID:  paymentID,
		DocumentID: docID,
		Outcome:    string(outcome),
	})
}

func (h *WebhookHandler) incOutcome(outcome services.Outcome) {
	if h.metrics != nil {
		h.metrics.IncOutcome(string(outcome))
	}
}
