package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirsiprashanth/trigr-payments/internal/domain"
	"github.com/sirsiprashanth/trigr-payments/internal/firestore"
	"github.com/sirsiprashanth/trigr-payments/internal/kafka/producer"
	"github.com/sirsiprashanth/trigr-payments/internal/metrics"
	"github.com/sirsiprashanth/trigr-payments/pkg/logger"
)

// Outcome classifies how one webhook delivery was reconciled.
type Outcome string

const (
	// OutcomeUpdatedByDocID: matched via the explicit subscription_doc_id
	// reference carried in the gateway notes.
	OutcomeUpdatedByDocID Outcome = "updated_by_doc_id"
	// OutcomeUpdatedByPaymentID: matched an existing document already holding
	// this payment ID. This is the idempotent re-delivery path.
	OutcomeUpdatedByPaymentID Outcome = "updated_by_payment_id"
	// OutcomeUpdatedByFallback: matched the most recent pending subscription.
	OutcomeUpdatedByFallback Outcome = "updated_by_fallback"
	// OutcomeNotFound: no candidate document exists. Terminal; a gateway
	// retry cannot fix it.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeResolveFailed: the store could not be queried.
	OutcomeResolveFailed Outcome = "resolve_failed"
	// OutcomeUpdateFailed: a target was resolved but the write failed.
	OutcomeUpdateFailed Outcome = "update_failed"

	// Handler-level outcomes, recorded but never produced by ProcessPayment.
	OutcomeInvalidSignature Outcome = "invalid_signature"
	OutcomeIgnored          Outcome = "ignored"
)

type matchKind int

const (
	matchedByDocID matchKind = iota
	matchedByPaymentID
	matchedByFallback
)

// target is a resolved subscription document: its ID, current fields, and how
// it was found.
type target struct {
	id     string
	fields map[string]interface{}
	match  matchKind
}

// ReconcileService matches inbound payment events to subscription documents
// and applies the resulting status transition. It holds no per-request state.
type ReconcileService struct {
	store    firestore.Client
	producer producer.SubscriptionProducer
	metrics  metrics.WebhookMetrics
	log      *logger.Logger
	now      func() time.Time
}

// NewReconcileService wires the reconciliation core. Producer and metrics may
// be nil when those subsystems are disabled.
func NewReconcileService(store firestore.Client, prod producer.SubscriptionProducer, m metrics.WebhookMetrics, log *logger.Logger) *ReconcileService {
	return &ReconcileService{
		store:    store,
		producer: prod,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// ProcessPayment reconciles one payment event against the subscription store.
// explicitDocID, when non-empty, is the subscription_doc_id supplied by the
// checkout flow and always wins. The returned document ID is empty when no
// document was touched. Errors are returned for logging; callers still
// acknowledge the webhook.
func (s *ReconcileService) ProcessPayment(ctx context.Context, paymentID, explicitDocID, paymentStatus string, info domain.CustomerInfo) (Outcome, string, error) {
	tgt, outcome, err := s.resolve(ctx, paymentID, explicitDocID)
	if tgt == nil {
		s.incOutcome(outcome)
		return outcome, "", err
	}

	if err := s.apply(ctx, tgt, paymentID, paymentStatus, info); err != nil {
		s.incOutcome(OutcomeUpdateFailed)
		return OutcomeUpdateFailed, tgt.id, err
	}

	outcome = outcomeForMatch(tgt.match)
	s.incOutcome(outcome)
	s.publish(ctx, tgt, paymentID, paymentStatus)
	return outcome, tgt.id, nil
}

// resolve finds the document to update, in strict priority order: explicit
// reference, payment ID match, then the most recent pending subscription.
func (s *ReconcileService) resolve(ctx context.Context, paymentID, explicitDocID string) (*target, Outcome, error) {
	if explicitDocID != "" {
		fields, err := s.store.GetDocument(ctx, domain.CollectionSubscriptionPlans, explicitDocID)
		if err != nil {
			if errors.Is(err, firestore.ErrNotFound) {
				s.log.Warnw("Referenced subscription document not found", "documentID", explicitDocID, "paymentID", paymentID)
				return nil, OutcomeNotFound, nil
			}
			return nil, OutcomeResolveFailed, fmt.Errorf("resolve by document ID %s: %w", explicitDocID, err)
		}
		return &target{id: explicitDocID, fields: fields, match: matchedByDocID}, "", nil
	}

	docs, err := s.store.QueryDocuments(ctx, domain.CollectionSubscriptionPlans, []firestore.Condition{
		{Field: domain.FieldPaymentID, Op: "=", Value: paymentID},
	}, 1, "", "")
	if err != nil {
		return nil, OutcomeResolveFailed, fmt.Errorf("resolve by payment ID %s: %w", paymentID, err)
	}
	if len(docs) > 0 {
		s.log.Infow("Found existing subscription with payment ID", "documentID", docs[0].ID, "paymentID", paymentID)
		return &target{id: docs[0].ID, fields: docs[0].Fields, match: matchedByPaymentID}, "", nil
	}

	// Heuristic fallback: assume the single most recently created pending
	// subscription belongs to this payment. Not safe when two unmatched
	// webhooks race for distinct payments.
	docs, err = s.store.QueryDocuments(ctx, domain.CollectionSubscriptionPlans, []firestore.Condition{
		{Field: domain.FieldPaymentStatus, Op: "=", Value: domain.PaymentStatusPending},
	}, 1, domain.FieldCreatedAt, "desc")
	if err != nil {
		return nil, OutcomeResolveFailed, fmt.Errorf("resolve pending fallback for payment %s: %w", paymentID, err)
	}
	if len(docs) == 0 {
		s.log.Warnw("No pending subscription found to update", "paymentID", paymentID)
		return nil, OutcomeNotFound, nil
	}

	s.log.Infow("Falling back to most recent pending subscription", "documentID", docs[0].ID, "paymentID", paymentID)
	return &target{id: docs[0].ID, fields: docs[0].Fields, match: matchedByFallback}, "", nil
}

// apply writes the status transition and merged customer info to the target.
func (s *ReconcileService) apply(ctx context.Context, tgt *target, paymentID, paymentStatus string, info domain.CustomerInfo) error {
	now := domain.NewTimestamp(s.now())

	update := map[string]interface{}{
		domain.FieldPaymentID:        paymentID,
		domain.FieldPaymentStatus:    paymentStatus,
		domain.FieldStatus:           domain.StatusForPayment(paymentStatus),
		domain.FieldUpdatedAt:        now,
		domain.FieldWebhookUpdated:   true,
		domain.FieldWebhookTimestamp: now,
	}
	// The payment-ID match path re-delivers an already stamped payment; only
	// first-time matches record the payment moment.
	if tgt.match != matchedByPaymentID {
		update[domain.FieldPaymentTimestamp] = now
	}

	mergeCustomerField(update, tgt.fields, domain.FieldEmail, info.Email)
	mergeCustomerField(update, tgt.fields, domain.FieldPhone, info.Phone)
	mergeCustomerField(update, tgt.fields, domain.FieldFullName, info.FullName)

	if err := s.store.UpdateDocument(ctx, domain.CollectionSubscriptionPlans, tgt.id, update); err != nil {
		s.log.Errorw("Failed to update subscription document",
			"documentID", tgt.id,
			"paymentID", paymentID,
			"paymentStatus", paymentStatus,
			"error", err,
		)
		return fmt.Errorf("update subscription %s: %w", tgt.id, err)
	}

	s.log.Infow("Subscription updated via webhook",
		"documentID", tgt.id,
		"paymentID", paymentID,
		"paymentStatus", paymentStatus,
		"status", domain.StatusForPayment(paymentStatus),
	)
	return nil
}

// mergeCustomerField keeps the most specific known value: a non-empty incoming
// value wins, a stored value survives an empty one, and nothing is written
// when neither exists.
func mergeCustomerField(update, existing map[string]interface{}, field, incoming string) {
	if incoming != "" {
		update[field] = incoming
		return
	}
	if current, ok := existing[field].(string); ok && current != "" {
		update[field] = current
	}
}

// publish emits a subscription event after a successful update. Failures are
// logged only; event delivery never affects webhook acknowledgement.
func (s *ReconcileService) publish(ctx context.Context, tgt *target, paymentID, paymentStatus string) {
	if s.producer == nil {
		return
	}

	subscriptionID, _ := tgt.fields[domain.FieldSubscriptionID].(string)
	event := producer.SubscriptionEvent{
		DocumentID:     tgt.id,
		SubscriptionID: subscriptionID,
		PaymentID:      paymentID,
		Status:         domain.StatusForPayment(paymentStatus),
		PaymentStatus:  paymentStatus,
		Timestamp:      s.now(),
	}

	var err error
	if paymentStatus == domain.PaymentStatusCompleted {
		err = s.producer.PublishSubscriptionActivated(ctx, event)
	} else {
		err = s.producer.PublishSubscriptionPaymentFailed(ctx, event)
	}
	if err != nil {
		s.log.Errorw("Failed to publish subscription event", "documentID", tgt.id, "error", err)
	}
}

func (s *ReconcileService) incOutcome(outcome Outcome) {
	if s.metrics != nil && outcome != "" {
		s.metrics.IncOutcome(string(outcome))
	}
}

func outcomeForMatch(match matchKind) Outcome {
	switch match {
	case matchedByDocID:
		return OutcomeUpdatedByDocID
	case matchedByPaymentID:
		return OutcomeUpdatedByPaymentID
	default:
		return OutcomeUpdatedByFallback
	}
}
