package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sirsiprashanth/trigr-payments/pkg/logger"

	"github.com/jmoiron/sqlx"
)

// WebhookEvent is one recorded webhook delivery and its reconciliation
// outcome. Kept for operational audit only; it plays no part in matching.
//
// Schema:
//
//	CREATE TABLE webhook_events (
//	    delivery_id TEXT PRIMARY KEY,
//	    event_type  TEXT NOT NULL,
//	    payment_id  TEXT NOT NULL DEFAULT '',
//	    document_id TEXT NOT NULL DEFAULT '',
//	    outcome     TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL
//	);
type WebhookEvent struct {
	DeliveryID string    `db:"delivery_id"`
	EventType  string    `db:"event_type"`
	PaymentID  string    `db:"payment_id"`
	DocumentID string    `db:"document_id"`
	Outcome    string    `db:"outcome"`
	CreatedAt  time.Time `db:"created_at"`
}

// WebhookEventRepository persists webhook delivery records.
type WebhookEventRepository interface {
	Record(ctx context.Context, event *WebhookEvent) error
}

type postgresWebhookEventRepo struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewPostgresWebhookEventRepository creates the Postgres-backed audit log.
func NewPostgresWebhookEventRepository(db *sqlx.DB, log *logger.Logger) WebhookEventRepository {
	return &postgresWebhookEventRepo{
		db:  db,
		log: log,
	}
}

// Record inserts one delivery record. Re-delivered events reuse the gateway's
// delivery ID, so conflicts are ignored rather than treated as errors.
func (r *postgresWebhookEventRepo) Record(ctx context.Context, event *WebhookEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query := `
        INSERT INTO webhook_events (
            delivery_id, event_type, payment_id, document_id, outcome, created_at
        ) VALUES (
            :delivery_id, :event_type, :payment_id, :document_id, :outcome, :created_at
        )
        ON CONFLICT (delivery_id) DO NOTHING`

	_, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		r.log.Errorw("Failed to record webhook event", "error", err, "deliveryID", event.DeliveryID, "eventType", event.EventType)
		return fmt.Errorf("repository: failed to record webhook event: %w", err)
	}

	r.log.Debugw("Recorded webhook event", "deliveryID", event.DeliveryID, "outcome", event.Outcome)
	return nil
}
