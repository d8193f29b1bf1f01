package domain

import "time"

// CollectionSubscriptionPlans is the Firestore collection holding one document
// per coaching-plan purchase.
const CollectionSubscriptionPlans = "subscriptionPlans"

// Subscription status values. A document is created as pending by the checkout
// flow; the webhook moves it to active or failed and never back.
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusFailed  = "failed"
)

// Payment status values mirroring the gateway's payment lifecycle.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Field names of a subscription document as stored in Firestore.
const (
	FieldSubscriptionID   = "subscriptionId"
	FieldPaymentID        = "paymentId"
	FieldStatus           = "status"
	FieldPaymentStatus    = "paymentStatus"
	FieldEmail            = "email"
	FieldPhone            = "phone"
	FieldFullName         = "fullName"
	FieldCreatedAt        = "createdAt"
	FieldUpdatedAt        = "updatedAt"
	FieldPaymentTimestamp = "paymentTimestamp"
	FieldWebhookUpdated   = "webhook_updated"
	FieldWebhookTimestamp = "webhook_timestamp"
)

// Timestamp is the seconds-since-epoch wrapped form the subscription documents
// use for their time fields.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
}

// NewTimestamp wraps a time.Time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix()}
}

// Time converts back to time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, 0)
}

// StatusForPayment maps a gateway payment status onto the subscription status
// written by the webhook: completed activates, anything else fails.
func StatusForPayment(paymentStatus string) string {
	if paymentStatus == PaymentStatusCompleted {
		return StatusActive
	}
	return StatusFailed
}
