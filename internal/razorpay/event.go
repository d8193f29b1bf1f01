package razorpay

import "encoding/json"

// Webhook event types this service acts on. Anything else is acknowledged and
// dropped.
const (
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentCaptured   = "payment.captured"
	EventPaymentFailed     = "payment.failed"
)

// Headers set by the gateway on webhook deliveries.
const (
	HeaderEvent     = "X-Razorpay-Event"
	HeaderEventID   = "X-Razorpay-Event-Id"
	HeaderSignature = "X-Razorpay-Signature"
)

// NoteSubscriptionDocID is the notes key the checkout flow uses to carry the
// subscription document ID through the gateway.
const NoteSubscriptionDocID = "subscription_doc_id"

// Notes is the gateway's free-form metadata map. The wire shape is unreliable:
// an empty notes field arrives as [] instead of {}, and values are not always
// strings, so decoding tolerates both and keeps only string values.
type Notes map[string]string

// UnmarshalJSON accepts an object, an array (Razorpay's empty form), or null.
func (n *Notes) UnmarshalJSON(data []byte) error {
	var asMap map[string]interface{}
	if err := json.Unmarshal(data, &asMap); err != nil {
		// Empty array or unexpected shape: treat as no notes.
		*n = nil
		return nil
	}

	result := make(Notes, len(asMap))
	for key, value := range asMap {
		if s, ok := value.(string); ok {
			result[key] = s
		}
	}
	*n = result
	return nil
}

// First returns the first non-empty value among the given keys.
func (n Notes) First(keys ...string) string {
	for _, key := range keys {
		if value := n[key]; value != "" {
			return value
		}
	}
	return ""
}

// Event is the subset of a Razorpay webhook body this service reads. Every
// nested entity is optional; a missing field never blocks acknowledgement.
type Event struct {
	Entity  string  `json:"entity"`
	Event   string  `json:"event"`
	Payload Payload `json:"payload"`

	// Top-level fields carried by checkout redirect payloads. They are only
	// trusted when PaymentID matches the payment entity's ID.
	PaymentID string `json:"payment_id"`
	Email     string `json:"email"`
	Contact   string `json:"contact"`
	Name      string `json:"name"`
}

// Payload wraps the event's entities.
type Payload struct {
	Payment *PaymentWrapper `json:"payment"`
	Order   *OrderWrapper   `json:"order"`
}

// PaymentWrapper matches the gateway's {"payment": {"entity": {...}}} nesting.
type PaymentWrapper struct {
	Entity *PaymentEntity `json:"entity"`
}

// OrderWrapper matches the gateway's {"order": {"entity": {...}}} nesting.
type OrderWrapper struct {
	Entity *OrderEntity `json:"entity"`
}

// PaymentEntity is the payment object inside a payment.* event.
type PaymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
	Notes   Notes  `json:"notes"`
}

// OrderEntity is the order object optionally present alongside the payment.
type OrderEntity struct {
	ID      string `json:"id"`
	Receipt string `json:"receipt"`
	Notes   Notes  `json:"notes"`
}

// PaymentEntity returns the nested payment entity, nil-safe.
func (e *Event) PaymentEntity() *PaymentEntity {
	if e == nil || e.Payload.Payment == nil {
		return nil
	}
	return e.Payload.Payment.Entity
}

// OrderEntity returns the nested order entity, nil-safe.
func (e *Event) OrderEntity() *OrderEntity {
	if e == nil || e.Payload.Order == nil {
		return nil
	}
	return e.Payload.Order.Entity
}

// SubscriptionDocID returns the explicit subscription document reference from
// the payment notes, if the checkout flow supplied one.
func (e *Event) SubscriptionDocID() string {
	payment := e.PaymentEntity()
	if payment == nil {
		return ""
	}
	return payment.Notes[NoteSubscriptionDocID]
}
