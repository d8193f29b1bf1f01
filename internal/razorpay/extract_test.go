package razorpay

import (
	"encoding/json"
	"testing"

	"github.com/sirsiprashanth/trigr-payments/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paymentEvent(entity *PaymentEntity) *Event {
	return &Event{Payload: Payload{Payment: &PaymentWrapper{Entity: entity}}}
}

func TestExtractCustomerInfo(t *testing.T) {
	tests := []struct {
		name  string
		event *Event
		want  domain.CustomerInfo
	}{
		{
			name: "direct payment entity fields win over notes",
			event: paymentEvent(&PaymentEntity{
				ID:      "pay_1",
				Email:   "direct@example.com",
				Contact: "+911234567890",
				Notes: Notes{
					"email":   "notes@example.com",
					"contact": "+910000000000",
				},
			}),
			want: domain.CustomerInfo{Email: "direct@example.com", Phone: "+911234567890"},
		},
		{
			name: "full name from notes in priority order",
			event: paymentEvent(&PaymentEntity{
				ID: "pay_1",
				Notes: Notes{
					"name":          "From Name",
					"customer_name": "From Customer Name",
				},
			}),
			want: domain.CustomerInfo{FullName: "From Name"},
		},
		{
			name: "full_name beats name",
			event: paymentEvent(&PaymentEntity{
				ID: "pay_1",
				Notes: Notes{
					"full_name": "Jane Doe",
					"name":      "J. Doe",
				},
			}),
			want: domain.CustomerInfo{FullName: "Jane Doe"},
		},
		{
			name: "phone falls back from contact to phone key",
			event: paymentEvent(&PaymentEntity{
				ID:    "pay_1",
				Notes: Notes{"phone": "+911111111111"},
			}),
			want: domain.CustomerInfo{Phone: "+911111111111"},
		},
		{
			name: "order notes fill only unset fields",
			event: &Event{
				Payload: Payload{
					Payment: &PaymentWrapper{Entity: &PaymentEntity{
						ID:    "pay_1",
						Email: "payment@example.com",
					}},
					Order: &OrderWrapper{Entity: &OrderEntity{
						Notes: Notes{
							"email":     "order@example.com",
							"full_name": "Order Name",
						},
					}},
				},
			},
			want: domain.CustomerInfo{Email: "payment@example.com", FullName: "Order Name"},
		},
		{
			name: "top-level fields trusted when payment_id matches",
			event: &Event{
				Payload:   Payload{Payment: &PaymentWrapper{Entity: &PaymentEntity{ID: "pay_1"}}},
				PaymentID: "pay_1",
				Email:     "top@example.com",
				Contact:   "+912222222222",
				Name:      "Top Name",
			},
			want: domain.CustomerInfo{Email: "top@example.com", Phone: "+912222222222", FullName: "Top Name"},
		},
		{
			name: "top-level fields ignored when payment_id differs",
			event: &Event{
				Payload:   Payload{Payment: &PaymentWrapper{Entity: &PaymentEntity{ID: "pay_1"}}},
				PaymentID: "pay_other",
				Email:     "top@example.com",
			},
			want: domain.CustomerInfo{},
		},
		{
			name:  "no payment entity yields nothing",
			event: &Event{},
			want:  domain.CustomerInfo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCustomerInfo(tt.event))
		})
	}
}

func TestEventDecodingToleratesEmptyNotesArray(t *testing.T) {
	// Razorpay sends notes as [] when empty instead of {}.
	body := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_1",
					"email": "a@x.com",
					"notes": []
				}
			}
		}
	}`)

	var event Event
	require.NoError(t, json.Unmarshal(body, &event))

	payment := event.PaymentEntity()
	require.NotNil(t, payment)
	assert.Equal(t, "pay_1", payment.ID)
	assert.Empty(t, payment.Notes)
	assert.Equal(t, domain.CustomerInfo{Email: "a@x.com"}, ExtractCustomerInfo(&event))
}

func TestSubscriptionDocID(t *testing.T) {
	event := paymentEvent(&PaymentEntity{
		ID:    "pay_1",
		Notes: Notes{NoteSubscriptionDocID: "doc_42"},
	})
	assert.Equal(t, "doc_42", event.SubscriptionDocID())

	assert.Empty(t, (&Event{}).SubscriptionDocID())
}

func TestNotesDecodingKeepsOnlyStrings(t *testing.T) {
	var notes Notes
	require.NoError(t, json.Unmarshal([]byte(`{"full_name":"Jane","attempt":2}`), &notes))
	assert.Equal(t, Notes{"full_name": "Jane"}, notes)
}
