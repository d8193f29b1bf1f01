package firestore

import (
	"testing"
	"time"

	"github.com/sirsiprashanth/trigr-payments/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want map[string]interface{}
	}{
		{"string", "active", map[string]interface{}{"stringValue": "active"}},
		{"int", 42, map[string]interface{}{"integerValue": "42"}},
		{"int64", int64(1700000000), map[string]interface{}{"integerValue": "1700000000"}},
		{"float", 1.5, map[string]interface{}{"doubleValue": 1.5}},
		{"bool", true, map[string]interface{}{"booleanValue": true}},
		{"nil", nil, map[string]interface{}{"nullValue": nil}},
		{
			"timestamp",
			domain.Timestamp{Seconds: 1700000000},
			map[string]interface{}{"timestampValue": "2023-11-14T22:13:20Z"},
		},
		{
			"time",
			time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
			map[string]interface{}{"timestampValue": "2023-11-14T22:13:20Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encodeValue(tt.in))
		})
	}
}

func TestEncodeValueNested(t *testing.T) {
	got := encodeValue(map[string]interface{}{
		"tags": []interface{}{"a", int64(2)},
	})

	want := map[string]interface{}{
		"mapValue": map[string]interface{}{
			"fields": map[string]interface{}{
				"tags": map[string]interface{}{
					"arrayValue": map[string]interface{}{
						"values": []interface{}{
							map[string]interface{}{"stringValue": "a"},
							map[string]interface{}{"integerValue": "2"},
						},
					},
				},
			},
		},
	}
	assert.Equal(t, want, got)
}

func TestDecodeRawFields(t *testing.T) {
	raw := map[string]interface{}{
		"subscriptionId": map[string]interface{}{"stringValue": "SUB-001"},
		"attempts":       map[string]interface{}{"integerValue": "3"},
		"amount":         map[string]interface{}{"doubleValue": 499.0},
		"webhook_updated": map[string]interface{}{
			"booleanValue": true,
		},
		"cancelledAt": map[string]interface{}{"nullValue": nil},
		"createdAt":   map[string]interface{}{"timestampValue": "2023-11-14T22:13:20Z"},
		"meta": map[string]interface{}{
			"mapValue": map[string]interface{}{
				"fields": map[string]interface{}{
					"source": map[string]interface{}{"stringValue": "webhook"},
				},
			},
		},
	}

	got := decodeRawFields(raw)

	assert.Equal(t, "SUB-001", got["subscriptionId"])
	assert.Equal(t, int64(3), got["attempts"])
	assert.Equal(t, 499.0, got["amount"])
	assert.Equal(t, true, got["webhook_updated"])
	assert.Nil(t, got["cancelledAt"])
	assert.Equal(t, domain.Timestamp{Seconds: 1700000000}, got["createdAt"])
	assert.Equal(t, map[string]interface{}{"source": "webhook"}, got["meta"])
}

func TestEncodeDecodeRoundTripKeepsFieldSemantics(t *testing.T) {
	fields := map[string]interface{}{
		"paymentId":         "pay_1",
		"status":            domain.StatusActive,
		"webhook_updated":   true,
		"webhook_timestamp": domain.Timestamp{Seconds: 1700000000},
	}

	assert.Equal(t, fields, decodeRawFields(encodeFields(fields)))
}

func TestBuildWhere(t *testing.T) {
	single := buildWhere([]Condition{{Field: "paymentId", Op: "=", Value: "pay_1"}})
	assert.Contains(t, single, "fieldFilter")

	filter := single["fieldFilter"].(map[string]interface{})
	assert.Equal(t, "EQUAL", filter["op"])
	assert.Equal(t, map[string]interface{}{"fieldPath": "paymentId"}, filter["field"])
	assert.Equal(t, map[string]interface{}{"stringValue": "pay_1"}, filter["value"])

	composite := buildWhere([]Condition{
		{Field: "paymentStatus", Op: "=", Value: "pending"},
		{Field: "createdAt", Op: ">", Value: domain.Timestamp{Seconds: 0}},
	})
	assert.Contains(t, composite, "compositeFilter")

	inner := composite["compositeFilter"].(map[string]interface{})
	assert.Equal(t, "AND", inner["op"])
	assert.Len(t, inner["filters"], 2)
}

func TestMapOperator(t *testing.T) {
	tests := []struct {
		op   string
		want string
	}{
		{"=", "EQUAL"},
		{"!=", "NOT_EQUAL"},
		{"<", "LESS_THAN"},
		{"<=", "LESS_THAN_OR_EQUAL"},
		{">", "GREATER_THAN"},
		{">=", "GREATER_THAN_OR_EQUAL"},
		{"unknown", "EQUAL"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mapOperator(tt.op))
	}
}

func TestMapDirection(t *testing.T) {
	assert.Equal(t, "ASCENDING", mapDirection("asc"))
	assert.Equal(t, "ASCENDING", mapDirection("ASC"))
	assert.Equal(t, "DESCENDING", mapDirection("desc"))
	assert.Equal(t, "DESCENDING", mapDirection(""))
}

func TestDocumentIDFromName(t *testing.T) {
	name := "projects/demo/databases/(default)/documents/subscriptionPlans/doc_42"
	assert.Equal(t, "doc_42", documentIDFromName(name))
	assert.Equal(t, "doc_42", documentIDFromName("doc_42"))
}
