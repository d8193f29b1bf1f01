package firestore

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sirsiprashanth/trigr-payments/internal/domain"
)

// encodeValue translates a Go value into the Firestore REST typed-value form.
// Unknown types fall back to their string representation, matching how the
// platform has always written these documents.
func encodeValue(v interface{}) map[string]interface{} {
	switch val := v.(type) {
	case string:
		return map[string]interface{}{"stringValue": val}
	case int:
		return map[string]interface{}{"integerValue": strconv.Itoa(val)}
	case int64:
		return map[string]interface{}{"integerValue": strconv.FormatInt(val, 10)}
	case float64:
		return map[string]interface{}{"doubleValue": val}
	case bool:
		return map[string]interface{}{"booleanValue": val}
	case nil:
		return map[string]interface{}{"nullValue": nil}
	case domain.Timestamp:
		return map[string]interface{}{"timestampValue": val.Time().UTC().Format(time.RFC3339)}
	case time.Time:
		return map[string]interface{}{"timestampValue": val.UTC().Format(time.RFC3339)}
	case []interface{}:
		values := make([]interface{}, 0, len(val))
		for _, item := range val {
			values = append(values, encodeValue(item))
		}
		return map[string]interface{}{"arrayValue": map[string]interface{}{"values": values}}
	case map[string]interface{}:
		return map[string]interface{}{"mapValue": map[string]interface{}{"fields": encodeFields(val)}}
	default:
		return map[string]interface{}{"stringValue": fmt.Sprintf("%v", val)}
	}
}

// encodeFields encodes a flat field map into Firestore "fields" form.
func encodeFields(fields map[string]interface{}) map[string]interface{} {
	encoded := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		encoded[key] = encodeValue(value)
	}
	return encoded
}

// decodeValue translates a Firestore typed value back into a plain Go value.
// Integers arrive as JSON strings on the wire and decode to int64; timestamps
// decode to the seconds-wrapped domain form.
func decodeValue(raw map[string]interface{}) interface{} {
	if v, ok := raw["stringValue"]; ok {
		s, _ := v.(string)
		return s
	}
	if v, ok := raw["integerValue"]; ok {
		switch n := v.(type) {
		case string:
			parsed, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				return int64(0)
			}
			return parsed
		case float64:
			return int64(n)
		}
		return int64(0)
	}
	if v, ok := raw["doubleValue"]; ok {
		f, _ := v.(float64)
		return f
	}
	if v, ok := raw["booleanValue"]; ok {
		b, _ := v.(bool)
		return b
	}
	if _, ok := raw["nullValue"]; ok {
		return nil
	}
	if v, ok := raw["timestampValue"]; ok {
		s, _ := v.(string)
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return domain.Timestamp{}
		}
		return domain.NewTimestamp(t)
	}
	if v, ok := raw["mapValue"]; ok {
		m, _ := v.(map[string]interface{})
		fields, _ := m["fields"].(map[string]interface{})
		return decodeRawFields(fields)
	}
	if v, ok := raw["arrayValue"]; ok {
		m, _ := v.(map[string]interface{})
		items, _ := m["values"].([]interface{})
		result := make([]interface{}, 0, len(items))
		for _, item := range items {
			if rawItem, ok := item.(map[string]interface{}); ok {
				result = append(result, decodeValue(rawItem))
			}
		}
		return result
	}
	return nil
}

// decodeRawFields decodes a Firestore "fields" map as received off the wire.
func decodeRawFields(fields map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		raw, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		result[key] = decodeValue(raw)
	}
	return result
}
