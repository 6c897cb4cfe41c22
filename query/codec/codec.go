// Package codec converts application values to and from storage-safe
// primitives based on the declared column type.
package codec

import (
	"encoding/json"
	"time"

	quarry "github.com/quarrydb/quarry"
	"github.com/quarrydb/quarry/schema"
)

// Serialize converts v into the primitive stored for the declared type:
// booleans become 0/1, dates and datetimes become ISO-8601 text, JSON values
// become JSON text, numeric and text and blob values pass through. nil is
// always nil.
func Serialize(v any, t schema.ColumnType) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case schema.Boolean:
		return serializeBool(v)
	case schema.Date:
		return serializeTime(v, "2006-01-02")
	case schema.DateTime:
		return serializeTime(v, time.RFC3339)
	case schema.JSON:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, quarry.Validationf("value is not JSON-encodable: %v", err)
		}
		return string(raw), nil
	default:
		// integer, real, text, blob, increments: passthrough. Unknown columns
		// also land here so undeclared tables still work.
		return v, nil
	}
}

// Deserialize is the inverse of Serialize. The only failure mode is
// malformed JSON text for a JSON column, reported as a validation error.
func Deserialize(v any, t schema.ColumnType) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case schema.Boolean:
		switch x := v.(type) {
		case int64:
			return x != 0, nil
		case bool:
			return x, nil
		}
		return v, nil
	case schema.Date, schema.DateTime:
		s, ok := v.(string)
		if !ok {
			return v, nil
		}
		layout := time.RFC3339
		if t == schema.Date {
			layout = "2006-01-02"
		}
		parsed, err := time.Parse(layout, s)
		if err != nil {
			return nil, quarry.Validationf("malformed %s value %q: %v", t, s, err)
		}
		return parsed, nil
	case schema.JSON:
		s, ok := v.(string)
		if !ok {
			return v, nil
		}
		var out any
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, quarry.Validationf("malformed JSON value: %v", err)
		}
		return out, nil
	default:
		return v, nil
	}
}

func serializeBool(v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, quarry.Validationf("expected bool for boolean column, got %T", v)
	}
	if b {
		return int64(1), nil
	}
	return int64(0), nil
}

func serializeTime(v any, layout string) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x.Format(layout), nil
	case string:
		// Accept pre-formatted text so records read back can be written again.
		return x, nil
	default:
		return nil, quarry.Validationf("expected time.Time for temporal column, got %T", v)
	}
}
