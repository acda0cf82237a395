package resource

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"

	"github.com/crmarques/intersync/faults"
)

// Normalize rewrites a payload into the canonical in-memory shape: integers
// as int64, floats as float64, maps as map[string]any, lists as []any, tags
// in wire form. Desired and actual bodies are normalized before comparison so
// equal payloads compare equal regardless of how they were produced.
func Normalize(value Value) (Value, error) {
	return normalizeValue(value)
}

// NormalizeBody normalizes a resource body in place of its map form.
func NormalizeBody(body Body) (Body, error) {
	normalized, err := normalizeValue(body)
	if err != nil {
		return nil, err
	}
	if normalized == nil {
		return nil, nil
	}
	asMap, ok := normalized.(map[string]any)
	if !ok {
		return nil, faults.NewTypedError(faults.ValidationError, "resource body must be an object", nil)
	}
	return asMap, nil
}

func normalizeValue(value any) (any, error) {
	switch typed := value.(type) {
	case nil, bool, string:
		return typed, nil
	case float32:
		return normalizeFloat(float64(typed))
	case float64:
		return normalizeFloat(typed)
	case int:
		return int64(typed), nil
	case int8:
		return int64(typed), nil
	case int16:
		return int64(typed), nil
	case int32:
		return int64(typed), nil
	case int64:
		return typed, nil
	case uint:
		return normalizeUint(uint64(typed))
	case uint8:
		return normalizeUint(uint64(typed))
	case uint16:
		return normalizeUint(uint64(typed))
	case uint32:
		return normalizeUint(uint64(typed))
	case uint64:
		return normalizeUint(typed)
	case json.Number:
		return normalizeJSONNumber(typed)
	case Tag:
		return map[string]any{"Key": typed.Key, "Value": typed.Value}, nil
	case []Tag:
		return normalizeSlice(TagList(typed))
	case []any:
		return normalizeSlice(typed)
	case []string:
		items := make([]any, len(typed))
		for idx, item := range typed {
			items[idx] = item
		}
		return items, nil
	case map[string]any:
		return normalizeStringMap(typed)
	case map[string]string:
		asAny := make(map[string]any, len(typed))
		for key, item := range typed {
			asAny[key] = item
		}
		return asAny, nil
	}

	return nil, faults.NewTypedError(
		faults.ValidationError,
		fmt.Sprintf("unsupported payload type %T", value),
		nil,
	)
}

func normalizeFloat(value float64) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, faults.NewTypedError(faults.ValidationError, "payload contains non-finite float", nil)
	}
	return value, nil
}

func normalizeUint(value uint64) (int64, error) {
	if value > math.MaxInt64 {
		return 0, faults.NewTypedError(faults.ValidationError, "payload contains integer out of range", nil)
	}
	return int64(value), nil
}

func normalizeJSONNumber(value json.Number) (any, error) {
	if asInt, err := value.Int64(); err == nil {
		return asInt, nil
	}
	asBig, ok := new(big.Int).SetString(value.String(), 10)
	if ok {
		if asBig.IsInt64() {
			return asBig.Int64(), nil
		}
		return nil, faults.NewTypedError(faults.ValidationError, "payload contains integer out of range", nil)
	}

	asFloat, err := value.Float64()
	if err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "payload contains invalid number", err)
	}
	return normalizeFloat(asFloat)
}

func normalizeSlice(values []any) ([]any, error) {
	normalized := make([]any, len(values))
	for idx, item := range values {
		itemValue, err := normalizeValue(item)
		if err != nil {
			return nil, err
		}
		normalized[idx] = itemValue
	}
	return normalized, nil
}

func normalizeStringMap(values map[string]any) (map[string]any, error) {
	normalized := make(map[string]any, len(values))
	for key, item := range values {
		itemValue, err := normalizeValue(item)
		if err != nil {
			return nil, err
		}
		normalized[key] = itemValue
	}
	return normalized, nil
}
