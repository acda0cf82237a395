package resource

import (
	"strings"

	"github.com/itchyny/gojq"

	"github.com/crmarques/intersync/faults"
)

// FilterBodies narrows a fetched collection with a jq expression. The
// expression receives the list of bodies as its input; emitted objects (or
// lists of objects) become the filtered result. An empty expression returns
// the input unchanged.
func FilterBodies(expression string, bodies []Body) ([]Body, error) {
	expr := strings.TrimSpace(expression)
	if expr == "" {
		return bodies, nil
	}

	parsed, err := gojq.Parse(expr)
	if err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "invalid results filter expression", err)
	}

	input := make([]any, len(bodies))
	for idx, body := range bodies {
		input[idx] = toJQValue(body)
	}

	var results []Body
	appendValue := func(value any) error {
		value = fromJQValue(value)
		if value == nil {
			return nil
		}
		asMap, ok := value.(map[string]any)
		if !ok {
			return faults.NewTypedError(faults.ValidationError, "results filter must emit objects", nil)
		}
		results = append(results, asMap)
		return nil
	}

	iter := parsed.Run(input)
	for {
		value, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := value.(error); ok {
			return nil, faults.NewTypedError(faults.ValidationError, "results filter failed", err)
		}
		if list, ok := value.([]any); ok {
			for _, entry := range list {
				if err := appendValue(entry); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := appendValue(value); err != nil {
			return nil, err
		}
	}

	return results, nil
}

// gojq only accepts int (not int64) as an integer input value, and emits int
// back; normalized bodies use int64 throughout.
func toJQValue(value any) any {
	switch typed := value.(type) {
	case int64:
		return int(typed)
	case []any:
		converted := make([]any, len(typed))
		for idx, item := range typed {
			converted[idx] = toJQValue(item)
		}
		return converted
	case map[string]any:
		converted := make(map[string]any, len(typed))
		for key, item := range typed {
			converted[key] = toJQValue(item)
		}
		return converted
	default:
		return typed
	}
}

func fromJQValue(value any) any {
	switch typed := value.(type) {
	case int:
		return int64(typed)
	case []any:
		converted := make([]any, len(typed))
		for idx, item := range typed {
			converted[idx] = fromJQValue(item)
		}
		return converted
	case map[string]any:
		converted := make(map[string]any, len(typed))
		for key, item := range typed {
			converted[key] = fromJQValue(item)
		}
		return converted
	default:
		return typed
	}
}
