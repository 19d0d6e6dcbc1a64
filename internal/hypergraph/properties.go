package hypergraph

import (
	"encoding/json"

	apperrors "hyperbase/internal/core/errors"
)

// Properties is a string-keyed map restricted to JSON-representable value
// kinds: string, float64, bool, nil, []any, and map[string]any. Keeping
// the value domain closed makes serialization and equality well-defined.
type Properties map[string]any

// NormalizeProperties deep-copies props, coercing every value into the
// closed JSON value domain. Integer kinds become float64, matching what a
// round trip through encoding/json produces.
func NormalizeProperties(props map[string]any) (Properties, error) {
	if len(props) == 0 {
		return Properties{}, nil
	}
	out := make(Properties, len(props))
	for k, v := range props {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, apperrors.AddContext(err, "property", k)
		}
		out[k] = nv
	}
	return out, nil
}

func normalizeValue(v any) (any, error) {
	switch tv := v.(type) {
	case nil, string, bool, float64:
		return tv, nil
	case int:
		return float64(tv), nil
	case int32:
		return float64(tv), nil
	case int64:
		return float64(tv), nil
	case float32:
		return float64(tv), nil
	case json.Number:
		f, err := tv.Float64()
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeValidation, "property value is not a representable number")
		}
		return f, nil
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			ni, err := normalizeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = ni
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, item := range tv {
			ni, err := normalizeValue(item)
			if err != nil {
				return nil, err
			}
			out[k] = ni
		}
		return out, nil
	default:
		return nil, apperrors.Newf(apperrors.CodeValidation, "property value of type %T is not JSON-representable", v)
	}
}

// ValueEqual compares two values from the closed property domain.
func ValueEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !ValueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, item := range av {
			other, present := bv[k]
			if !present || !ValueEqual(item, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func cloneProperties(props Properties) Properties {
	if props == nil {
		return Properties{}
	}
	out := make(Properties, len(props))
	for k, v := range props {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, item := range tv {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return tv
	}
}
