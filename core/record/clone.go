package record

import (
	"encoding/json"
	"time"

	"bugsync/core/utils"
)

// clone deep-copies the container types a record may hold.
func clone(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = clone(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = clone(e)
		}
		return out
	case []string, []int, []int64, []map[string]any:
		return utils.Normalize(x)
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = clone(v)
	}
	return out
}

// equal compares normalized values. Times compare by instant.
func equal(a, b any) bool {
	switch x := a.(type) {
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, ok := y[k]
			if !ok || !equal(v, w) {
				return false
			}
		}
		return true
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case nil:
		return b == nil
	default:
		switch b.(type) {
		case []any, map[string]any, time.Time:
			return false
		}
		return a == b
	}
}

// setKey returns a comparable key for a set member. Scalars are their own key;
// anything else is keyed by its JSON encoding.
func setKey(v any) any {
	switch v.(type) {
	case string, int64, float64, bool, nil:
		return v
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err.Error()
	}
	return "json:" + string(b)
}

// dedupe returns the members of list in first-appearance order.
func dedupe(list []any) ([]any, map[any]struct{}) {
	seen := make(map[any]struct{}, len(list))
	out := make([]any, 0, len(list))
	for _, v := range list {
		k := setKey(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out, seen
}

// asList reads a list field. Typed slices written through ToMap, such as
// []string, are normalized so set arithmetic sees their members.
func asList(v any) []any {
	l, _ := utils.Normalize(v).([]any)
	return l
}
