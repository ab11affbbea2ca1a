package record

import (
	"maps"
	"slices"

	"bugsync/core/utils"
)

// Delta is the set of field changes between a record's current state and its
// baseline. Relational fields map to a SetChange, every other field to its
// whole new value.
type Delta map[string]any

// Fields returns the changed field names in sorted order.
func (d Delta) Fields() []string {
	return slices.Sorted(maps.Keys(d))
}

// SetChange is the delta of a relational field.
type SetChange struct {
	Add    []any `json:"add,omitempty"`
	Remove []any `json:"remove,omitempty"`
}

// Empty reports whether the change neither adds nor removes anything.
func (c SetChange) Empty() bool {
	return len(c.Add) == 0 && len(c.Remove) == 0
}

// DiffSets compares two identifier lists as sets. Additions keep their order
// of first appearance in current, removals their order in baseline.
func DiffSets(baseline, current []any) SetChange {
	cur, curSet := dedupe(current)
	base, baseSet := dedupe(baseline)

	var c SetChange
	for _, v := range cur {
		if _, ok := baseSet[setKey(v)]; !ok {
			c.Add = append(c.Add, v)
		}
	}
	for _, v := range base {
		if _, ok := curSet[setKey(v)]; !ok {
			c.Remove = append(c.Remove, v)
		}
	}
	return c
}

// Diff computes the delta between current and baseline. When only is given,
// the delta is restricted to those fields. Unchanged fields are omitted.
func (r *Record) Diff(only ...string) Delta {
	d := make(Delta)
	for field := range r.current {
		if len(only) > 0 && !slices.Contains(only, field) {
			continue
		}
		if v, ok := r.diffField(field); ok {
			d[field] = v
		}
	}
	return d
}

func (r *Record) diffField(field string) (any, bool) {
	now, ok := r.current[field]
	if !ok {
		return nil, false
	}
	orig, known := r.baseline[field]

	if r.schema.ClassOf(field) == Relational {
		c := DiffSets(asList(orig), asList(now))
		if c.Empty() {
			return nil, false
		}
		return c, true
	}

	now = utils.Normalize(now)
	if known && equal(now, orig) {
		return nil, false
	}
	return clone(now), true
}

// Apply returns a copy of doc with delta applied. Relational changes may be
// given as a SetChange or as the decoded JSON object {"add": [...],
// "remove": [...]}; any other value replaces the field.
func Apply(schema *Schema, doc map[string]any, delta map[string]any) map[string]any {
	out := cloneMap(doc)
	for field, v := range delta {
		if schema.ClassOf(field) != Relational {
			out[field] = clone(v)
			continue
		}
		c, ok := asSetChange(v)
		if !ok {
			out[field] = clone(v)
			continue
		}
		out[field] = applySet(asList(out[field]), c)
	}
	return out
}

func asSetChange(v any) (SetChange, bool) {
	switch x := v.(type) {
	case SetChange:
		return x, true
	case *SetChange:
		return *x, x != nil
	case map[string]any:
		add, addOK := x["add"].([]any)
		remove, removeOK := x["remove"].([]any)
		if !addOK && !removeOK {
			return SetChange{}, false
		}
		return SetChange{Add: add, Remove: remove}, true
	default:
		return SetChange{}, false
	}
}

func applySet(list []any, c SetChange) []any {
	_, drop := dedupe(c.Remove)
	out := make([]any, 0, len(list)+len(c.Add))
	have := make(map[any]struct{}, len(list))
	for _, v := range list {
		k := setKey(v)
		if _, ok := drop[k]; ok {
			continue
		}
		if _, ok := have[k]; ok {
			continue
		}
		have[k] = struct{}{}
		out = append(out, clone(v))
	}
	for _, v := range c.Add {
		k := setKey(v)
		if _, ok := have[k]; ok {
			continue
		}
		have[k] = struct{}{}
		out = append(out, clone(v))
	}
	return out
}
