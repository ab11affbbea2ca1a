package record

import (
	"bugsync/core/errs"
	"bugsync/core/utils"
)

// Relation stages edits to a list field of a record. Edits go straight into
// the record's current state, so Diff sees them; the baseline is untouched.
//
//	b.Relation("keywords").Add("ateam")
//	b.Relation("cc").Remove("b@x.com")
type Relation struct {
	rec   *Record
	field string
}

func (r *Relation) check() error {
	if !r.rec.schema.IsList(r.field) {
		return errs.Field(errs.InvalidFieldType, r.field, "%s is not a list field of %s", r.field, r.rec.kind())
	}
	return nil
}

// Values returns a copy of the members.
func (r *Relation) Values() []any {
	return r.rec.List(r.field)
}

// Has reports whether v is a member.
func (r *Relation) Has(v any) bool {
	k := setKey(utils.Normalize(v))
	for _, e := range asList(r.rec.current[r.field]) {
		if setKey(e) == k {
			return true
		}
	}
	return false
}

// Add appends the values that are not already members.
func (r *Relation) Add(values ...any) error {
	if err := r.check(); err != nil {
		return err
	}
	list := asList(r.rec.current[r.field])
	_, have := dedupe(list)
	out := append([]any{}, list...)
	for _, v := range values {
		v = utils.Normalize(v)
		k := setKey(v)
		if _, ok := have[k]; ok {
			continue
		}
		have[k] = struct{}{}
		out = append(out, clone(v))
	}
	r.rec.current[r.field] = out
	return nil
}

// Remove drops every occurrence of the given values. Values that are not
// members are ignored.
func (r *Relation) Remove(values ...any) error {
	if err := r.check(); err != nil {
		return err
	}
	norm := make([]any, len(values))
	for i, v := range values {
		norm[i] = utils.Normalize(v)
	}
	_, drop := dedupe(norm)
	list := asList(r.rec.current[r.field])
	out := make([]any, 0, len(list))
	for _, e := range list {
		if _, ok := drop[setKey(e)]; ok {
			continue
		}
		out = append(out, e)
	}
	r.rec.current[r.field] = out
	return nil
}

// Replace sets the members to values, validating them like Set.
func (r *Relation) Replace(values []any) error {
	if err := r.check(); err != nil {
		return err
	}
	return r.rec.Set(r.field, values)
}
