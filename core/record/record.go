package record

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"bugsync/core/errs"
	"bugsync/core/utils"
)

// State is the synchronization state of a record.
type State int

const (
	// Draft records have no server-assigned identifier.
	Draft State = iota
	// Persisted records match their last synchronized baseline.
	Persisted
	// Modified records carry local edits not yet sent upstream.
	Modified
)

func (s State) String() string {
	switch s {
	case Draft:
		return "draft"
	case Persisted:
		return "persisted"
	case Modified:
		return "modified"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Record holds the live state of a remote resource next to the baseline it
// was last synchronized from.
//
// A Record is not safe for concurrent use; callers sharing one across
// goroutines must serialize access.
type Record struct {
	schema   *Schema
	current  map[string]any
	baseline map[string]any
}

// New returns a draft record seeded with the schema defaults. List fields
// start out as empty lists in both current and baseline.
func New(schema *Schema) *Record {
	r := &Record{
		schema:   schema,
		current:  make(map[string]any),
		baseline: make(map[string]any),
	}
	r.fillLists(r.current)
	r.fillLists(r.baseline)
	if schema != nil {
		for k, v := range schema.Defaults {
			r.current[k] = clone(utils.Normalize(v))
		}
	}
	return r
}

// Hydrate builds a persisted record from server fields. Both current and
// baseline equal the normalized fields.
func Hydrate(schema *Schema, fields map[string]any) (*Record, error) {
	r := &Record{schema: schema}
	if err := r.Reset(fields); err != nil {
		return nil, err
	}
	return r, nil
}

// Reset replaces both current and baseline with fields, discarding any
// unsaved local edit. Time fields given as strings are parsed; absent or
// null list fields become empty lists.
func (r *Record) Reset(fields map[string]any) error {
	cur := make(map[string]any, len(fields))
	for k, v := range fields {
		v = utils.Normalize(v)
		if r.schema.ClassOf(k) == Time {
			t, err := toTime(v)
			if err != nil {
				return &errs.Error{Kind: errs.InvalidFieldType, Op: "hydrate " + r.kind(), Field: k, Message: "value must be a timestamp", Err: err}
			}
			v = t
		}
		cur[k] = v
	}
	r.fillLists(cur)
	r.current = cur
	r.baseline = cloneMap(cur)
	return nil
}

func toTime(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return x, nil
	case string:
		return ParseTime(x)
	default:
		return nil, fmt.Errorf("unexpected %T", v)
	}
}

func (r *Record) fillLists(m map[string]any) {
	if r.schema == nil {
		return
	}
	for name, f := range r.schema.Fields {
		if f.Class != Relational && f.Class != List {
			continue
		}
		if v, ok := m[name]; !ok || v == nil {
			m[name] = []any{}
		}
	}
}

func (r *Record) kind() string {
	if r.schema == nil || r.schema.Name == "" {
		return "record"
	}
	return r.schema.Name
}

// Schema returns the schema the record was built from.
func (r *Record) Schema() *Schema {
	return r.schema
}

// Has reports whether field is present in the current state.
func (r *Record) Has(field string) bool {
	_, ok := r.current[field]
	return ok
}

// Get returns a copy of the current value of field. Absent fields yield the
// documented default: "" for string fields, an empty list for list fields and
// nil for everything else.
func (r *Record) Get(field string) any {
	if v, ok := r.current[field]; ok {
		return clone(v)
	}
	switch r.schema.ClassOf(field) {
	case String, Base64:
		return ""
	case Relational, List:
		return []any{}
	default:
		return nil
	}
}

// String returns field as a string, or "" when it holds something else.
func (r *Record) String(field string) string {
	s, _ := r.current[field].(string)
	return s
}

// Bool returns field as a bool.
func (r *Record) Bool(field string) bool {
	b, _ := r.current[field].(bool)
	return b
}

// Int returns field as an int64.
func (r *Record) Int(field string) (int64, bool) {
	return utils.ToInt64(r.current[field])
}

// Time returns field as a time, or the zero time.
func (r *Record) Time(field string) time.Time {
	t, _ := r.current[field].(time.Time)
	return t
}

// List returns a copy of a list field.
func (r *Record) List(field string) []any {
	return clone(asList(r.current[field])).([]any)
}

// ID returns the server-assigned identifier, if any.
func (r *Record) ID() (int64, bool) {
	v, ok := r.current[IDField]
	if !ok || v == nil {
		return 0, false
	}
	return utils.ToInt64(v)
}

// Set validates value against the field's constraints and stores a deep copy
// of it. The identifier is read-only once present.
func (r *Record) Set(field string, value any) error {
	_, hasID := r.ID()
	if field == IDField {
		if hasID {
			return &errs.Error{Kind: errs.PreconditionFailed, Op: "set", Field: field, Message: "the identifier is read-only once set"}
		}
		id, ok := utils.Normalize(value).(int64)
		if !ok || id <= 0 {
			return errs.Field(errs.InvalidFieldType, field, "value must be a positive integer, got %v", value)
		}
		return r.SetID(id)
	}
	if err := r.schema.Field(field).validate(field, value, hasID); err != nil {
		return err
	}
	v := utils.Normalize(value)
	if r.schema.ClassOf(field) == Time {
		t, err := toTime(v)
		if err != nil {
			return &errs.Error{Kind: errs.InvalidFieldType, Op: "set", Field: field, Err: err}
		}
		v = t
	}
	r.current[field] = clone(v)
	return nil
}

// SetID assigns the server identifier of a freshly created record.
func (r *Record) SetID(id int64) error {
	if _, ok := r.ID(); ok {
		return &errs.Error{Kind: errs.PreconditionFailed, Op: "set", Field: IDField, Message: "the identifier is read-only once set"}
	}
	r.current[IDField] = id
	return nil
}

// Delete removes field from the current state. Deleted fields do not appear
// in a Diff.
func (r *Record) Delete(field string) {
	delete(r.current, field)
}

// ToMap returns the live current mapping. It is not a defensive copy:
// mutating it mutates the record, although Diff still compares against the
// baseline, which the returned map never aliases.
func (r *Record) ToMap() map[string]any {
	return r.current
}

// Baseline returns a copy of the last synchronized state.
func (r *Record) Baseline() map[string]any {
	return cloneMap(r.baseline)
}

// Fields returns the sorted names of the current fields.
func (r *Record) Fields() []string {
	return slices.Sorted(maps.Keys(r.current))
}

// Rebaseline makes the current state the new baseline.
func (r *Record) Rebaseline() {
	r.baseline = cloneMap(r.current)
}

// Changed reports whether field differs from its baseline.
func (r *Record) Changed(field string) bool {
	_, ok := r.diffField(field)
	return ok
}

// State returns Draft, Persisted or Modified.
func (r *Record) State() State {
	if _, ok := r.ID(); !ok {
		return Draft
	}
	if len(r.Diff()) > 0 {
		return Modified
	}
	return Persisted
}

// Relation returns a builder for the set held by field.
func (r *Record) Relation(field string) *Relation {
	return &Relation{rec: r, field: field}
}
