package record

// Class groups fields that share a validation rule and a diff strategy.
type Class int

const (
	// Scalar fields accept any value and are diffed by equality.
	Scalar Class = iota
	// String fields must hold a string.
	String
	// Bool fields must hold a bool.
	Bool
	// Relational fields hold a set of identifiers and are diffed by membership.
	Relational
	// List fields must hold a list but are diffed as a whole value.
	List
	// Base64 fields must hold standard base64 text.
	Base64
	// Time fields hold a time.Time parsed from the tracker's timestamp layout.
	Time
)

func (c Class) String() string {
	switch c {
	case String:
		return "string"
	case Bool:
		return "bool"
	case Relational:
		return "relational"
	case List:
		return "list"
	case Base64:
		return "base64"
	case Time:
		return "time"
	default:
		return "scalar"
	}
}

// Field describes the constraints of a single named field.
type Field struct {
	Class Class
	// Enum, when set, lists the only accepted string values.
	Enum []string
	// NeedsID rejects writes while the record has no identifier.
	NeedsID bool
}

// IDField is the name of the server-assigned identifier.
const IDField = "id"

// Schema is the static description of one record kind (bug, comment,
// attachment). A Schema is shared by every record of that kind and must not
// be modified after the first record is built from it.
type Schema struct {
	// Name of the record kind, used in error messages.
	Name string

	// Fields maps field names to their constraints. Fields not listed are
	// unconstrained scalars.
	Fields map[string]Field

	// Defaults seeds the current state of a draft. Values are deep-copied
	// into each record.
	Defaults map[string]any

	// Required lists the fields that must be present before creation.
	Required []string

	// CreateFields restricts the payload of a create request. Nil means every
	// field present on the record.
	CreateFields []string

	// UpdateFields restricts the delta of an update request. Nil means every
	// changed field.
	UpdateFields []string
}

// Field returns the constraints of name.
func (s *Schema) Field(name string) Field {
	if s == nil {
		return Field{}
	}
	return s.Fields[name]
}

// ClassOf returns the class of name.
func (s *Schema) ClassOf(name string) Class {
	return s.Field(name).Class
}

// IsList reports whether name holds a list, relational or not.
func (s *Schema) IsList(name string) bool {
	c := s.ClassOf(name)
	return c == Relational || c == List
}

// Missing returns the Required fields absent from fields or set to an empty
// value.
func (s *Schema) Missing(fields map[string]any) []string {
	var missing []string
	for _, name := range s.Required {
		v, ok := fields[name]
		if !ok || isEmpty(v) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Pick returns the subset of fields named in names, or all non-empty fields
// when names is nil. Values are deep copies.
func Pick(fields map[string]any, names []string) map[string]any {
	out := make(map[string]any)
	if names == nil {
		for k, v := range fields {
			if isEmpty(v) {
				continue
			}
			out[k] = clone(v)
		}
		return out
	}
	for _, k := range names {
		if v, ok := fields[k]; ok {
			out[k] = clone(v)
		}
	}
	return out
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	default:
		return false
	}
}
