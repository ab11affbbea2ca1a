package record

import (
	"encoding/base64"
	"slices"
	"time"

	"bugsync/core/errs"
)

// TimeLayout is the timestamp layout used by the tracker's REST API.
const TimeLayout = "2006-01-02T15:04:05Z"

// ParseTime parses a tracker timestamp into a UTC time.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

// validate checks value against f before it enters a record. hasID reports
// whether the record already carries a server-assigned identifier.
func (f Field) validate(name string, value any, hasID bool) error {
	switch f.Class {
	case String:
		if _, ok := value.(string); !ok {
			return errs.Field(errs.InvalidFieldType, name, "value must be of type string, got %T", value)
		}
	case Bool:
		if _, ok := value.(bool); !ok {
			return errs.Field(errs.InvalidFieldType, name, "value must be of type bool, got %T", value)
		}
	case Relational, List:
		if !isList(value) {
			return errs.Field(errs.InvalidFieldType, name, "value must be of type list, got %T", value)
		}
	case Base64:
		s, ok := value.(string)
		if !ok {
			return errs.Field(errs.InvalidFieldType, name, "value must be of type string, got %T", value)
		}
		if _, err := base64.StdEncoding.DecodeString(s); err != nil {
			return &errs.Error{Kind: errs.InvalidEncoding, Op: "set", Field: name, Message: "value must be in base64 format", Err: err}
		}
	case Time:
		switch v := value.(type) {
		case time.Time:
		case string:
			if _, err := ParseTime(v); err != nil {
				return &errs.Error{Kind: errs.InvalidFieldType, Op: "set", Field: name, Message: "value must be a timestamp", Err: err}
			}
		default:
			return errs.Field(errs.InvalidFieldType, name, "value must be a timestamp, got %T", value)
		}
	}

	if len(f.Enum) > 0 {
		s, ok := value.(string)
		if !ok {
			return errs.Field(errs.InvalidFieldType, name, "value must be of type string, got %T", value)
		}
		if !slices.Contains(f.Enum, s) {
			return errs.Field(errs.InvalidValue, name, "invalid %s %q", name, s)
		}
	}

	if f.NeedsID && !hasID {
		return &errs.Error{
			Kind:    errs.PreconditionFailed,
			Op:      "set",
			Field:   name,
			Message: "can not set " + name + " unless there is an id, persist the record first",
		}
	}
	return nil
}

func isList(v any) bool {
	switch v.(type) {
	case []any, []string, []int, []int64, []map[string]any:
		return true
	default:
		return false
	}
}
