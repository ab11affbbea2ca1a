package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error. A Kind is itself an error so it can be used as an
// errors.Is target.
type Kind string

const (
	InvalidFieldType   Kind = "invalid_field_type"
	InvalidValue       Kind = "invalid_value"
	InvalidEncoding    Kind = "invalid_encoding"
	PreconditionFailed Kind = "precondition_failed"
	Unauthenticated    Kind = "unauthenticated"
	RemoteError        Kind = "remote_error"
	NotFound           Kind = "not_found"
)

func (k Kind) Error() string {
	return strings.ReplaceAll(string(k), "_", " ")
}

// IsValidation reports whether k belongs to the validation class.
func (k Kind) IsValidation() bool {
	switch k {
	case InvalidFieldType, InvalidValue, InvalidEncoding:
		return true
	default:
		return false
	}
}

// Error is the error value returned by every package of this module.
type Error struct {
	// Kind is the error classification.
	Kind Kind
	// Op names the operation that failed, e.g. "set" or "persist bug".
	Op string
	// Field is the record field involved, if any.
	Field string
	// Status is the HTTP status of a remote failure, 0 for local errors.
	Status int
	// Code is the tracker's error code when the remote body carried one.
	Code int
	// Message is the human readable reason, verbatim from upstream for remote errors.
	Message string
	// Err is an underlying cause.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Code != 0 {
		fmt.Fprintf(&b, " (code %d)", e.Code)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is matches an Error against its Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an Error of the given kind.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Field returns an Error of the given kind tied to a record field.
func Field(kind Kind, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: "set", Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err is a field validation failure.
func IsValidation(err error) bool {
	return KindOf(err).IsValidation()
}
