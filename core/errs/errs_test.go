package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"bugsync/core/errs"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("fetch bug 1: %w", &errs.Error{Kind: errs.NotFound, Status: 404, Code: 101, Message: "Bug 1 does not exist."})

	assert.True(t, errors.Is(err, errs.NotFound))
	assert.False(t, errors.Is(err, errs.RemoteError))
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *errs.Error
		want string
	}{
		{
			name: "Field",
			err:  errs.Field(errs.InvalidFieldType, "summary", "must be a string, got %T", 1),
			want: "set: summary: invalid field type: must be a string, got int",
		},
		{
			name: "Remote",
			err:  &errs.Error{Kind: errs.RemoteError, Op: "PUT bug/1", Status: 400, Code: 50, Message: "You must select/enter a component."},
			want: "PUT bug/1: remote error: You must select/enter a component. (code 50)",
		},
		{
			name: "Wrapped",
			err:  &errs.Error{Kind: errs.Unauthenticated, Op: "login", Err: errors.New("boom")},
			want: "login: unauthenticated: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsValidation(t *testing.T) {
	assert.True(t, errs.IsValidation(errs.Field(errs.InvalidEncoding, "data", "bad")))
	assert.True(t, errs.IsValidation(errs.Field(errs.InvalidValue, "status", "bad")))
	assert.False(t, errs.IsValidation(errs.New(errs.PreconditionFailed, "set", "no id")))
	assert.False(t, errs.IsValidation(errors.New("plain")))
}
