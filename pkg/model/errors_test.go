package model

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCanceled(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"context.Canceled", context.Canceled, true},
		{"context.DeadlineExceeded", context.DeadlineExceeded, true},
		{"ErrCanceled", ErrCanceled, true},
		{"wrapped context.Canceled", fmt.Errorf("wrapped: %w", context.Canceled), true},
		{"generic error wrapping deadline", GenericError("count failed", context.DeadlineExceeded), true},
		{"string contains context canceled", errors.New("operation failed: context canceled"), true},
		{"unrelated error", errors.New("some other error"), false},
		{"not found", NotFoundError("missing"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCanceled(tt.err))
		})
	}
}

func TestError_IsMatchesOnCode(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFoundError("could not retrieve a book with id 'x'"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrGeneric))
	assert.False(t, errors.Is(err, ErrExists))
	assert.False(t, errors.Is(errors.New("plain"), ErrNotFound))
}

func TestError_Message(t *testing.T) {
	cause := errors.New("connection refused")

	assert.Equal(t, "generic_error: could not fetch URL http://x: connection refused",
		GenericError("could not fetch URL http://x", cause).Error())
	assert.Equal(t, "not_found", (&Error{Code: CodeNotFound}).Error())
	assert.ErrorIs(t, GenericError("wrapped", cause), cause)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeAlreadyExists, CodeOf(fmt.Errorf("save: %w", AlreadyExistsError("dup"))))
	assert.Equal(t, CodeValidation, CodeOf(ValidationError("bad")))
	assert.Equal(t, CodeGeneric, CodeOf(errors.New("uncoded")))
}

func TestValidationErrors(t *testing.T) {
	var v ValidationErrors
	assert.True(t, v.Empty())

	v.Add("title", "must be a non empty string")
	v.Add("authors.1", "empty values are not allowed")

	assert.False(t, v.Empty())
	assert.Len(t, v.Errors, 2)
	assert.Equal(t, CodeValidation, v.Errors[0].Code)
	assert.Equal(t, "field 'title': must be a non empty string", v.Errors[0].Message)
	assert.Contains(t, v.Error(), "field 'authors.1'")
}
