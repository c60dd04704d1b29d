package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("load catalog: %w", NewInvalidDataError("row 4: missing latitude", nil))

	assert.Equal(t, ErrorTypeInvalidData, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeValidation, TypeOf(NewValidationError("bad price")))
	assert.Equal(t, ErrorTypeInternal, TypeOf(fmt.Errorf("plain")))
}

func TestAppError_MessageAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewExternalError("search unavailable", cause)

	assert.Equal(t, "EXTERNAL: search unavailable: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "NOT_FOUND: no such collection", NewNotFoundError("no such collection").Error())
}
