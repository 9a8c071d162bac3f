package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentityForIs(t *testing.T) {
	cloned := Clone(ErrNotFound, "event not found")
	wrapped := fmt.Errorf("load: %w", cloned)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrForbidden))
	assert.Equal(t, "event not found", cloned.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestInvalidWrapsCause(t *testing.T) {
	cause := errors.New("bad recurrence")
	appErr := Invalid(cause, "invalid payload")
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.ErrorIs(t, appErr, cause)
	assert.Equal(t, "invalid payload: bad recurrence", appErr.Error())
}
