package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentityForIs(t *testing.T) {
	err := Clone(ErrConflict, "status changed")
	assert.Equal(t, "status changed", err.Message)
	assert.Equal(t, "conflict", ErrConflict.Message)
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", err), ErrConflict))
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	internal := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, internal.Code)
	assert.Equal(t, http.StatusInternalServerError, internal.Status)
	assert.ErrorIs(t, internal, sql.ErrConnDone)

	typed := Wrap(sql.ErrNoRows, ErrNotFound.Code, ErrNotFound.Status, "request not found")
	assert.Same(t, typed, FromError(fmt.Errorf("ctx: %w", typed)))
	assert.Equal(t, "request not found: sql: no rows in result set", typed.Error())
}
