package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeNotFound:     http.StatusNotFound,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeValidation:   http.StatusBadRequest,
		CodeRateLimited:  http.StatusTooManyRequests,
		CodeDuplicate:    http.StatusConflict,
		CodeInternal:     http.StatusInternalServerError,
		Code("OTHER"):    http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, code.HTTPStatus(), code)
	}
}

func TestIsMatchesSentinelByCode(t *testing.T) {
	err := fmt.Errorf("load clip: %w", NotFound("clip"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)

	// 带消息的错误不作为哨兵
	assert.NotErrorIs(t, ErrNotFound, NotFound("clip"))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(CodeInternal, "save failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")

	e, ok := From(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
	assert.Equal(t, CodeInternal, e.Code)
	assert.Equal(t, http.StatusInternalServerError, e.Status())

	_, ok = From(cause)
	assert.False(t, ok)
}

func TestValidationDetails(t *testing.T) {
	assert.Nil(t, Validation("bad").Details)

	e := Validation("bad", FieldError{Field: "limit", Message: "must be at most 50"})
	fields, ok := e.Details.([]FieldError)
	require.True(t, ok)
	assert.Equal(t, "limit", fields[0].Field)
}
