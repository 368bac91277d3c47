package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryStatusAndCode(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad", map[string]any{"email": "invalid"}), CodeValidationFailed, http.StatusBadRequest},
		{NewConflict("taken", nil), CodeConflict, http.StatusConflict},
		{NewUnauthorized("nope"), CodeUnauthorized, http.StatusUnauthorized},
		{NewNotFound("user", nil), CodeNotFound, http.StatusNotFound},
		{NewInternalError(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		de := ToDomainError(tc.err)
		require.NotNil(t, de)
		assert.Equal(t, tc.code, de.Code)
		assert.Equal(t, tc.status, de.HTTPStatus)
		assert.True(t, HasCode(tc.err, tc.code))
	}
}

func TestToDomainErrorWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset")
	de := ToDomainError(fmt.Errorf("query users: %w", cause))

	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, "internal server error", de.Message)
	assert.ErrorIs(t, de, cause)
}

func TestToDomainErrorFindsWrappedDomainError(t *testing.T) {
	inner := NewUnauthorized("invalid token")
	de := ToDomainError(fmt.Errorf("authenticate: %w", inner))

	assert.Equal(t, CodeUnauthorized, de.Code)
	assert.Nil(t, ToDomainError(nil))
}

func TestInternalErrorMessageIsOpaque(t *testing.T) {
	err := NewInternalError(errors.New("token abc has no owner"))
	de := ToDomainError(err)

	assert.Equal(t, "internal server error", de.Message)
	assert.Contains(t, de.Error(), "token abc has no owner")
}
