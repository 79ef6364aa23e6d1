package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(ErrInternalServer, cause)

	assert.Equal(t, ErrInternalServer.Code, err.Code)
	assert.Equal(t, ErrInternalServer.Message, err.Message)
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, ErrInternalServer.Internal, "sentinel must not be mutated")
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrInvalidInput, "amount must be greater than zero")

	assert.Equal(t, "INVALID_INPUT", err.Code)
	assert.Equal(t, "amount must be greater than zero", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "Invalid input", ErrInvalidInput.Message)
}

func TestHasCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"sentinel", ErrGoalNotFound, true},
		{"custom message", WithMessage(ErrGoalNotFound, "gone"), true},
		{"wrapped by fmt", fmt.Errorf("processing: %w", Wrap(ErrGoalNotFound, nil)), true},
		{"other code", ErrAccountNotFound, false},
		{"plain error", fmt.Errorf("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasCode(tt.err, ErrGoalNotFound))
		})
	}
}
