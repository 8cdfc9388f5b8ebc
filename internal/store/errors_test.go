package store

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	custom := ErrNotFound.WithMessage("no analysis for jack")

	assert.True(t, errors.Is(custom, ErrNotFound))
	assert.True(t, errors.Is(fmt.Errorf("get: %w", custom), ErrNotFound))
	assert.False(t, errors.Is(custom, ErrInvalidInput))
}

func TestError_WithCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := ErrUnavailable.WithCause(cause)

	assert.Equal(t, "storage unavailable: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPCode())
}
