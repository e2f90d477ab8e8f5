package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("search: %w", NewUpstreamError("vector store unavailable", cause))

	assert.ErrorIs(t, err, ErrUpstreamFailure)
	assert.ErrorIs(t, err, cause)
	assert.False(t, errors.Is(err, ErrNotFound))

	var de *DomainError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, CodeUpstreamFailure, de.Code)
	assert.Equal(t, "vector store unavailable: connection refused", de.Error())
}

func TestDomainError_MarshalJSON(t *testing.T) {
	err := NewNotFoundError("quiz not found").WithContext("quiz_id", "q1")
	b, jsonErr := err.MarshalJSON()
	assert.NoError(t, jsonErr)
	assert.JSONEq(t, `{"code":"NOT_FOUND","message":"quiz not found"}`, string(b))
	assert.Equal(t, "q1", err.Context["quiz_id"])
}
