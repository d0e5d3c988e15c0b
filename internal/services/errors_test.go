package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceErrorMatchesByCode(t *testing.T) {
	err := fmt.Errorf("join: %w", NewRoleConflictError("Parent"))
	assert.True(t, errors.Is(err, ErrRoleConflict))
	assert.False(t, errors.Is(err, ErrSessionFull))
	assert.Equal(t, "join: this session already has a Parent", err.Error())

	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorRoleConflict, se.Code)
}

func TestNewStoreError(t *testing.T) {
	assert.NoError(t, NewStoreError("op", nil))

	cause := errors.New("disk I/O error")
	err := NewStoreError("create session", cause)
	assert.True(t, errors.Is(err, ErrStore))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "create session: disk I/O error", err.Error())

	// domain errors raised inside a transaction keep their code
	assert.True(t, errors.Is(NewStoreError("join", ErrSessionFull), ErrSessionFull))
}
