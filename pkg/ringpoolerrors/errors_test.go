package ringpoolerrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringforge/ringpool/pkg/ringpoolerrors"
)

func TestNew(t *testing.T) {
	err := ringpoolerrors.New(ringpoolerrors.ErrorTypeInvalidCapacity, "capacity must be a power of two")

	assert.Equal(t, ringpoolerrors.ErrorTypeInvalidCapacity, err.Type)
	assert.Equal(t, "invalid_capacity: capacity must be a power of two", err.Error())
	assert.Nil(t, err.Cause)
	assert.NotEmpty(t, err.Stack, "New must capture a stack trace")
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := ringpoolerrors.Wrap(cause, ringpoolerrors.ErrorTypeCorruption, "publish failed")

	assert.Equal(t, "pool_corruption: publish failed: disk full", err.Error())
	assert.True(t, errors.Is(err, cause), "Unwrap must expose the cause")
	assert.NotEmpty(t, err.Stack)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, ringpoolerrors.Wrap(nil, ringpoolerrors.ErrorTypeTimeout, "ignored"))
}

func TestWrap_PreservesStructuredStack(t *testing.T) {
	inner := ringpoolerrors.New(ringpoolerrors.ErrorTypeTimeout, "wait expired")
	outer := ringpoolerrors.Wrap(inner, ringpoolerrors.ErrorTypeLeak, "borrow failed")

	assert.Equal(t, inner.Stack, outer.Stack, "wrapping a structured error keeps its stack")
	assert.True(t, ringpoolerrors.IsType(outer, ringpoolerrors.ErrorTypeLeak))
}

func TestWithDetail(t *testing.T) {
	err := ringpoolerrors.New(ringpoolerrors.ErrorTypeInvalidCapacity, "bad capacity").
		WithDetail("capacity", 12).
		WithDetail("pool", "frames")

	require.Len(t, err.Details, 2)
	assert.Equal(t, 12, err.Details["capacity"])
	assert.Equal(t, "frames", err.Details["pool"])
}

func TestIsType(t *testing.T) {
	err := ringpoolerrors.New(ringpoolerrors.ErrorTypeCancelled, "barrier alerted")

	assert.True(t, ringpoolerrors.IsType(err, ringpoolerrors.ErrorTypeCancelled))
	assert.False(t, ringpoolerrors.IsType(err, ringpoolerrors.ErrorTypeTimeout))
	assert.False(t, ringpoolerrors.IsType(errors.New("plain"), ringpoolerrors.ErrorTypeCancelled))
	assert.False(t, ringpoolerrors.IsType(nil, ringpoolerrors.ErrorTypeCancelled))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, ringpoolerrors.IsType(wrapped, ringpoolerrors.ErrorTypeCancelled),
		"IsType must see through standard wrapping")
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		errType   ringpoolerrors.ErrorType
		retryable bool
	}{
		{ringpoolerrors.ErrorTypeTimeout, true},
		{ringpoolerrors.ErrorTypeCancelled, true},
		{ringpoolerrors.ErrorTypeInvalidCapacity, false},
		{ringpoolerrors.ErrorTypeInvalidConfiguration, false},
		{ringpoolerrors.ErrorTypeCorruption, false},
		{ringpoolerrors.ErrorTypeLeak, false},
	}
	for _, tc := range cases {
		err := ringpoolerrors.New(tc.errType, "test")
		assert.Equal(t, tc.retryable, ringpoolerrors.IsRetryable(err), "type %s", tc.errType)
	}

	assert.False(t, ringpoolerrors.IsRetryable(errors.New("plain")))
	assert.False(t, ringpoolerrors.IsRetryable(nil))
}
