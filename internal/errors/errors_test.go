package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("WrapPreservesChain", func(t *testing.T) {
		wrapped := Wrap(ErrNotFound, "refresh token not found")
		assert.True(t, stderrors.Is(wrapped, ErrNotFound))
		assert.Equal(t, "refresh token not found: not found", wrapped.Error())
	})

	t.Run("WrapNilReturnsNil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "context"))
	})

	t.Run("DoubleWrapPreservesChain", func(t *testing.T) {
		inner := Wrap(ErrTooManyRequests, "login limit exceeded")
		outer := Wrap(inner, "check failed")
		assert.True(t, stderrors.Is(outer, ErrTooManyRequests))
	})
}

func TestIs(t *testing.T) {
	wrapped := Wrap(ErrLocked, "account locked")
	assert.True(t, Is(wrapped, ErrLocked))
	assert.False(t, Is(wrapped, ErrUnauthorized))
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrConflict, ErrInvalidInput, ErrUnauthorized,
		ErrForbidden, ErrLocked, ErrTooManyRequests, ErrUnavailable,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, stderrors.Is(a, b))
		}
	}
}
