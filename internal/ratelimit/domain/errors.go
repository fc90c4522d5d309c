package domain

import (
	"github.com/allisson/authcore/internal/errors"
)

// Rate limiting errors.
var (
	// ErrCounterNotFound indicates no counter exists for the identifier and
	// endpoint in the current window.
	ErrCounterNotFound = errors.Wrap(errors.ErrNotFound, "rate limit counter not found")

	// ErrLimitExceeded indicates the attempt budget for the window is spent.
	ErrLimitExceeded = errors.Wrap(errors.ErrTooManyRequests, "rate limit exceeded")
)
