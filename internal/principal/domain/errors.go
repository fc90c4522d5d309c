package domain

import (
	apperrors "github.com/allisson/authcore/internal/errors"
)

var (
	// ErrPrincipalNotFound indicates the principal does not exist.
	ErrPrincipalNotFound = apperrors.Wrap(apperrors.ErrNotFound, "principal not found")

	// ErrPrincipalLocked indicates the principal is locked out.
	ErrPrincipalLocked = apperrors.Wrap(apperrors.ErrLocked, "principal is locked")
)
