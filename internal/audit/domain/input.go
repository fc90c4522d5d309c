package domain

import (
	"github.com/google/uuid"
	"github.com/jellydator/validation"
)

// LogInput is the payload for recording an audit event.
type LogInput struct {
	SubjectID   *uuid.UUID
	SubjectType *string
	Action      Action
	IPAddress   string
	UserAgent   string
	Success     bool
	Details     map[string]any
}

// Validate checks the input fields.
func (l LogInput) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Action, validation.Required),
		validation.Field(&l.IPAddress, validation.Length(0, 255)),
		validation.Field(&l.UserAgent, validation.Length(0, 1024)),
	)
}
