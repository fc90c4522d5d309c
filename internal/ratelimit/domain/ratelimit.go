// Package domain defines the entities for persisted fixed-window rate limiting.
package domain

import (
	"time"
)

// Endpoint is a named category of operations that shares one rate limit policy.
type Endpoint string

const (
	EndpointLogin         Endpoint = "login"
	EndpointAdminLogin    Endpoint = "admin_login"
	EndpointRegistration  Endpoint = "registration"
	EndpointPasswordReset Endpoint = "password_reset"
	EndpointRefresh       Endpoint = "refresh"
	EndpointDefault       Endpoint = "default"
)

// Policy is the attempt budget for an endpoint category within one window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// WindowStart returns the aligned start of the fixed window containing now.
// Alignment means every caller computes the same boundary for the same
// instant, so counters in the shared store agree across processes.
func (p Policy) WindowStart(now time.Time) time.Time {
	return now.Truncate(p.Window)
}

// Counter is a persisted attempt counter for one identifier, endpoint, and window.
type Counter struct {
	Identifier   string
	Endpoint     Endpoint
	WindowStart  time.Time
	AttemptCount int
	ExpiresAt    time.Time
}

// Decision is the outcome of a rate limit check. RetryAfter is zero for
// admitted attempts and the time until the window resets for denied ones.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Status is a read-only view of the current window for an identifier and endpoint.
type Status struct {
	Limit     int
	Count     int
	Remaining int
	ResetAt   time.Time
}
