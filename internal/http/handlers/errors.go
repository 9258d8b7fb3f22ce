// Package handlers defines HTTP-layer error codes used across the webhook
// endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package). These codes give the
// webhook sender and operational tooling a stable, machine-readable error
// taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly
//     noted.
//   - Generic codes (e.g., bad_request, conflict) mirror common HTTP status
//     semantics.
//   - Domain-specific codes (e.g., invalid_action, render_failed) are
//     reserved for conversational errors that status alone cannot convey.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInvalidAction    = "invalid_action"
	ErrCodeRenderFailed     = "render_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
