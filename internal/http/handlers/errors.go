// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are stable, lowercase snake_case strings returned in the `code` field
// of the error envelope (see response.go). Clients branch on them; the
// message is for humans.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_connected",
//	  "message": "WordPress or Gemini connection is not established"
//	}
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
	ErrCodeNotConnected     = "not_connected"
	ErrCodeSendInFlight     = "send_in_flight"
	ErrCodeAnswerFailed     = "answer_failed"
	ErrCodeLoginFailed      = "login_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeExportFailed     = "export_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
