// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and supplement the human-readable `error`
// message with a stable, machine-readable taxonomy. Generic codes mirror HTTP
// status semantics; domain-specific ones name the operation that failed.
//
// Example response:
//
//	{
//	  "error": "Title is required",
//	  "code": "bad_request",
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeCreateFailed = "create_failed"
	ErrCodeListFailed   = "list_failed"
	ErrCodeUpdateFailed = "update_failed"
)

// Fixed client-facing messages.
const (
	MsgTitleRequired = "Title is required"
	MsgIssueNotFound = "Issue not found"
)
