// Package services defines the business logic for issues.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrTitleRequired is returned when a create or update carries a missing
	// or whitespace-only title.
	ErrTitleRequired = errors.New("title is required")

	// ErrIssueNotFound indicates that no issue has the requested identifier.
	ErrIssueNotFound = errors.New("issue not found")

	// ErrInvalidPagination is returned when page or pageSize is below 1.
	ErrInvalidPagination = errors.New("page and pageSize must be >= 1")
)
