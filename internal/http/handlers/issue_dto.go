package handlers

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/tbourn/go-issue-tracker/internal/domain"
	"github.com/tbourn/go-issue-tracker/internal/services"
)

// OptionalString is a JSON string field that remembers whether it was sent.
// Present is false when the key is missing; Value is nil for an explicit null.
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// IssueRequest is the JSON payload for creating or replacing fields of an
// issue. Only keys present in the body are applied on update.
type IssueRequest struct {
	// Title is required and must not be blank.
	Title OptionalString `json:"title" swaggertype:"string" example:"Crash on login"`
	// Status defaults to "Open" on create.
	Status OptionalString `json:"status" swaggertype:"string" example:"Open"`
	// Priority defaults to "Medium" on create.
	Priority OptionalString `json:"priority" swaggertype:"string" example:"High"`
	// Assignee may be null to clear it.
	Assignee OptionalString `json:"assignee" swaggertype:"string" example:"alice"`
}

// Patch converts the request into a domain patch. A null status or priority
// counts as absent since those columns cannot hold NULL.
func (r IssueRequest) Patch() domain.IssuePatch {
	var p domain.IssuePatch
	if r.Title.Present {
		p.Title = r.Title.Value
	}
	if r.Status.Present {
		p.Status = r.Status.Value
	}
	if r.Priority.Present {
		p.Priority = r.Priority.Value
	}
	if r.Assignee.Present {
		p.Assignee = services.NullableString(r.Assignee.Value)
	}
	return p
}

// IssueResponse is the wire form of an issue.
type IssueResponse struct {
	ID        string  `json:"id" example:"0b8f5a8e-3c1c-4b55-9d1e-6f0f1c2b9a77"`
	Title     string  `json:"title" example:"Crash on login"`
	Status    string  `json:"status" example:"Open"`
	Priority  string  `json:"priority" example:"Medium"`
	Assignee  *string `json:"assignee" example:"alice"`
	CreatedAt string  `json:"createdAt" example:"2024-05-01T12:00:00.123456Z"`
	UpdatedAt string  `json:"updatedAt" example:"2024-05-01T12:00:00.123456Z"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// NewIssueResponse renders is for the wire. Timestamps are RFC 3339 in UTC.
func NewIssueResponse(is *domain.Issue) IssueResponse {
	return IssueResponse{
		ID:        is.ID,
		Title:     is.Title,
		Status:    is.Status,
		Priority:  is.Priority,
		Assignee:  is.Assignee,
		CreatedAt: is.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: is.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// NewIssueList renders a page of issues; it is never nil.
func NewIssueList(items []domain.Issue) []IssueResponse {
	out := make([]IssueResponse, 0, len(items))
	for i := range items {
		out = append(out, NewIssueResponse(&items[i]))
	}
	return out
}
