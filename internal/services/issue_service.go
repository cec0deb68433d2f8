// Package services – IssueService
//
// This file implements the IssueService, which owns the rules of the issue
// lifecycle: title validation, creation defaults, partial updates, and
// translation of pagination into offset/limit. Persistence is delegated to
// an injected IssueRepo.
//
// Service-level errors (ErrTitleRequired, ErrIssueNotFound,
// ErrInvalidPagination) are returned for predictable cases so handlers can
// map them to HTTP results consistently. Store failures pass through.
package services

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-issue-tracker/internal/domain"
)

// IssueRepo defines the repository contract required by IssueService.
type IssueRepo interface {
	// Create inserts an issue and returns the committed row.
	Create(ctx context.Context, is *domain.Issue) (*domain.Issue, error)

	// Get fetches an issue by id; a missing row yields gorm.ErrRecordNotFound.
	Get(ctx context.Context, id string) (*domain.Issue, error)

	// List returns one page of issues matching the query.
	List(ctx context.Context, q domain.IssueQuery) ([]domain.Issue, error)

	// Count returns how many issues match the filter.
	Count(ctx context.Context, f domain.IssueFilter) (int64, error)

	// Update applies the present fields and returns the committed row.
	Update(ctx context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error)
}

// ListParams is a list request expressed in pages.
type ListParams struct {
	Filter   domain.IssueFilter
	Sort     string
	Desc     bool
	Page     int // 1-based
	PageSize int
}

// IssueService provides issue operations for the HTTP layer.
type IssueService struct {
	// Repo is the issue repository used by this service.
	Repo IssueRepo
}

// NewIssueService constructs an IssueService over r.
func NewIssueService(r IssueRepo) *IssueService {
	return &IssueService{Repo: r}
}

// Create validates the title, fills defaults for omitted fields and inserts
// the issue. Omitted status/priority become "Open"/"Medium"; an omitted
// assignee becomes "" and an explicit null assignee is stored as NULL.
func (s *IssueService) Create(ctx context.Context, in domain.IssuePatch) (*domain.Issue, error) {
	if !hasTitle(in.Title) {
		return nil, ErrTitleRequired
	}

	is := &domain.Issue{
		Title:    *in.Title,
		Status:   valueOr(in.Status, domain.DefaultStatus),
		Priority: valueOr(in.Priority, domain.DefaultPriority),
	}
	switch {
	case in.Assignee == nil:
		is.Assignee = new(string)
	case in.Assignee.Valid:
		a := in.Assignee.String
		is.Assignee = &a
	}

	out, err := s.Repo.Create(ctx, is)
	if err != nil {
		return nil, err
	}
	issueOps.WithLabelValues("create").Inc()
	return out, nil
}

// Get returns the issue with id or ErrIssueNotFound.
func (s *IssueService) Get(ctx context.Context, id string) (*domain.Issue, error) {
	is, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}
	return is, nil
}

// List returns the requested page and the total number of matching issues.
// offset = (page-1)*pageSize, limit = pageSize.
func (s *IssueService) List(ctx context.Context, p ListParams) ([]domain.Issue, int64, error) {
	if p.Page < 1 || p.PageSize < 1 {
		return nil, 0, ErrInvalidPagination
	}

	total, err := s.Repo.Count(ctx, p.Filter)
	if err != nil {
		return nil, 0, err
	}
	offset, ok := pageOffset(p.Page, p.PageSize)
	if !ok || int64(offset) >= total {
		return []domain.Issue{}, total, nil
	}

	items, err := s.Repo.List(ctx, domain.IssueQuery{
		Filter: p.Filter,
		Sort:   p.Sort,
		Desc:   p.Desc,
		Offset: offset,
		Limit:  p.PageSize,
	})
	return items, total, err
}

// pageOffset computes (page-1)*pageSize. ok is false when the product does
// not fit in an int; such a page lies past any result set.
func pageOffset(page, pageSize int) (offset int, ok bool) {
	if page-1 > math.MaxInt/pageSize {
		return 0, false
	}
	return (page - 1) * pageSize, true
}

// Update resolves id first, then validates the title, then applies the
// present fields of patch. An unknown id yields ErrIssueNotFound even when the
// title is blank; a blank title never mutates the row.
func (s *IssueService) Update(ctx context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if !hasTitle(patch.Title) {
		return nil, ErrTitleRequired
	}
	is, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}
	issueOps.WithLabelValues("update").Inc()
	return is, nil
}

func hasTitle(t *string) bool {
	return t != nil && strings.TrimSpace(*t) != ""
}

func valueOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// NullableString is a convenience for building IssuePatch.Assignee.
func NullableString(s *string) *sql.NullString {
	if s == nil {
		return &sql.NullString{}
	}
	return &sql.NullString{String: *s, Valid: true}
}
