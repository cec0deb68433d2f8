// Package repo implements the data persistence layer for issues, backed by
// GORM. This file provides the IssueRepo, which translates typed query
// intents into store queries.
//
// Every method scopes its work to a fresh session bound to the caller's
// context (db.WithContext), so a connection is borrowed from the pool for
// the duration of the call and returned on every exit path. Multi-statement
// operations (Create, Update) run inside a transaction so the row they
// return is the committed one, including store-computed fields.
//
// Error semantics:
//   - A missing issue yields ErrNotFound (an alias of gorm.ErrRecordNotFound).
//   - Any other DB error is propagated unchanged.
package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-issue-tracker/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// sortColumns maps accepted sort names to columns. Both the column names and
// the JSON field names of the timestamps are accepted.
var sortColumns = map[string]string{
	"id":         "id",
	"title":      "title",
	"status":     "status",
	"priority":   "priority",
	"assignee":   "assignee",
	"created_at": "created_at",
	"createdAt":  "created_at",
	"updated_at": "updated_at",
	"updatedAt":  "updated_at",
}

// SortColumn resolves a sort name to its column. ok is false for names that
// are not sortable.
func SortColumn(name string) (column string, ok bool) {
	column, ok = sortColumns[name]
	return
}

// IssueRepo persists issues. It holds no per-request state and is safe for
// concurrent use.
type IssueRepo struct {
	db *gorm.DB
}

// NewIssueRepo constructs an IssueRepo over db.
func NewIssueRepo(db *gorm.DB) *IssueRepo {
	return &IssueRepo{db: db}
}

// DB exposes the underlying handle.
func (r *IssueRepo) DB() *gorm.DB { return r.db }

// Create inserts is and returns the committed row as re-read from the store.
func (r *IssueRepo) Create(ctx context.Context, is *domain.Issue) (*domain.Issue, error) {
	var out domain.Issue
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(is).Error; err != nil {
			return err
		}
		return tx.First(&out, "id = ?", is.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches a single issue by id, or ErrNotFound.
func (r *IssueRepo) Get(ctx context.Context, id string) (*domain.Issue, error) {
	var is domain.Issue
	if err := r.db.WithContext(ctx).First(&is, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &is, nil
}

// List runs one conjunctive query built from q.Filter, ordered by at most one
// column, windowed by q.Offset/q.Limit. Without a recognized sort the order
// is whatever the store returns. It never returns a nil slice.
func (r *IssueRepo) List(ctx context.Context, q domain.IssueQuery) ([]domain.Issue, error) {
	tx := applyFilter(r.db.WithContext(ctx).Model(&domain.Issue{}), q.Filter)

	if col, ok := SortColumn(q.Sort); ok {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: q.Desc})
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	out := make([]domain.Issue, 0)
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns how many issues match f, ignoring pagination.
func (r *IssueRepo) Count(ctx context.Context, f domain.IssueFilter) (int64, error) {
	var total int64
	err := applyFilter(r.db.WithContext(ctx).Model(&domain.Issue{}), f).Count(&total).Error
	return total, err
}

// Update applies the present fields of patch to the issue with id and
// returns the committed row. updated_at is refreshed even when patch is
// empty. A missing id yields ErrNotFound and writes nothing.
func (r *IssueRepo) Update(ctx context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error) {
	var out domain.Issue
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur domain.Issue
		if err := tx.First(&cur, "id = ?", id).Error; err != nil {
			return err
		}

		cols := patch.Columns()
		if len(cols) == 0 {
			cols["updated_at"] = tx.NowFunc()
		}
		if err := tx.Model(&cur).Updates(cols).Error; err != nil {
			return err
		}
		return tx.First(&out, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// applyFilter adds one WHERE clause per present predicate. Search and
// assignee match case-insensitively, Unicode included: ILIKE on PostgreSQL,
// casefold() on both sides elsewhere.
func applyFilter(tx *gorm.DB, f domain.IssueFilter) *gorm.DB {
	if f.Search != nil {
		tx = whereContains(tx, "title", *f.Search)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		tx = tx.Where("priority = ?", f.Priority)
	}
	if f.Assignee != nil {
		tx = whereContains(tx, "assignee", *f.Assignee)
	}
	return tx
}

func whereContains(tx *gorm.DB, column, term string) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Where(column+` ILIKE ? ESCAPE '\'`, containsPattern(term))
	}
	return tx.Where(foldFunc+"("+column+`) LIKE ? ESCAPE '\'`, containsPattern(foldCase(term)))
}

// likeEscaper escapes LIKE wildcards so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a "%term%" LIKE pattern with wildcards escaped.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
