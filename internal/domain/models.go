// Package domain defines the persistence models for issues. These types are
// mapped with GORM and form the core data layer of the issue tracker.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Default values applied on creation when the client omits them.
const (
	DefaultStatus   = "Open"
	DefaultPriority = "Medium"
)

// Issue is a tracked work item.
//
// Fields:
//   - ID: UUID primary key (char(36)), assigned on insert and never reassigned.
//   - Title: required, never blank.
//   - Status / Priority: free text, defaulted to "Open" / "Medium".
//   - Assignee: nullable; the empty string is a legitimate value.
//   - CreatedAt / UpdatedAt: managed by GORM. Both are stamped with the same
//     instant on insert; UpdatedAt is refreshed on every update.
type Issue struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Title     string    `json:"title"     gorm:"type:varchar(255);not null"`
	Status    string    `json:"status"    gorm:"type:varchar(50);not null;index"`
	Priority  string    `json:"priority"  gorm:"type:varchar(50);not null;index"`
	Assignee  *string   `json:"assignee"  gorm:"type:varchar(100)"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime"`
}

// TableName returns the database table name for Issue.
func (Issue) TableName() string { return "issues" }

// BeforeCreate assigns a UUID when the caller did not provide one.
func (i *Issue) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// IssuePatch carries the mutable columns supplied by an update. A nil field
// is left untouched. Assignee distinguishes three states: nil (absent),
// Valid=false (clear to NULL) and Valid=true (overwrite, "" included).
type IssuePatch struct {
	Title    *string
	Status   *string
	Priority *string
	Assignee *sql.NullString
}

// Columns returns the column/value map for a GORM Updates call. Only
// present fields appear in the map.
func (p IssuePatch) Columns() map[string]any {
	cols := make(map[string]any, 4)
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.Priority != nil {
		cols["priority"] = *p.Priority
	}
	if p.Assignee != nil {
		if p.Assignee.Valid {
			cols["assignee"] = p.Assignee.String
		} else {
			cols["assignee"] = nil
		}
	}
	return cols
}

// IssueFilter holds the conjunctive predicates of a list query.
//
// Search and Assignee are pointers because presence matters: a present but
// empty Assignee still excludes rows whose assignee is NULL. Status and
// Priority apply only when non-empty.
type IssueFilter struct {
	Search   *string
	Status   string
	Priority string
	Assignee *string
}

// IssueQuery is the structured filter/sort/pagination request derived from
// an HTTP query string.
type IssueQuery struct {
	Filter IssueFilter
	// Sort names the field to order by. Unknown names apply no ordering.
	Sort string
	Desc bool

	Offset int
	Limit  int
}
