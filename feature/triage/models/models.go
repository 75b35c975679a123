package models

import (
	"time"
)

// Triage categories. A pull with no category is "New"; the store keeps that
// state as NULL and CategoryNew is only a request-level sentinel for it.
const (
	CategoryNew            = "New"
	CategoryAwaitingAuthor = "AwaitingAuthor"
	CategoryNeedsReviewer  = "NeedsReviewer"
	CategoryNeedsMerger    = "NeedsMerger"
)

// Categories lists the concrete (non-null) categories in dashboard order.
func Categories() []string {
	return []string{CategoryAwaitingAuthor, CategoryNeedsReviewer, CategoryNeedsMerger}
}

// ParseCategory maps a request value onto a stored category. CategoryNew (and
// the empty string) map to nil, matching the NULL column state. The second
// return is false for values outside the closed set.
func ParseCategory(s string) (*string, bool) {
	switch s {
	case "", CategoryNew:
		return nil, true
	case CategoryAwaitingAuthor, CategoryNeedsReviewer, CategoryNeedsMerger:
		v := s
		return &v, true
	}
	return nil, false
}

// Pull represents the 'pulls' table: one upstream pull request snapshot.
// Data carries the full serialized upstream payload; the store never
// interprets it.
type Pull struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement:false"`
	Author      string    `gorm:"column:author;not null"`
	LastUpdated time.Time `gorm:"column:last_updated;not null;index"`
	Data        string    `gorm:"column:data;not null"`
	Category    *string   `gorm:"column:category"`
	ReservedBy  *string   `gorm:"column:reserved_by"`
}

// TableName overrides the table name.
func (Pull) TableName() string {
	return "pulls"
}

// CategoryName returns the pull's category, with NULL rendered as CategoryNew.
func (p Pull) CategoryName() string {
	if p.Category == nil {
		return CategoryNew
	}
	return *p.Category
}

// Reservation represents the 'reservations' table: an active lease on one
// pull. ID equals the reserved pull's id; Time is the last lease refresh.
type Reservation struct {
	ID   int64     `gorm:"column:id;primaryKey;autoIncrement:false"`
	Time time.Time `gorm:"column:time;not null"`
}

// TableName overrides the table name.
func (Reservation) TableName() string {
	return "reservations"
}
