package triage

import (
	"errors"
	"fmt"

	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/media"
)

// Category is the user's terminal classification of an asset. An asset with
// no record is unsorted; absence is deliberate so that no invalid default
// state can leak into the aggregate counts.
type Category string

const (
	// CategoryKeep marks an asset the user wants to retain.
	CategoryKeep Category = "keep"
	// CategoryDelete marks an asset whose physical deletion has been confirmed.
	CategoryDelete Category = "delete"
	// CategoryFavorite marks an asset the user wants to highlight.
	CategoryFavorite Category = "favorite"
)

// ErrInvalidCategory indicates a category value outside the known set.
var ErrInvalidCategory = errors.New("triage: invalid category")

// NewCategory validates raw input and returns a Category.
func NewCategory(rawInput string) (Category, error) {
	category := Category(rawInput)
	switch category {
	case CategoryKeep, CategoryDelete, CategoryFavorite:
		return category, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, rawInput)
}

// String returns the underlying category name.
func (c Category) String() string {
	return string(c)
}

// CategoryRecord models one persisted category assignment. At most one live
// record exists per asset identifier.
type CategoryRecord struct {
	AssetID           string `gorm:"column:asset_id;primaryKey;size:190;not null"`
	Category          string `gorm:"column:category;size:32;not null;index:idx_category_records_category"`
	AssignedAtSeconds int64  `gorm:"column:assigned_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (CategoryRecord) TableName() string {
	return "category_records"
}

// UndoRecord captures one reversible category transition. Entry identifiers
// are UUIDv7, so lexical order on entry_id is insertion order.
type UndoRecord struct {
	EntryID           string `gorm:"column:entry_id;primaryKey;size:190;not null"`
	AssetID           string `gorm:"column:asset_id;size:190;not null;index:idx_undo_records_asset"`
	HasPrevious       bool   `gorm:"column:has_previous;not null;default:false"`
	PreviousCategory  string `gorm:"column:previous_category;size:32;not null;default:''"`
	NewCategory       string `gorm:"column:new_category;size:32;not null"`
	RecordedAtSeconds int64  `gorm:"column:recorded_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (UndoRecord) TableName() string {
	return "undo_records"
}

func (r UndoRecord) previous() (Category, bool) {
	if !r.HasPrevious {
		return "", false
	}
	return Category(r.PreviousCategory), true
}

// Counts aggregates live category records per category. Staged-but-uncommitted
// deletions are not included; callers combine these with the pending queue
// length as they see fit.
type Counts struct {
	Keep     int64
	Delete   int64
	Favorite int64
}

func newCategoryRecord(id media.AssetID, category Category, assignedAt int64) CategoryRecord {
	return CategoryRecord{
		AssetID:           id.String(),
		Category:          category.String(),
		AssignedAtSeconds: assignedAt,
	}
}
